// Package schemas embeds the JSON Schemas for the artifacts exchanged by the
// CLI, the API and the database.
package schemas

import "embed"

// Schema file names
const (
	FactorRecord     = "factor_record.schema.json"
	PlatformDecision = "platform_decision.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the raw contents of an embedded schema file
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}
