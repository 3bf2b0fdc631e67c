package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Metadata describes an ingested PRD
type Metadata struct {
	URL       string `json:"url,omitempty"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339
	Hash      string `json:"hash"`      // SHA256 hex digest of the cleaned text
	WordCount int    `json:"word_count"`
	Format    string `json:"format,omitempty"`
	Platform  string `json:"platform,omitempty"` // document host, for URL sources
	Product   string `json:"product,omitempty"`  // product name from LLM outline
	FromCache bool   `json:"from_cache,omitempty"`
}

// NewMetadata describes cleaned content ingested now from url (empty for local input)
func NewMetadata(content string, url string) *Metadata {
	return &Metadata{
		URL:       url,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		WordCount: len(strings.Fields(content)),
	}
}

// Matches reports whether content is the text this metadata was computed from
func (m *Metadata) Matches(content string) bool {
	return m.Hash == computeHash(content)
}

func computeHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return data, nil
}
