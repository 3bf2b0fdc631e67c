// Package prompts holds the LLM prompt templates. Every *.json file in this
// directory is embedded and maps prompt keys to template text with {{.Name}}
// placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var placeholderPattern = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

// catalog is every embedded file, parsed on first use
var catalog = sync.OnceValues(func() (map[string]map[string]string, error) {
	entries, err := promptFiles.ReadDir(".")
	if err != nil {
		return nil, err
	}
	files := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := promptFiles.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", entry.Name(), err)
		}
		var set map[string]string
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", entry.Name(), err)
		}
		files[entry.Name()] = set
	}
	return files, nil
})

func file(filename string) (map[string]string, error) {
	files, err := catalog()
	if err != nil {
		return nil, err
	}
	set, ok := files[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s is not embedded", filename)
	}
	return set, nil
}

// Get returns the template stored under key in filename (e.g. "parsing.json").
func Get(filename, key string) (string, error) {
	set, err := file(filename)
	if err != nil {
		return "", err
	}
	prompt, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// MustGet is Get for prompts the program cannot run without.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format substitutes {{.Key}} placeholders in one pass, so a value that
// itself contains a placeholder is left alone. Unknown placeholders remain.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	oldnew := make([]string, 0, len(data)*2)
	for _, key := range slices.Sorted(maps.Keys(data)) {
		oldnew = append(oldnew, "{{."+key+"}}", data[key])
	}
	return strings.NewReplacer(oldnew...).Replace(template)
}

// Placeholders returns the distinct placeholder names in template, sorted
func Placeholders(template string) []string {
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		names = append(names, m[1])
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Render loads a prompt and fills it from data. Every placeholder in the
// template must have a value.
func Render(filename, key string, data map[string]string) (string, error) {
	template, err := Get(filename, key)
	if err != nil {
		return "", err
	}
	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s/%s: no value for %s", filename, key, strings.Join(missing, ", "))
	}
	return Format(template, data), nil
}

// List returns the prompt keys in filename, sorted.
func List(filename string) ([]string, error) {
	set, err := file(filename)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(set)), nil
}
