// Package document loads, merges, and resolves the YAML/JSON configuration
// documents that describe assistants, squads, and shared tools.
package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a tree of configuration data decoded from YAML or JSON.
type Document = map[string]any

// EnvironmentsKey holds per-environment override subtrees in a document.
// It is stripped from every materialized document.
const EnvironmentsKey = "environments"

// Load reads and decodes a document from disk.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode parses document bytes, choosing the codec from the file extension.
func Decode(path string, data []byte) (Document, error) {
	doc := Document{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	case ".json":
		if len(data) == 0 {
			return Document{}, nil
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Save writes a document as YAML. The write goes through a temp file and a
// rename so a reader in the same process never observes a partial document.
func Save(path string, doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".doc-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ApplyEnvironment overlays the environments.<env> subtree onto the base
// document and strips the environments key. The base is not mutated.
func ApplyEnvironment(doc Document, env string) Document {
	result := doc
	if env != "default" {
		if envs, ok := doc[EnvironmentsKey].(Document); ok {
			if override, ok := envs[env].(Document); ok {
				result = Merge(doc, override)
			}
		}
	}
	out := make(Document, len(result))
	for k, v := range result {
		if k == EnvironmentsKey {
			continue
		}
		out[k] = v
	}
	return out
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandVars replaces ${NAME} placeholders with values from the process
// environment. Unset variables are left untouched so callers can detect
// unresolved placeholders.
func ExpandVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// GetString returns a nested string value addressed by key path, or "".
func GetString(doc Document, keys ...string) string {
	cur := any(doc)
	for _, k := range keys {
		m, ok := cur.(Document)
		if !ok {
			return ""
		}
		cur = m[k]
	}
	s, _ := cur.(string)
	return s
}
