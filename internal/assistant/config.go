// Package assistant loads file-based assistant configurations and
// materializes the platform payloads built from them.
package assistant

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tuannvm/agentctl/internal/document"
)

// ConfigFile is the base document inside each assistant directory.
const ConfigFile = "assistant.yaml"

// Config is a fully loaded assistant: base document with environment
// overrides applied, plus prompts, schemas, and resolved tool files.
type Config struct {
	Name         string
	BasePath     string
	Doc          document.Document
	SystemPrompt string
	FirstMessage string
	Schemas      map[string]document.Document
	Tools        map[string]document.Document
}

// InvalidConfigError lists every required field missing from a
// configuration, not just the first.
type InvalidConfigError struct {
	Name    string
	Missing []string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("assistant %s is missing required fields: %s",
		e.Name, strings.Join(e.Missing, ", "))
}

// Loader reads assistant configurations from a base directory.
type Loader struct {
	BaseDir string
	Refs    *document.RefResolver
}

// NewLoader builds a loader rooted at baseDir, with shared-tool references
// resolved against the discovered project root.
func NewLoader(baseDir string) *Loader {
	return &Loader{BaseDir: baseDir, Refs: document.NewRefResolver()}
}

// Load resolves the named assistant for an environment: base document,
// environment override merge, environments key stripped, prompts and tool
// files attached.
func (l *Loader) Load(name, env string) (*Config, error) {
	base := filepath.Join(l.BaseDir, name)
	if _, err := os.Stat(base); err != nil {
		return nil, &document.NotFoundError{Path: base}
	}

	doc, err := document.Load(filepath.Join(base, ConfigFile))
	if err != nil {
		return nil, err
	}
	doc = document.ApplyEnvironment(doc, env)

	cfg := &Config{
		Name:         name,
		BasePath:     base,
		Doc:          doc,
		SystemPrompt: readPrompt(filepath.Join(base, "prompts", "system.md")),
		FirstMessage: readPrompt(filepath.Join(base, "prompts", "first_message.md")),
	}

	if cfg.Schemas, err = l.loadDocDir(filepath.Join(base, "schemas"), false); err != nil {
		return nil, err
	}
	if cfg.Tools, err = l.loadDocDir(filepath.Join(base, "tools"), true); err != nil {
		return nil, err
	}
	return cfg, nil
}

// List returns every assistant directory under the base dir, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether an assistant directory is present.
func (l *Loader) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(l.BaseDir, name))
	return err == nil
}

// Validate checks the required functional fields, reporting all missing
// fields at once.
func (c *Config) Validate() error {
	var missing []string
	for _, field := range []string{"name", "model", "voice"} {
		if _, ok := c.Doc[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &InvalidConfigError{Name: c.Name, Missing: missing}
	}
	return nil
}

func readPrompt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// loadDocDir loads every YAML/JSON document in a directory keyed by file
// stem. When resolveRefs is set, $ref entries inside each tool file's
// functions list are expanded through the reference resolver.
func (l *Loader) loadDocDir(dir string, resolveRefs bool) (map[string]document.Document, error) {
	docs := map[string]document.Document{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return docs, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		doc, err := document.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if resolveRefs {
			if doc, err = l.resolveFunctionRefs(doc); err != nil {
				return nil, err
			}
		}
		docs[strings.TrimSuffix(e.Name(), ext)] = doc
	}
	return docs, nil
}

func (l *Loader) resolveFunctionRefs(doc document.Document) (document.Document, error) {
	functions, ok := doc["functions"].([]any)
	if !ok {
		return doc, nil
	}
	resolved := make([]any, 0, len(functions))
	for _, fn := range functions {
		frag, ok := fn.(document.Document)
		if !ok {
			resolved = append(resolved, fn)
			continue
		}
		out, err := l.Refs.Resolve(frag)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, out)
	}
	out := make(document.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	out["functions"] = resolved
	return out, nil
}
