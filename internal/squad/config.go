// Package squad loads squad configurations and builds the platform
// payloads that wire deployed assistants together.
package squad

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tuannvm/agentctl/internal/document"
)

// ConfigFile is the base document inside each squad directory.
const ConfigFile = "squad.yaml"

// Config is a fully loaded squad: base document with environment overrides
// applied, member list, and optional override/routing fragments.
type Config struct {
	Name      string
	BasePath  string
	Doc       document.Document
	Members   []document.Document
	Overrides map[string]document.Document
	Routing   map[string]document.Document
}

// MemberNames returns the assistant name of every member, in declaration
// order. Members without an assistant_name are skipped.
func (c *Config) MemberNames() []string {
	var names []string
	for _, m := range c.Members {
		if name, ok := m["assistant_name"].(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Loader reads squad configurations from a base directory.
type Loader struct {
	BaseDir string
}

func NewLoader(baseDir string) *Loader {
	return &Loader{BaseDir: baseDir}
}

// Load resolves the named squad for an environment.
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

	members, err := loadMembers(filepath.Join(base, "members.yaml"))
	if err != nil {
		return nil, err
	}
	overrides, err := loadFragmentDir(filepath.Join(base, "overrides"))
	if err != nil {
		return nil, err
	}
	routing, err := loadFragmentDir(filepath.Join(base, "routing"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Name:      name,
		BasePath:  base,
		Doc:       doc,
		Members:   members,
		Overrides: overrides,
		Routing:   routing,
	}, nil
}

// List returns every squad directory under the base dir, sorted.
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

// Exists reports whether a squad directory is present.
func (l *Loader) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(l.BaseDir, name))
	return err == nil
}

func loadMembers(path string) ([]document.Document, error) {
	doc, err := document.Load(path)
	if err != nil {
		var notFound *document.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	raw, _ := doc["members"].([]any)
	members := make([]document.Document, 0, len(raw))
	for _, m := range raw {
		if member, ok := m.(document.Document); ok {
			members = append(members, member)
		}
	}
	return members, nil
}

func loadFragmentDir(dir string) (map[string]document.Document, error) {
	fragments := map[string]document.Document{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fragments, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		doc, err := document.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		fragments[strings.TrimSuffix(e.Name(), ".yaml")] = doc
	}
	return fragments, nil
}
