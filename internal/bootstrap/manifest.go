// Package bootstrap orchestrates full squad provisioning: shared tools,
// assistants and the squad itself, created from templates and optionally
// deployed, with rollback on failure.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tuannvm/agentctl/internal/document"
)

// ManifestFile is the bootstrap descriptor inside a squad template dir.
const ManifestFile = "manifest.yaml"

// ManifestAssistant is one assistant declaration in a manifest.
type ManifestAssistant struct {
	Name            string         `yaml:"name"`
	Template        string         `yaml:"template"`
	Role            string         `yaml:"role,omitempty"`
	ConfigOverrides map[string]any `yaml:"config_overrides,omitempty"`
	RequiredTools   []string       `yaml:"required_tools,omitempty"`
}

// ManifestTool is one shared-tool declaration in a manifest.
type ManifestTool struct {
	Name        string         `yaml:"name"`
	Template    string         `yaml:"template"`
	Variables   map[string]any `yaml:"variables,omitempty"`
	Description string         `yaml:"description,omitempty"`
}

// Manifest describes everything a squad template provisions.
type Manifest struct {
	Description  string              `yaml:"description"`
	Assistants   []ManifestAssistant `yaml:"assistants"`
	Tools        []ManifestTool      `yaml:"tools,omitempty"`
	Metadata     map[string]any      `yaml:"metadata,omitempty"`
	Deployment   map[string]any      `yaml:"deployment,omitempty"`
	Environments document.Document   `yaml:"environments,omitempty"`
}

// ValidationError carries every problem found in one validation pass.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation failed:\n  %s", strings.Join(e.Issues, "\n  "))
}

// ConflictError lists resources that already exist and would be
// overwritten without force.
type ConflictError struct {
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("existing resources conflict with bootstrap:\n  %s", strings.Join(e.Conflicts, "\n  "))
}

// ParseManifest decodes and structurally validates manifest content.
// Every missing or invalid field is reported in a single error.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{Issues: []string{"invalid YAML: " + err.Error()}}
	}

	var issues []string
	if m.Description == "" {
		issues = append(issues, "description is required")
	}
	if len(m.Assistants) == 0 {
		issues = append(issues, "at least one assistant must be defined")
	}
	for i, a := range m.Assistants {
		if a.Name == "" {
			issues = append(issues, fmt.Sprintf("assistants[%d]: name is required", i))
		}
		if a.Template == "" {
			issues = append(issues, fmt.Sprintf("assistants[%d]: template is required", i))
		}
	}
	for i, t := range m.Tools {
		if t.Name == "" {
			issues = append(issues, fmt.Sprintf("tools[%d]: name is required", i))
		}
		if t.Template == "" {
			issues = append(issues, fmt.Sprintf("tools[%d]: template is required", i))
		}
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return &m, nil
}

// LoadManifest reads the manifest from a squad template directory.
func LoadManifest(templateDir string) (*Manifest, error) {
	path := filepath.Join(templateDir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &document.NotFoundError{Path: path}
		}
		return nil, err
	}
	return ParseManifest(data)
}

// DeclaresTool reports whether the manifest defines a tool by name.
func (m *Manifest) DeclaresTool(name string) bool {
	for _, t := range m.Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// DeclaresAssistant reports whether the manifest defines an assistant.
func (m *Manifest) DeclaresAssistant(name string) bool {
	for _, a := range m.Assistants {
		if a.Name == name {
			return true
		}
	}
	return false
}
