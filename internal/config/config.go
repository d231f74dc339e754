// Package config loads the optional project configuration file that
// customizes the on-disk layout and the default target environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config describes where a project keeps its resources. Paths are
// relative to the project root unless absolute.
type Config struct {
	AssistantsDir      string `yaml:"assistants_dir"`
	SquadsDir          string `yaml:"squads_dir"`
	TemplatesDir       string `yaml:"templates_dir"`
	SharedToolsDir     string `yaml:"shared_tools_dir"`
	DefaultEnvironment string `yaml:"default_environment"`
}

// Default returns the conventional layout used when no config file exists.
func Default() *Config {
	return &Config{
		AssistantsDir:      "assistants",
		SquadsDir:          "squads",
		TemplatesDir:       "templates",
		SharedToolsDir:     filepath.Join("shared", "tools"),
		DefaultEnvironment: "development",
	}
}

// Load reads the project config from root. Lookup order:
//  1. <root>/.agentctl/config.yaml
//  2. <root>/.agentctl/config.yml
//  3. <root>/agentctl.yaml
//
// A missing file is not an error; defaults apply. Environment variables
// override whatever was loaded.
func Load(root string) (*Config, error) {
	cfg := Default()

	candidates := []string{
		filepath.Join(root, ".agentctl", "config.yaml"),
		filepath.Join(root, ".agentctl", "config.yml"),
		filepath.Join(root, "agentctl.yaml"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		break
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AGENTCTL_ASSISTANTS_DIR"); v != "" {
		c.AssistantsDir = v
	}
	if v := os.Getenv("AGENTCTL_SQUADS_DIR"); v != "" {
		c.SquadsDir = v
	}
	if v := os.Getenv("AGENTCTL_TEMPLATES_DIR"); v != "" {
		c.TemplatesDir = v
	}
	if v := os.Getenv("AGENTCTL_SHARED_TOOLS_DIR"); v != "" {
		c.SharedToolsDir = v
	}
	if v := os.Getenv("AGENTCTL_DEFAULT_ENV"); v != "" {
		c.DefaultEnvironment = v
	}
}

// fillDefaults backfills fields a partial config file left empty.
func (c *Config) fillDefaults() {
	def := Default()
	if c.AssistantsDir == "" {
		c.AssistantsDir = def.AssistantsDir
	}
	if c.SquadsDir == "" {
		c.SquadsDir = def.SquadsDir
	}
	if c.TemplatesDir == "" {
		c.TemplatesDir = def.TemplatesDir
	}
	if c.SharedToolsDir == "" {
		c.SharedToolsDir = def.SharedToolsDir
	}
	if c.DefaultEnvironment == "" {
		c.DefaultEnvironment = def.DefaultEnvironment
	}
}

// Resolve joins a configured directory to root unless it is absolute.
func Resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
