package template

import (
	"os"
	"path/filepath"

	"github.com/tuannvm/agentctl/internal/document"
)

// AssistantTemplates instantiates assistant directories from template
// trees.
type AssistantTemplates struct {
	TemplatesDir  string
	AssistantsDir string
}

func NewAssistantTemplates(templatesDir, assistantsDir string) *AssistantTemplates {
	return &AssistantTemplates{TemplatesDir: templatesDir, AssistantsDir: assistantsDir}
}

// List returns the available template names, sorted.
func (t *AssistantTemplates) List() ([]string, error) {
	return dirNames(t.TemplatesDir)
}

// Exists reports whether a template directory is present.
func (t *AssistantTemplates) Exists(name string) bool {
	info, err := os.Stat(filepath.Join(t.TemplatesDir, name))
	return err == nil && info.IsDir()
}

// Info describes a template: which conventional files it carries and the
// variables its files declare.
type Info struct {
	Name        string
	Files       map[string]bool
	Directories []string
	Variables   []string
	Description string
}

func (t *AssistantTemplates) Info(name string) (*Info, error) {
	path := filepath.Join(t.TemplatesDir, name)
	if !t.Exists(name) {
		return nil, &document.NotFoundError{Path: path}
	}

	info := &Info{Name: name, Files: map[string]bool{}}
	for _, f := range []string{"assistant.yaml", "prompts/system.md", "prompts/first_message.md"} {
		_, err := os.Stat(filepath.Join(path, f))
		info.Files[f] = err == nil
	}
	dirs, err := dirNames(path)
	if err != nil {
		return nil, err
	}
	info.Directories = dirs

	seen := map[string]bool{}
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		for _, v := range Variables(string(content)) {
			if !seen[v] {
				seen[v] = true
				info.Variables = append(info.Variables, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Init materializes a new assistant directory from a template. The
// assistant_name variable defaults to the target name.
func (t *AssistantTemplates) Init(assistantName, templateName string, force bool, vars map[string]any) error {
	if !ValidName(assistantName) {
		return &InvalidNameError{Name: assistantName}
	}
	if !t.Exists(templateName) {
		return &document.NotFoundError{Path: filepath.Join(t.TemplatesDir, templateName)}
	}

	target := filepath.Join(t.AssistantsDir, assistantName)
	if _, err := os.Stat(target); err == nil && !force {
		return &ExistsError{Kind: "assistant", Name: assistantName}
	}

	merged := map[string]any{"assistant_name": assistantName}
	for k, v := range vars {
		merged[k] = v
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	return copyTree(filepath.Join(t.TemplatesDir, templateName), target, merged)
}
