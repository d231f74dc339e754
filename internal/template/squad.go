package template

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tuannvm/agentctl/internal/document"
)

// SquadTemplates instantiates squad directories from template trees.
type SquadTemplates struct {
	TemplatesDir string
	SquadsDir    string
}

func NewSquadTemplates(templatesDir, squadsDir string) *SquadTemplates {
	return &SquadTemplates{TemplatesDir: templatesDir, SquadsDir: squadsDir}
}

func (t *SquadTemplates) List() ([]string, error) {
	return dirNames(t.TemplatesDir)
}

func (t *SquadTemplates) Exists(name string) bool {
	info, err := os.Stat(filepath.Join(t.TemplatesDir, name))
	return err == nil && info.IsDir()
}

// SquadExists reports whether a squad directory is already present.
func (t *SquadTemplates) SquadExists(name string) bool {
	_, err := os.Stat(filepath.Join(t.SquadsDir, name))
	return err == nil
}

// Init materializes a squad directory from a template, substituting the
// squad name, description, environment and member list. With force, an
// existing squad directory is replaced wholesale.
func (t *SquadTemplates) Init(squadName, templateName string, members []string, description string, force bool, env string) (string, error) {
	if !ValidName(squadName) {
		return "", &InvalidNameError{Name: squadName}
	}
	if !t.Exists(templateName) {
		return "", &document.NotFoundError{Path: filepath.Join(t.TemplatesDir, templateName)}
	}

	target := filepath.Join(t.SquadsDir, squadName)
	if t.SquadExists(squadName) {
		if !force {
			return "", &ExistsError{Kind: "squad", Name: squadName}
		}
		if err := os.RemoveAll(target); err != nil {
			return "", err
		}
	}

	if description == "" {
		description = fmt.Sprintf("Squad %s", squadName)
	}
	vars := map[string]any{
		"squad_name":  squadName,
		"description": description,
		"assistants":  members,
		"env":         env,
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}
	if err := copyTree(filepath.Join(t.TemplatesDir, templateName), target, vars); err != nil {
		return "", err
	}
	return target, nil
}
