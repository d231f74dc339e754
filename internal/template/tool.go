package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tuannvm/agentctl/internal/document"
)

// InvalidToolError lists everything wrong with a rendered tool document.
type InvalidToolError struct {
	Name     string
	Problems []string
}

func (e *InvalidToolError) Error() string {
	return fmt.Sprintf("tool %q is invalid: %s", e.Name, strings.Join(e.Problems, "; "))
}

// ToolTemplates renders single-file shared-tool definitions.
type ToolTemplates struct {
	TemplatesDir string
	OutputDir    string
}

func NewToolTemplates(templatesDir, outputDir string) *ToolTemplates {
	return &ToolTemplates{TemplatesDir: templatesDir, OutputDir: outputDir}
}

func (t *ToolTemplates) templatePath(name string) string {
	return filepath.Join(t.TemplatesDir, name+".yaml")
}

// List returns the available tool template stems, sorted.
func (t *ToolTemplates) List() ([]string, error) {
	entries, err := os.ReadDir(t.TemplatesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (t *ToolTemplates) Exists(name string) bool {
	_, err := os.Stat(t.templatePath(name))
	return err == nil
}

// ToolExists reports whether a rendered tool file already exists.
func (t *ToolTemplates) ToolExists(name string) bool {
	_, err := os.Stat(filepath.Join(t.OutputDir, name+".yaml"))
	return err == nil
}

var descriptionComment = regexp.MustCompile(`(?m)^#\s*Description:\s*(.+)$`)

// Info returns the declared variables and the description comment of a
// tool template.
func (t *ToolTemplates) Info(name string) (*Info, error) {
	content, err := os.ReadFile(t.templatePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &document.NotFoundError{Path: t.templatePath(name)}
		}
		return nil, err
	}
	info := &Info{Name: name, Variables: Variables(string(content))}
	if m := descriptionComment.FindSubmatch(content); m != nil {
		info.Description = strings.TrimSpace(string(m[1]))
	}
	return info, nil
}

// Preview renders a tool without writing it.
func (t *ToolTemplates) Preview(toolName, templateName string, vars map[string]any) (string, error) {
	content, err := os.ReadFile(t.templatePath(templateName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", &document.NotFoundError{Path: t.templatePath(templateName)}
		}
		return "", err
	}
	return Render(string(content), toolVariables(toolName, vars)), nil
}

// Create renders and validates a shared tool, then writes it to the
// output dir.
func (t *ToolTemplates) Create(toolName, templateName string, force bool, vars map[string]any) (string, error) {
	if !ValidName(toolName) {
		return "", &InvalidNameError{Name: toolName}
	}
	if t.ToolExists(toolName) && !force {
		return "", &ExistsError{Kind: "tool", Name: toolName}
	}

	rendered, err := t.Preview(toolName, templateName, vars)
	if err != nil {
		return "", err
	}
	if err := ValidateTool(toolName, rendered); err != nil {
		return "", err
	}

	if err := os.MkdirAll(t.OutputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(t.OutputDir, toolName+".yaml")
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ValidateTool checks a rendered tool document and reports every problem
// at once.
func ValidateTool(name, rendered string) error {
	var doc document.Document
	if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
		return &InvalidToolError{Name: name, Problems: []string{"not valid YAML: " + err.Error()}}
	}

	var problems []string
	if n, _ := doc["name"].(string); n == "" {
		problems = append(problems, "name must be a non-empty string")
	}
	if d, _ := doc["description"].(string); d == "" {
		problems = append(problems, "description must be a non-empty string")
	}
	params, ok := doc["parameters"].(document.Document)
	switch {
	case doc["parameters"] == nil:
		problems = append(problems, "parameters is required")
	case !ok:
		problems = append(problems, "parameters must be an object")
	case params["type"] != "object":
		problems = append(problems, `parameters type must be "object"`)
	}
	if server, ok := doc["server"].(document.Document); ok {
		url, _ := server["url"].(string)
		switch {
		case url == "":
			problems = append(problems, "server url must be a non-empty string")
		case !strings.HasPrefix(url, "http") && !strings.HasPrefix(url, "wss") && !strings.HasPrefix(url, "${"):
			problems = append(problems, "server url must start with http, https, wss or an environment variable")
		}
	}

	if len(problems) > 0 {
		return &InvalidToolError{Name: name, Problems: problems}
	}
	return nil
}

// toolVariables derives the default substitution set for a tool name.
func toolVariables(toolName string, user map[string]any) map[string]any {
	vars := map[string]any{
		"tool_name":       toolName,
		"tool_name_upper": strings.ToUpper(strings.ReplaceAll(toolName, "-", "_")),
		"tool_name_camel": toCamel(toolName),
	}
	for k, v := range user {
		if v != nil {
			vars[k] = v
		}
	}
	return vars
}

func toCamel(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) == 0 {
		return s
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += strings.ToUpper(p[:1]) + p[1:]
	}
	return out
}
