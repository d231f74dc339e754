// Package template instantiates assistant, squad and shared-tool
// scaffolding from on-disk template trees.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tuannvm/agentctl/internal/document"
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	varPattern  = regexp.MustCompile(`\{\{([^}]+)\}\}`)
)

// InvalidNameError reports an entity name outside [A-Za-z0-9_-]+.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: only letters, numbers, hyphens and underscores are allowed", e.Name)
}

// ExistsError reports a target that already exists and force was not set.
type ExistsError struct {
	Kind string
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// ValidName reports whether name is usable as a directory or file stem.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Render substitutes {{var}} placeholders and then ${ENV} references.
// Placeholders support a fallback ({{var|default}}), list indexing
// ({{members[0]}}) and comma-joined list interpolation.
func Render(content string, vars map[string]any) string {
	out := varPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := strings.TrimSpace(varPattern.FindStringSubmatch(match)[1])

		name, fallback := expr, ""
		if i := strings.Index(expr, "|"); i >= 0 {
			name = strings.TrimSpace(expr[:i])
			fallback = strings.TrimSpace(expr[i+1:])
		}

		if open := strings.Index(name, "["); open >= 0 && strings.HasSuffix(name, "]") {
			base := name[:open]
			idx, err := strconv.Atoi(name[open+1 : len(name)-1])
			list, ok := vars[base].([]string)
			if err != nil || !ok || idx < 0 || idx >= len(list) {
				return fallback
			}
			return list[idx]
		}

		value, ok := vars[name]
		if !ok {
			return fallback
		}
		if list, ok := value.([]string); ok {
			return strings.Join(list, ",")
		}
		return fmt.Sprint(value)
	})
	return document.ExpandVars(out)
}

// Variables lists the distinct placeholder names in content, sorted.
func Variables(content string) []string {
	seen := map[string]bool{}
	for _, m := range varPattern.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if i := strings.Index(name, "|"); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		if i := strings.Index(name, "["); i >= 0 {
			name = name[:i]
		}
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// copyTree renders every file under src into dst, keeping the layout.
func copyTree(src, dst string, vars map[string]any) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, []byte(Render(string(content), vars)), 0o644)
	})
}

func dirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
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
