package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuannvm/agentctl/internal/state"
)

// RenderStatus formats an entity's per-environment deployment records
// for terminal output.
func RenderStatus(name string, records map[string]state.Record) string {
	var b strings.Builder
	b.WriteString(TitleStyle().Render(name))
	b.WriteString("\n")

	envs := make([]string, 0, len(records))
	for env := range records {
		envs = append(envs, env)
	}
	sort.Strings(envs)

	for _, env := range envs {
		rec := records[env]
		if !rec.Deployed() {
			b.WriteString(MutedStyle().Render(fmt.Sprintf("  %-12s not deployed", env)))
			b.WriteString("\n")
			continue
		}
		line := fmt.Sprintf("  %-12s %s (v%d", env, rec.ID, rec.Version)
		if rec.DeployedAt != nil {
			line += ", " + rec.DeployedAt.Format("2006-01-02 15:04")
		}
		if rec.DeployedBy != "" {
			line += ", by " + rec.DeployedBy
		}
		line += ")"
		b.WriteString(SuccessStyle().Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderList formats a name list with a styled header.
func RenderList(header string, names []string) string {
	var b strings.Builder
	b.WriteString(TitleStyle().Render(header))
	b.WriteString("\n")
	if len(names) == 0 {
		b.WriteString(MutedStyle().Render("  (none)"))
		b.WriteString("\n")
		return b.String()
	}
	for _, name := range names {
		b.WriteString("  " + name + "\n")
	}
	return b.String()
}
