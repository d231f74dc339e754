package squad

import (
	"fmt"

	"github.com/tuannvm/agentctl/internal/document"
	"github.com/tuannvm/agentctl/internal/state"
)

// UndeployedMemberError reports a squad member that has no deployment
// record in the requested environment.
type UndeployedMemberError struct {
	Assistant   string
	Environment string
}

func (e *UndeployedMemberError) Error() string {
	return fmt.Sprintf("assistant %q is not deployed to %s", e.Assistant, e.Environment)
}

// Builder assembles squad create requests, resolving member assistant
// names to platform IDs through the deployment state store.
type Builder struct {
	States *state.Store
}

func NewBuilder(states *state.Store) *Builder {
	return &Builder{States: states}
}

// Build materializes the remote creation payload for a squad. Every
// member must already be deployed in the target environment.
func (b *Builder) Build(cfg *Config, env string) (document.Document, error) {
	members, err := b.buildMembers(cfg, env)
	if err != nil {
		return nil, err
	}

	// The directory name wins over an unrendered template placeholder.
	name := cfg.Name
	if n, ok := cfg.Doc["name"].(string); ok && n != "" && !isPlaceholder(n) {
		name = n
	}

	return document.Document{
		"name":    name,
		"members": members,
	}, nil
}

func (b *Builder) buildMembers(cfg *Config, env string) ([]document.Document, error) {
	var members []document.Document
	for _, mc := range cfg.Members {
		assistantName, _ := mc["assistant_name"].(string)
		if assistantName == "" {
			continue
		}

		id, err := b.resolveID(assistantName, env)
		if err != nil {
			return nil, err
		}

		member := document.Document{"assistantId": id}
		if dests := b.buildDestinations(mc, env); len(dests) > 0 {
			member["assistantDestinations"] = dests
		}
		if overrides := buildOverrides(mc, cfg.Overrides); len(overrides) > 0 {
			member["assistantOverrides"] = overrides
		}
		members = append(members, member)
	}
	return members, nil
}

func (b *Builder) resolveID(name, env string) (string, error) {
	rec, err := b.States.Get(name, env)
	if err != nil || !rec.Deployed() {
		return "", &UndeployedMemberError{Assistant: name, Environment: env}
	}
	return rec.ID, nil
}

// buildDestinations keeps only assistant-type destinations whose target
// is deployed. Routing conditions stay local; the platform does not
// accept them.
func (b *Builder) buildDestinations(member document.Document, env string) []document.Document {
	raw, _ := member["destinations"].([]any)
	var dests []document.Document
	for _, d := range raw {
		dc, ok := d.(document.Document)
		if !ok || dc["type"] != "assistant" {
			continue
		}
		target, _ := dc["assistant_name"].(string)
		if target == "" {
			continue
		}
		if _, err := b.resolveID(target, env); err != nil {
			continue
		}
		dest := document.Document{
			"type":          "assistant",
			"assistantName": target,
			"transferMode":  "rolling-history",
			"message":       "",
		}
		if desc, ok := dc["description"]; ok {
			dest["description"] = desc
		}
		dests = append(dests, dest)
	}
	return dests
}

// buildOverrides layers member-specific overrides on top of the squad's
// default_overrides fragment.
func buildOverrides(member document.Document, fragments map[string]document.Document) document.Document {
	overrides := document.Document{}
	for _, frag := range fragments {
		if defaults, ok := frag["default_overrides"].(document.Document); ok {
			overrides = document.Merge(overrides, defaults)
		}
	}
	if own, ok := member["overrides"].(document.Document); ok {
		overrides = document.Merge(overrides, own)
	}
	return overrides
}

func isPlaceholder(s string) bool {
	return len(s) >= 4 && s[:2] == "{{"
}
