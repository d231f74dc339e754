// Package state tracks where, when, and at what version each entity is
// deployed. State lives in a reserved subtree of the entity's own
// configuration document and every transition is a full read-modify-write
// against the injected backend.
package state

import (
	"time"

	"github.com/tuannvm/agentctl/internal/document"
)

// StateKey is the reserved top-level key holding deployment state inside an
// entity document. It never collides with functional fields.
const StateKey = "_state"

// Environments are the deployment targets tracked for every entity.
var Environments = []string{"development", "staging", "production"}

// Record describes one entity's deployment in one environment.
type Record struct {
	ID         string     `yaml:"id"`
	DeployedAt *time.Time `yaml:"deployed_at"`
	DeployedBy string     `yaml:"deployed_by"`
	Version    int        `yaml:"version"`
}

// Deployed reports whether the record carries a live platform ID.
func (r Record) Deployed() bool { return r.ID != "" }

func recordFromDoc(doc document.Document) Record {
	rec := Record{}
	if doc == nil {
		return rec
	}
	if id, ok := doc["id"].(string); ok {
		rec.ID = id
	}
	if by, ok := doc["deployed_by"].(string); ok {
		rec.DeployedBy = by
	}
	switch v := doc["version"].(type) {
	case int:
		rec.Version = v
	case int64:
		rec.Version = int(v)
	case float64:
		rec.Version = int(v)
	}
	if at, ok := doc["deployed_at"].(string); ok && at != "" {
		if ts, err := time.Parse(time.RFC3339, at); err == nil {
			rec.DeployedAt = &ts
		}
	}
	return rec
}

func (r Record) toDoc() document.Document {
	doc := document.Document{
		"id":          nil,
		"deployed_at": nil,
		"deployed_by": nil,
		"version":     r.Version,
	}
	if r.ID != "" {
		doc["id"] = r.ID
	}
	if r.DeployedBy != "" {
		doc["deployed_by"] = r.DeployedBy
	}
	if r.DeployedAt != nil {
		doc["deployed_at"] = r.DeployedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

func emptyStateSection() document.Document {
	envs := document.Document{}
	for _, env := range Environments {
		envs[env] = Record{}.toDoc()
	}
	return document.Document{
		"environments":        envs,
		"current_environment": nil,
		"last_sync":           nil,
	}
}
