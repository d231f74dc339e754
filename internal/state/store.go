package state

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/tuannvm/agentctl/internal/document"
)

// NotDeployedError indicates a transition that requires an existing
// deployment, attempted against an entity with no live ID.
type NotDeployedError struct {
	Name        string
	Environment string
}

func (e *NotDeployedError) Error() string {
	return fmt.Sprintf("%s is not deployed to %s", e.Name, e.Environment)
}

// Store exposes the deployment state transitions for one entity kind.
type Store struct {
	backend Backend

	// now and actor are injectable for tests.
	now   func() time.Time
	actor func() string
}

// NewStore builds a store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		now:     time.Now,
		actor:   currentUser,
	}
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return "unknown"
}

// Get returns the deployment record for (name, env). An entity that exists
// but has never been deployed yields an empty record.
func (s *Store) Get(name, env string) (Record, error) {
	section, _, err := s.loadSection(name)
	if err != nil {
		return Record{}, err
	}
	return envRecord(section, env), nil
}

// IsDeployed reports whether the entity holds a live ID in env. A missing
// entity is simply not deployed.
func (s *Store) IsDeployed(name, env string) bool {
	rec, err := s.Get(name, env)
	if err != nil {
		return false
	}
	return rec.Deployed()
}

// MarkDeployed records a successful create against the remote platform.
// The version increments relative to the prior value for the environment,
// which may be nonzero after a deploy/undeploy/redeploy sequence.
func (s *Store) MarkDeployed(name, env, id, actor string) error {
	section, doc, err := s.loadSection(name)
	if err != nil {
		return err
	}
	prior := envRecord(section, env)
	if actor == "" {
		actor = s.actor()
	}
	now := s.now().UTC()
	rec := Record{
		ID:         id,
		DeployedAt: &now,
		DeployedBy: actor,
		Version:    prior.Version + 1,
	}
	setEnvRecord(section, env, rec)
	section["current_environment"] = env
	section["last_sync"] = now.Format(time.RFC3339)
	return s.save(name, doc, section)
}

// MarkUpdated bumps the version of an existing deployment, preserving its
// ID. It fails with *NotDeployedError when no live ID exists for env.
func (s *Store) MarkUpdated(name, env, actor string) error {
	section, doc, err := s.loadSection(name)
	if err != nil {
		return err
	}
	prior := envRecord(section, env)
	if !prior.Deployed() {
		return &NotDeployedError{Name: name, Environment: env}
	}
	if actor == "" {
		actor = s.actor()
	}
	now := s.now().UTC()
	rec := Record{
		ID:         prior.ID,
		DeployedAt: &now,
		DeployedBy: actor,
		Version:    prior.Version + 1,
	}
	setEnvRecord(section, env, rec)
	section["current_environment"] = env
	section["last_sync"] = now.Format(time.RFC3339)
	return s.save(name, doc, section)
}

// MarkUndeployed zeroes the record for env and clears the
// current-environment pointer when it pointed at env.
func (s *Store) MarkUndeployed(name, env string) error {
	section, doc, err := s.loadSection(name)
	if err != nil {
		return err
	}
	setEnvRecord(section, env, Record{})
	if cur, _ := section["current_environment"].(string); cur == env {
		section["current_environment"] = nil
	}
	section["last_sync"] = s.now().UTC().Format(time.RFC3339)
	return s.save(name, doc, section)
}

// CurrentEnvironment returns the entity's current-environment pointer.
func (s *Store) CurrentEnvironment(name string) (string, error) {
	section, _, err := s.loadSection(name)
	if err != nil {
		return "", err
	}
	cur, _ := section["current_environment"].(string)
	return cur, nil
}

// Deployments returns the record for every tracked environment.
func (s *Store) Deployments(name string) (map[string]Record, error) {
	section, _, err := s.loadSection(name)
	if err != nil {
		return nil, err
	}
	out := map[string]Record{}
	if envs, ok := section["environments"].(document.Document); ok {
		for env, raw := range envs {
			rec, _ := raw.(document.Document)
			out[env] = recordFromDoc(rec)
		}
	}
	return out, nil
}

// DeployedEnvironments lists the environments holding a live deployment,
// sorted. Custom environments count the same as the standard ones.
func (s *Store) DeployedEnvironments(name string) ([]string, error) {
	all, err := s.Deployments(name)
	if err != nil {
		return nil, err
	}
	var envs []string
	for env, rec := range all {
		if rec.Deployed() {
			envs = append(envs, env)
		}
	}
	sort.Strings(envs)
	return envs, nil
}

// List returns every entity known to the backend.
func (s *Store) List() ([]string, error) {
	return s.backend.List()
}

// Exists reports whether the entity's configuration document is present.
func (s *Store) Exists(name string) bool {
	_, err := s.backend.Load(name)
	return err == nil
}

// loadSection reads the entity document fresh and returns its state
// section, lazily initialized with empty records for every environment.
func (s *Store) loadSection(name string) (document.Document, document.Document, error) {
	doc, err := s.backend.Load(name)
	if err != nil {
		return nil, nil, err
	}
	section, ok := doc[StateKey].(document.Document)
	if !ok {
		section = emptyStateSection()
	}
	if _, ok := section["environments"].(document.Document); !ok {
		section["environments"] = document.Document{}
	}
	return section, doc, nil
}

func (s *Store) save(name string, doc, section document.Document) error {
	doc[StateKey] = section
	return s.backend.Save(name, doc)
}

func envRecord(section document.Document, env string) Record {
	envs, _ := section["environments"].(document.Document)
	raw, _ := envs[env].(document.Document)
	return recordFromDoc(raw)
}

func setEnvRecord(section document.Document, env string, rec Record) {
	envs, _ := section["environments"].(document.Document)
	envs[env] = rec.toDoc()
}
