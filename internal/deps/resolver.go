// Package deps checks and repairs a squad's assistant dependencies
// before squad-level operations run.
package deps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tuannvm/agentctl/internal/api"
	"github.com/tuannvm/agentctl/internal/assistant"
	"github.com/tuannvm/agentctl/internal/squad"
	"github.com/tuannvm/agentctl/internal/state"
)

// Confirmer asks the operator to approve an action. Implementations
// include the interactive TTY prompt and scripted fakes for tests.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) (bool, error)

func (f ConfirmerFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Resolver finds squad members without a live deployment and can deploy
// them on demand.
type Resolver struct {
	Squads     *squad.Loader
	Assistants *assistant.Loader
	States     *state.Store
	Platform   api.Platform
	Confirm    Confirmer
	Actor      string

	log *zap.Logger
}

func NewResolver(squads *squad.Loader, assistants *assistant.Loader, states *state.Store, platform api.Platform, confirm Confirmer, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		Squads:     squads,
		Assistants: assistants,
		States:     states,
		Platform:   platform,
		Confirm:    confirm,
		log:        log,
	}
}

// CheckMissing returns the squad members with no deployment in env, in
// declaration order.
func (r *Resolver) CheckMissing(squadName, env string) ([]string, error) {
	cfg, err := r.Squads.Load(squadName, env)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, name := range cfg.MemberNames() {
		if !r.States.IsDeployed(name, env) {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// DeployMissing deploys every undeployed member. A declined confirmation
// reports all missing members as failed without attempting any. Partial
// failure is data, not an error: the error return covers only squad
// loading and confirmation transport.
func (r *Resolver) DeployMissing(ctx context.Context, squadName, env string, force bool) (succeeded, failed []string, err error) {
	missing, err := r.CheckMissing(squadName, env)
	if err != nil {
		return nil, nil, err
	}
	if len(missing) == 0 {
		return nil, nil, nil
	}

	if !force && r.Confirm != nil {
		ok, err := r.Confirm.Confirm(fmt.Sprintf("Deploy %d missing assistant(s) to %s?", len(missing), env))
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, missing, nil
		}
	}

	for _, name := range missing {
		if err := r.deployOne(ctx, name, env); err != nil {
			r.log.Warn("dependency deploy failed",
				zap.String("assistant", name),
				zap.String("environment", env),
				zap.Error(err))
			failed = append(failed, name)
			continue
		}
		r.log.Info("dependency deployed",
			zap.String("assistant", name),
			zap.String("environment", env))
		succeeded = append(succeeded, name)
	}
	return succeeded, failed, nil
}

// EnsureDependencies reports whether the squad's members are all deployed,
// deploying them first when autoDeploy is set.
func (r *Resolver) EnsureDependencies(ctx context.Context, squadName, env string, autoDeploy, force bool) (bool, error) {
	missing, err := r.CheckMissing(squadName, env)
	if err != nil {
		return false, err
	}
	if len(missing) == 0 {
		return true, nil
	}
	if !autoDeploy {
		return false, nil
	}
	_, failed, err := r.DeployMissing(ctx, squadName, env, force)
	if err != nil {
		return false, err
	}
	return len(failed) == 0, nil
}

func (r *Resolver) deployOne(ctx context.Context, name, env string) error {
	cfg, err := r.Assistants.Load(name, env)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	created, err := r.Platform.CreateAssistant(ctx, assistant.BuildCreateRequest(cfg))
	if err != nil {
		return err
	}
	return r.States.MarkDeployed(name, env, created.ID, r.Actor)
}
