package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ManifestReport is the outcome of a validate-only manifest check.
type ManifestReport struct {
	Template    string
	Valid       bool
	Description string
	Assistants  int
	Tools       int
	Issues      []string
}

// ValidateManifest runs the full validation pass for a template without
// touching anything. Conflicts are ignored: only manifest and template
// problems count against readiness.
func (o *Orchestrator) ValidateManifest(templateName, env string) *ManifestReport {
	report := &ManifestReport{Template: templateName}
	manifest, err := o.validate("manifest-check", templateName, true, env)
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			report.Issues = validation.Issues
		} else {
			report.Issues = []string{err.Error()}
		}
		return report
	}
	report.Valid = true
	report.Description = manifest.Description
	report.Assistants = len(manifest.Assistants)
	report.Tools = len(manifest.Tools)
	return report
}

// TemplateStatus summarizes a squad template's bootstrap readiness.
type TemplateStatus struct {
	Name           string
	HasManifest    bool
	BootstrapReady bool
	Description    string
	Assistants     int
	Tools          int
}

// ListTemplates reports every squad template and whether bootstrap can
// run against it.
func (o *Orchestrator) ListTemplates(env string) ([]TemplateStatus, error) {
	names, err := o.SquadTemplates.List()
	if err != nil {
		return nil, err
	}
	statuses := make([]TemplateStatus, 0, len(names))
	for _, name := range names {
		status := TemplateStatus{Name: name}
		manifestPath := filepath.Join(o.SquadTemplates.TemplatesDir, name, ManifestFile)
		if _, err := os.Stat(manifestPath); err == nil {
			status.HasManifest = true
			if report := o.ValidateManifest(name, env); report.Valid {
				status.BootstrapReady = true
				status.Description = report.Description
				status.Assistants = report.Assistants
				status.Tools = report.Tools
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// RollbackSquad tears down a previously bootstrapped squad: remote
// deployments first, then the local squad and member assistant
// directories. Failures are collected, never stopping the sweep.
func (o *Orchestrator) RollbackSquad(ctx context.Context, squadName, env string) error {
	cfg, err := o.Squads.Load(squadName, env)
	if err != nil {
		return err
	}

	var errs []error
	undeploy := func(op undoOp) {
		if err := op.run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op.desc, err))
		}
	}

	if rec, err := o.SquadStates.Get(squadName, env); err == nil && rec.Deployed() {
		undeploy(o.undeploySquadOp(squadName, rec.ID, env))
	}
	members := cfg.MemberNames()
	for i := len(members) - 1; i >= 0; i-- {
		name := members[i]
		if rec, err := o.AssistantStates.Get(name, env); err == nil && rec.Deployed() {
			undeploy(o.undeployAssistantOp(name, rec.ID, env))
		}
	}

	for i := len(members) - 1; i >= 0; i-- {
		dir := filepath.Join(o.AssistantTemplates.AssistantsDir, members[i])
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", dir, err))
		}
	}
	if err := os.RemoveAll(cfg.BasePath); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", cfg.BasePath, err))
	}

	o.log.Info("squad rolled back",
		zap.String("squad", squadName),
		zap.String("environment", env),
		zap.Int("failures", len(errs)))
	return errors.Join(errs...)
}

// NotPromotableError reports a promotion whose source environment has no
// live squad deployment.
type NotPromotableError struct {
	Squad string
	From  string
}

func (e *NotPromotableError) Error() string {
	return fmt.Sprintf("squad %q is not deployed to %s; nothing to promote", e.Squad, e.From)
}

// Promote deploys an already-verified squad system into another
// environment: members first, then the squad itself.
func (o *Orchestrator) Promote(ctx context.Context, squadName, fromEnv, toEnv string) (*Checkpoint, error) {
	if !o.SquadStates.IsDeployed(squadName, fromEnv) {
		return nil, &NotPromotableError{Squad: squadName, From: fromEnv}
	}
	cfg, err := o.Squads.Load(squadName, toEnv)
	if err != nil {
		return nil, err
	}

	cp := newCheckpoint()
	var undo []undoOp
	fail := func(err error) error {
		exec := &ExecutionError{Phase: PhaseDeployment, Err: err}
		exec.Rollback = o.runUndo(ctx, undo)
		return exec
	}

	for _, name := range cfg.MemberNames() {
		if o.AssistantStates.IsDeployed(name, toEnv) {
			continue
		}
		id, err := o.deployAssistant(ctx, name, toEnv)
		if err != nil {
			return cp, fail(fmt.Errorf("promote assistant %q: %w", name, err))
		}
		cp.DeployedAssistants = append(cp.DeployedAssistants, name)
		cp.markStep("deploy_assistant_" + name)
		undo = append(undo, o.undeployAssistantOp(name, id, toEnv))
	}

	if _, err := o.DeploySquad(ctx, squadName, toEnv); err != nil {
		return cp, fail(fmt.Errorf("promote squad %q: %w", squadName, err))
	}
	cp.DeployedSquad = squadName
	cp.markStep("deploy_squad_" + squadName)
	cp.markPhase(PhaseCompleted)

	o.log.Info("squad promoted",
		zap.String("squad", squadName),
		zap.String("from", fromEnv),
		zap.String("to", toEnv))
	return cp, nil
}
