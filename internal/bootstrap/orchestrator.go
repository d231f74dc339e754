package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tuannvm/agentctl/internal/api"
	"github.com/tuannvm/agentctl/internal/assistant"
	"github.com/tuannvm/agentctl/internal/document"
	"github.com/tuannvm/agentctl/internal/squad"
	"github.com/tuannvm/agentctl/internal/state"
	"github.com/tuannvm/agentctl/internal/template"
)

// Options configure a bootstrap run.
type Options struct {
	Deploy            bool
	Environment       string
	DryRun            bool
	Force             bool
	RollbackOnFailure bool
}

// Orchestrator drives the phased creation and deployment of a complete
// squad system.
type Orchestrator struct {
	AssistantTemplates *template.AssistantTemplates
	SquadTemplates     *template.SquadTemplates
	ToolTemplates      *template.ToolTemplates
	Assistants         *assistant.Loader
	Squads             *squad.Loader
	AssistantStates    *state.Store
	SquadStates        *state.Store
	Platform           api.Platform
	Actor              string

	log *zap.Logger
}

func NewOrchestrator(
	assistantTemplates *template.AssistantTemplates,
	squadTemplates *template.SquadTemplates,
	toolTemplates *template.ToolTemplates,
	assistants *assistant.Loader,
	squads *squad.Loader,
	assistantStates, squadStates *state.Store,
	platform api.Platform,
	log *zap.Logger,
) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		AssistantTemplates: assistantTemplates,
		SquadTemplates:     squadTemplates,
		ToolTemplates:      toolTemplates,
		Assistants:         assistants,
		Squads:             squads,
		AssistantStates:    assistantStates,
		SquadStates:        squadStates,
		Platform:           platform,
		log:                log,
	}
}

// undoOp is one compensating action recorded after a forward step
// succeeds. On rollback the ops run in strict reverse order.
type undoOp struct {
	desc string
	run  func(ctx context.Context) error
}

// Bootstrap provisions a squad system from a template. Phases run in
// strict order; any failure after validation triggers rollback (when
// enabled) and surfaces as an *ExecutionError carrying the phase.
func (o *Orchestrator) Bootstrap(ctx context.Context, squadName, templateName string, opts Options) (*Checkpoint, error) {
	if opts.Environment == "" {
		opts.Environment = "development"
	}
	cp := newCheckpoint()
	var undo []undoOp

	fail := func(phase Phase, err error) error {
		exec := &ExecutionError{Phase: phase, Err: err}
		if opts.RollbackOnFailure {
			o.log.Warn("bootstrap failed, rolling back",
				zap.String("squad", squadName),
				zap.String("phase", string(phase)),
				zap.Error(err))
			exec.Rollback = o.runUndo(ctx, undo)
		}
		return exec
	}

	manifest, err := o.validate(squadName, templateName, opts.Force, opts.Environment)
	if err != nil {
		return cp, err
	}
	cp.markPhase(PhaseValidation)

	if opts.DryRun {
		cp.Preview = renderPreview(squadName, manifest)
		return cp, nil
	}

	if len(manifest.Tools) > 0 {
		for _, tool := range manifest.Tools {
			path, err := o.ToolTemplates.Create(tool.Name, tool.Template, opts.Force, tool.Variables)
			if err != nil {
				return cp, fail(PhaseToolsCreation, fmt.Errorf("tool %q: %w", tool.Name, err))
			}
			cp.CreatedTools = append(cp.CreatedTools, tool.Name)
			cp.markStep("tool_" + tool.Name)
			undo = append(undo, undoOp{
				desc: "remove tool file " + path,
				run:  func(context.Context) error { return os.Remove(path) },
			})
			o.log.Info("tool created", zap.String("tool", tool.Name))
		}
		cp.markPhase(PhaseToolsCreation)
	}

	for _, a := range manifest.Assistants {
		if err := o.AssistantTemplates.Init(a.Name, a.Template, opts.Force, a.ConfigOverrides); err != nil {
			return cp, fail(PhaseAssistantsCreation, fmt.Errorf("assistant %q: %w", a.Name, err))
		}
		cp.CreatedAssistants = append(cp.CreatedAssistants, a.Name)
		cp.markStep("assistant_" + a.Name)
		dir := filepath.Join(o.AssistantTemplates.AssistantsDir, a.Name)
		undo = append(undo, undoOp{
			desc: "remove assistant dir " + dir,
			run:  func(context.Context) error { return os.RemoveAll(dir) },
		})
		o.log.Info("assistant created", zap.String("assistant", a.Name))
	}
	cp.markPhase(PhaseAssistantsCreation)

	// The squad wires only what this run actually created.
	squadDir, err := o.SquadTemplates.Init(squadName, templateName, cp.CreatedAssistants, manifest.Description, opts.Force, opts.Environment)
	if err != nil {
		return cp, fail(PhaseSquadCreation, err)
	}
	cp.CreatedSquad = squadName
	cp.markStep("squad_" + squadName)
	undo = append(undo, undoOp{
		desc: "remove squad dir " + squadDir,
		run:  func(context.Context) error { return os.RemoveAll(squadDir) },
	})
	cp.markPhase(PhaseSquadCreation)
	o.log.Info("squad created", zap.String("squad", squadName))

	if opts.Deploy {
		for _, name := range cp.CreatedAssistants {
			id, err := o.deployAssistant(ctx, name, opts.Environment)
			if err != nil {
				return cp, fail(PhaseDeployment, fmt.Errorf("deploy assistant %q: %w", name, err))
			}
			cp.DeployedAssistants = append(cp.DeployedAssistants, name)
			cp.markStep("deploy_assistant_" + name)
			undo = append(undo, o.undeployAssistantOp(name, id, opts.Environment))
		}

		id, err := o.DeploySquad(ctx, squadName, opts.Environment)
		if err != nil {
			return cp, fail(PhaseDeployment, fmt.Errorf("deploy squad %q: %w", squadName, err))
		}
		cp.DeployedSquad = squadName
		cp.markStep("deploy_squad_" + squadName)
		undo = append(undo, o.undeploySquadOp(squadName, id, opts.Environment))
		cp.markPhase(PhaseDeployment)
	}

	cp.markPhase(PhaseCompleted)
	return cp, nil
}

// runUndo executes compensating actions newest-first. Individual
// failures are collected, never stopping the sweep.
func (o *Orchestrator) runUndo(ctx context.Context, undo []undoOp) error {
	var errs []error
	for i := len(undo) - 1; i >= 0; i-- {
		op := undo[i]
		o.log.Info("rollback", zap.String("action", op.desc))
		if err := op.run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op.desc, err))
		}
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) undeployAssistantOp(name, id, env string) undoOp {
	return undoOp{
		desc: fmt.Sprintf("undeploy assistant %s from %s", name, env),
		run: func(ctx context.Context) error {
			if err := o.Platform.DeleteAssistant(ctx, id); err != nil && !api.IsNotFound(err) {
				return err
			}
			return o.AssistantStates.MarkUndeployed(name, env)
		},
	}
}

func (o *Orchestrator) undeploySquadOp(name, id, env string) undoOp {
	return undoOp{
		desc: fmt.Sprintf("undeploy squad %s from %s", name, env),
		run: func(ctx context.Context) error {
			if err := o.Platform.DeleteSquad(ctx, id); err != nil && !api.IsNotFound(err) {
				return err
			}
			return o.SquadStates.MarkUndeployed(name, env)
		},
	}
}

func (o *Orchestrator) deployAssistant(ctx context.Context, name, env string) (string, error) {
	cfg, err := o.Assistants.Load(name, env)
	if err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	created, err := o.Platform.CreateAssistant(ctx, assistant.BuildCreateRequest(cfg))
	if err != nil {
		return "", err
	}
	if err := o.AssistantStates.MarkDeployed(name, env, created.ID, o.Actor); err != nil {
		return "", err
	}
	return created.ID, nil
}

// DeploySquad builds the squad payload from deployed members, creates it
// remotely and records the deployment.
func (o *Orchestrator) DeploySquad(ctx context.Context, name, env string) (string, error) {
	cfg, err := o.Squads.Load(name, env)
	if err != nil {
		return "", err
	}
	payload, err := squad.NewBuilder(o.AssistantStates).Build(cfg, env)
	if err != nil {
		return "", err
	}
	created, err := o.Platform.CreateSquad(ctx, payload)
	if err != nil {
		return "", err
	}
	if err := o.SquadStates.MarkDeployed(name, env, created.ID, o.Actor); err != nil {
		return "", err
	}
	return created.ID, nil
}

// validate loads the manifest and collects every validation issue before
// reporting. Conflicts are checked last and reported separately.
func (o *Orchestrator) validate(squadName, templateName string, force bool, env string) (*Manifest, error) {
	if !o.SquadTemplates.Exists(templateName) {
		available, _ := o.SquadTemplates.List()
		return nil, &ValidationError{Issues: []string{
			fmt.Sprintf("squad template %q not found (available: %s)", templateName, strings.Join(available, ", ")),
		}}
	}

	templateDir := filepath.Join(o.SquadTemplates.TemplatesDir, templateName)
	manifest, err := LoadManifest(templateDir)
	if err != nil {
		var notFound *document.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &ValidationError{Issues: []string{
				fmt.Sprintf("template %q has no %s; bootstrap requires one", templateName, ManifestFile),
			}}
		}
		return nil, err
	}

	var issues []string
	for _, a := range manifest.Assistants {
		if !o.AssistantTemplates.Exists(a.Template) {
			issues = append(issues, fmt.Sprintf("assistant template %q not found", a.Template))
		}
		for _, ref := range a.RequiredTools {
			toolName := strings.TrimSuffix(filepath.Base(ref), ".yaml")
			if !o.ToolTemplates.ToolExists(toolName) && !manifest.DeclaresTool(toolName) {
				issues = append(issues, fmt.Sprintf("required tool %q not found and not defined in manifest", toolName))
			}
		}
	}
	for _, t := range manifest.Tools {
		if !o.ToolTemplates.Exists(t.Template) {
			issues = append(issues, fmt.Sprintf("tool template %q not found", t.Template))
		}
	}
	issues = append(issues, environmentIssues(manifest, env)...)
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	if !force {
		var conflicts []string
		if o.Squads.Exists(squadName) {
			conflicts = append(conflicts, fmt.Sprintf("squad %q already exists", squadName))
		}
		for _, a := range manifest.Assistants {
			if o.Assistants.Exists(a.Name) {
				conflicts = append(conflicts, fmt.Sprintf("assistant %q already exists", a.Name))
			}
		}
		for _, t := range manifest.Tools {
			if o.ToolTemplates.ToolExists(t.Name) {
				conflicts = append(conflicts, fmt.Sprintf("tool %q already exists", t.Name))
			}
		}
		if len(conflicts) > 0 {
			return nil, &ConflictError{Conflicts: conflicts}
		}
	}

	return manifest, nil
}

// environmentIssues checks that per-environment override blocks only
// reference assistants the manifest declares.
func environmentIssues(m *Manifest, env string) []string {
	envConfig, ok := m.Environments[env].(document.Document)
	if !ok {
		return nil
	}
	overrides, _ := envConfig["assistants"].([]any)
	var issues []string
	for _, raw := range overrides {
		entry, ok := raw.(document.Document)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		if name != "" && !m.DeclaresAssistant(name) {
			issues = append(issues, fmt.Sprintf("environment override for unknown assistant %q", name))
		}
	}
	return issues
}

func renderPreview(squadName string, m *Manifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bootstrap preview for squad %q\n", squadName)
	fmt.Fprintf(&b, "Description: %s\n", m.Description)
	if len(m.Tools) > 0 {
		fmt.Fprintf(&b, "\nTools to create (%d):\n", len(m.Tools))
		for _, t := range m.Tools {
			fmt.Fprintf(&b, "  - %s (template: %s)\n", t.Name, t.Template)
		}
	}
	fmt.Fprintf(&b, "\nAssistants to create (%d):\n", len(m.Assistants))
	for _, a := range m.Assistants {
		fmt.Fprintf(&b, "  - %s (template: %s)\n", a.Name, a.Template)
		if a.Role != "" {
			fmt.Fprintf(&b, "    role: %s\n", a.Role)
		}
	}
	fmt.Fprintf(&b, "\nSquad to create:\n  - %s\n", squadName)
	return b.String()
}
