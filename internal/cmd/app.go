package cmd

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tuannvm/agentctl/internal/api"
	"github.com/tuannvm/agentctl/internal/assistant"
	"github.com/tuannvm/agentctl/internal/bootstrap"
	"github.com/tuannvm/agentctl/internal/config"
	"github.com/tuannvm/agentctl/internal/deps"
	"github.com/tuannvm/agentctl/internal/settings"
	"github.com/tuannvm/agentctl/internal/squad"
	"github.com/tuannvm/agentctl/internal/state"
	"github.com/tuannvm/agentctl/internal/template"
	"github.com/tuannvm/agentctl/internal/tui"
)

// projectDirs holds the resolved project layout. Every directory comes
// from the project config file or its defaults.
type projectDirs struct {
	Assistants  string
	Squads      string
	Templates   string
	SharedTools string
}

func resolveDirs(root string, cfg *config.Config) projectDirs {
	return projectDirs{
		Assistants:  config.Resolve(root, cfg.AssistantsDir),
		Squads:      config.Resolve(root, cfg.SquadsDir),
		Templates:   config.Resolve(root, cfg.TemplatesDir),
		SharedTools: config.Resolve(root, cfg.SharedToolsDir),
	}
}

// app bundles the wiring every command needs.
type app struct {
	dirs       projectDirs
	defaultEnv string
	log        *zap.Logger

	assistants      *assistant.Loader
	squads          *squad.Loader
	assistantStates *state.Store
	squadStates     *state.Store

	assistantTemplates *template.AssistantTemplates
	squadTemplates     *template.SquadTemplates
	toolTemplates      *template.ToolTemplates

	platform api.Platform
}

// newApp wires the local half of the toolchain. Commands that talk to
// the platform call connect afterwards.
func newApp(root string) (*app, error) {
	log, err := newLogger()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	dirs := resolveDirs(root, cfg)
	return &app{
		dirs:            dirs,
		defaultEnv:      cfg.DefaultEnvironment,
		log:             log,
		assistants:      assistant.NewLoader(dirs.Assistants),
		squads:          squad.NewLoader(dirs.Squads),
		assistantStates: state.NewStore(state.NewAssistantBackend(dirs.Assistants)),
		squadStates:     state.NewStore(state.NewSquadBackend(dirs.Squads)),
		assistantTemplates: template.NewAssistantTemplates(
			filepath.Join(dirs.Templates, "assistants"), dirs.Assistants),
		squadTemplates: template.NewSquadTemplates(
			filepath.Join(dirs.Templates, "squads"), dirs.Squads),
		toolTemplates: template.NewToolTemplates(
			filepath.Join(dirs.Templates, "tools"), dirs.SharedTools),
	}, nil
}

// environment falls back to the project's configured default when the
// --env flag was left unset.
func (a *app) environment(env string) string {
	if env == "" {
		return a.defaultEnv
	}
	return env
}

// connect resolves settings and attaches the platform client.
func (a *app) connect() error {
	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	client := api.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	if cfg.OrgID != "" {
		client = client.WithOrg(cfg.OrgID)
	}
	a.platform = api.NewService(client)
	return nil
}

func (a *app) orchestrator() *bootstrap.Orchestrator {
	return bootstrap.NewOrchestrator(
		a.assistantTemplates,
		a.squadTemplates,
		a.toolTemplates,
		a.assistants,
		a.squads,
		a.assistantStates,
		a.squadStates,
		a.platform,
		a.log,
	)
}

func (a *app) depsResolver() *deps.Resolver {
	return deps.NewResolver(
		a.squads,
		a.assistants,
		a.assistantStates,
		a.platform,
		&tui.Prompt{},
		a.log,
	)
}
