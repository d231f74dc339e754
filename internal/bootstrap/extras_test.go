package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateManifestReport(t *testing.T) {
	f := newFixture(t)

	report := f.orch.ValidateManifest("front-office", "development")
	assert.True(t, report.Valid)
	assert.Equal(t, "Front office squad", report.Description)
	assert.Equal(t, 2, report.Assistants)
	assert.Equal(t, 2, report.Tools)
}

func TestValidateManifestInvalid(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "templates", "squads", "broken", "manifest.yaml"), `
description: Broken
assistants:
  - name: x
    template: missing-template
`)

	report := f.orch.ValidateManifest("broken", "development")
	assert.False(t, report.Valid)
	require.NotEmpty(t, report.Issues)
	assert.Contains(t, report.Issues[0], "missing-template")
}

func TestListTemplates(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.root, "templates", "squads", "bare", "squad.yaml"), "name: {{squad_name}}\n")

	statuses, err := f.orch.ListTemplates("development")
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byName := map[string]TemplateStatus{}
	for _, s := range statuses {
		byName[s.Name] = s
	}
	assert.False(t, byName["bare"].HasManifest)
	assert.False(t, byName["bare"].BootstrapReady)
	assert.True(t, byName["front-office"].HasManifest)
	assert.True(t, byName["front-office"].BootstrapReady)
	assert.Equal(t, 2, byName["front-office"].Assistants)
}

func TestRollbackSquadTearsDownEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.orch.Bootstrap(ctx, "support", "front-office", Options{
		Deploy:      true,
		Environment: "development",
	})
	require.NoError(t, err)

	require.NoError(t, f.orch.RollbackSquad(ctx, "support", "development"))

	assert.Len(t, f.platform.deletedAssistants, 2)
	assert.Len(t, f.platform.deletedSquads, 1)
	assert.NoDirExists(t, filepath.Join(f.root, "squads", "support"))
	assert.NoDirExists(t, filepath.Join(f.root, "assistants", "greeter"))
	assert.NoDirExists(t, filepath.Join(f.root, "assistants", "booker"))
}

func TestRollbackSquadUnknown(t *testing.T) {
	f := newFixture(t)

	err := f.orch.RollbackSquad(context.Background(), "ghost", "development")
	require.Error(t, err)
}

func TestPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.orch.Bootstrap(ctx, "support", "front-office", Options{
		Deploy:      true,
		Environment: "development",
	})
	require.NoError(t, err)

	cp, err := f.orch.Promote(ctx, "support", "development", "production")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeter", "booker"}, cp.DeployedAssistants)
	assert.Equal(t, "support", cp.DeployedSquad)
	assert.True(t, f.orch.AssistantStates.IsDeployed("greeter", "production"))
	assert.True(t, f.orch.SquadStates.IsDeployed("support", "production"))

	// Development records are untouched.
	assert.True(t, f.orch.SquadStates.IsDeployed("support", "development"))
}

func TestPromoteRequiresSourceDeployment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.orch.Bootstrap(ctx, "support", "front-office", Options{})
	require.NoError(t, err)

	_, err = f.orch.Promote(ctx, "support", "development", "production")
	var notPromotable *NotPromotableError
	require.ErrorAs(t, err, &notPromotable)
}

func TestPromoteRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.orch.Bootstrap(ctx, "support", "front-office", Options{
		Deploy:      true,
		Environment: "development",
	})
	require.NoError(t, err)

	f.platform.failSquads = true
	_, err = f.orch.Promote(ctx, "support", "development", "production")
	var exec *ExecutionError
	require.ErrorAs(t, err, &exec)

	assert.False(t, f.orch.AssistantStates.IsDeployed("greeter", "production"))
	assert.True(t, f.orch.AssistantStates.IsDeployed("greeter", "development"))
}
