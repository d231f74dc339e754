package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/agentctl/internal/api"
	"github.com/tuannvm/agentctl/internal/assistant"
	"github.com/tuannvm/agentctl/internal/document"
	"github.com/tuannvm/agentctl/internal/squad"
	"github.com/tuannvm/agentctl/internal/state"
)

// fakePlatform records creations and can fail selected assistants.
type fakePlatform struct {
	api.Platform

	created []string
	failing map[string]bool
}

func (f *fakePlatform) CreateAssistant(_ context.Context, payload document.Document) (*api.Assistant, error) {
	name, _ := payload["name"].(string)
	if f.failing[name] {
		return nil, &api.APIError{StatusCode: 500, Body: "boom"}
	}
	f.created = append(f.created, name)
	return &api.Assistant{ID: "id-" + name, Name: name}, nil
}

func approve(t *testing.T) Confirmer {
	t.Helper()
	return ConfirmerFunc(func(string) (bool, error) { return true, nil })
}

func decline(t *testing.T) Confirmer {
	t.Helper()
	return ConfirmerFunc(func(string) (bool, error) { return false, nil })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fixture struct {
	resolver *Resolver
	platform *fakePlatform
	states   *state.Store
}

// newFixture lays out squad "support" with members greeter, booker and
// closer, where only booker lacks a deployment record.
func newFixture(t *testing.T, confirm Confirmer, failing map[string]bool) *fixture {
	t.Helper()
	root := t.TempDir()
	assistantsDir := filepath.Join(root, "assistants")
	squadsDir := filepath.Join(root, "squads")

	for _, name := range []string{"greeter", "booker", "closer"} {
		writeFile(t, filepath.Join(assistantsDir, name, "assistant.yaml"), `
name: `+name+`
model:
  provider: openai
  model: gpt-4o
voice:
  provider: elevenlabs
  voice_id: abc
`)
	}
	writeFile(t, filepath.Join(squadsDir, "support", "squad.yaml"), "name: support\n")
	writeFile(t, filepath.Join(squadsDir, "support", "members.yaml"), `
members:
  - assistant_name: greeter
  - assistant_name: booker
  - assistant_name: closer
`)

	states := state.NewStore(state.NewAssistantBackend(assistantsDir))
	require.NoError(t, states.MarkDeployed("greeter", "development", "id-greeter", "tests"))
	require.NoError(t, states.MarkDeployed("closer", "development", "id-closer", "tests"))

	platform := &fakePlatform{failing: failing}
	resolver := NewResolver(
		squad.NewLoader(squadsDir),
		assistant.NewLoader(assistantsDir),
		states,
		platform,
		confirm,
		nil,
	)
	return &fixture{resolver: resolver, platform: platform, states: states}
}

func TestCheckMissingDeclarationOrder(t *testing.T) {
	f := newFixture(t, approve(t), nil)

	missing, err := f.resolver.CheckMissing("support", "development")
	require.NoError(t, err)
	assert.Equal(t, []string{"booker"}, missing)
}

func TestCheckMissingUnknownSquad(t *testing.T) {
	f := newFixture(t, approve(t), nil)

	_, err := f.resolver.CheckMissing("ghost", "development")
	var notFound *document.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeployMissingDeploysAndRecords(t *testing.T) {
	f := newFixture(t, approve(t), nil)

	succeeded, failed, err := f.resolver.DeployMissing(context.Background(), "support", "development", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"booker"}, succeeded)
	assert.Empty(t, failed)
	assert.Equal(t, []string{"booker"}, f.platform.created)
	assert.True(t, f.states.IsDeployed("booker", "development"))
}

func TestDeployMissingDeclinedAttemptsNothing(t *testing.T) {
	f := newFixture(t, decline(t), nil)

	succeeded, failed, err := f.resolver.DeployMissing(context.Background(), "support", "development", false)
	require.NoError(t, err)
	assert.Empty(t, succeeded)
	assert.Equal(t, []string{"booker"}, failed)
	assert.Empty(t, f.platform.created)
	assert.False(t, f.states.IsDeployed("booker", "development"))
}

func TestDeployMissingForceSkipsConfirmation(t *testing.T) {
	asked := false
	confirm := ConfirmerFunc(func(string) (bool, error) {
		asked = true
		return false, nil
	})
	f := newFixture(t, confirm, nil)

	succeeded, _, err := f.resolver.DeployMissing(context.Background(), "support", "development", true)
	require.NoError(t, err)
	assert.False(t, asked)
	assert.Equal(t, []string{"booker"}, succeeded)
}

func TestDeployMissingPartialFailureIsData(t *testing.T) {
	f := newFixture(t, approve(t), map[string]bool{"booker": true})
	require.NoError(t, f.states.MarkUndeployed("closer", "development"))

	succeeded, failed, err := f.resolver.DeployMissing(context.Background(), "support", "development", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"closer"}, succeeded)
	assert.Equal(t, []string{"booker"}, failed)
}

func TestDeployMissingConfirmerError(t *testing.T) {
	confirm := ConfirmerFunc(func(string) (bool, error) {
		return false, errors.New("tty closed")
	})
	f := newFixture(t, confirm, nil)

	_, _, err := f.resolver.DeployMissing(context.Background(), "support", "development", false)
	require.Error(t, err)
}

func TestEnsureDependencies(t *testing.T) {
	f := newFixture(t, approve(t), nil)

	ok, err := f.resolver.EnsureDependencies(context.Background(), "support", "development", false, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.resolver.EnsureDependencies(context.Background(), "support", "development", true, false)
	require.NoError(t, err)
	assert.True(t, ok)

	// Everything is deployed now, no prompt needed.
	ok, err = f.resolver.EnsureDependencies(context.Background(), "support", "development", false, false)
	require.NoError(t, err)
	assert.True(t, ok)
}
