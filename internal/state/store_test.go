package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/agentctl/internal/document"
)

func newTestStore(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	store := NewStore(backend)
	store.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	store.actor = func() string { return "tester" }
	return store, backend
}

func seedEntity(backend *MemoryBackend, name string) {
	backend.Put(name, document.Document{"name": name})
}

func TestGetLazilyInitializesEmptyRecords(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	rec, err := store.Get("greeter", "development")
	require.NoError(t, err)
	assert.False(t, rec.Deployed())
	assert.Equal(t, 0, rec.Version)
}

func TestGetMissingEntity(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get("ghost", "development")

	var notFound *document.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.False(t, store.IsDeployed("ghost", "development"))
}

func TestMarkDeployed(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	require.NoError(t, store.MarkDeployed("greeter", "staging", "asst_123", ""))

	rec, err := store.Get("greeter", "staging")
	require.NoError(t, err)
	assert.True(t, rec.Deployed())
	assert.Equal(t, "asst_123", rec.ID)
	assert.Equal(t, "tester", rec.DeployedBy)
	assert.Equal(t, 1, rec.Version)

	cur, err := store.CurrentEnvironment("greeter")
	require.NoError(t, err)
	assert.Equal(t, "staging", cur)

	// State is persisted into the entity's own document.
	doc, err := backend.Load("greeter")
	require.NoError(t, err)
	assert.Equal(t, "asst_123",
		document.GetString(doc, StateKey, "environments", "staging", "id"))
}

func TestVersionMonotonicity(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	require.NoError(t, store.MarkDeployed("greeter", "production", "asst_1", "a"))
	require.NoError(t, store.MarkUpdated("greeter", "production", "b"))
	require.NoError(t, store.MarkUpdated("greeter", "production", "c"))

	rec, err := store.Get("greeter", "production")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Version)
	assert.Equal(t, "asst_1", rec.ID, "update must preserve the platform ID")
	assert.Equal(t, "c", rec.DeployedBy)
}

func TestUndeployResetsVersionAndRedeployStartsOver(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	require.NoError(t, store.MarkDeployed("greeter", "staging", "asst_1", ""))
	require.NoError(t, store.MarkUpdated("greeter", "staging", ""))
	require.NoError(t, store.MarkUndeployed("greeter", "staging"))

	rec, err := store.Get("greeter", "staging")
	require.NoError(t, err)
	assert.False(t, rec.Deployed())
	assert.Equal(t, 0, rec.Version)

	cur, err := store.CurrentEnvironment("greeter")
	require.NoError(t, err)
	assert.Empty(t, cur)

	// Redeploy counts from zero again.
	require.NoError(t, store.MarkDeployed("greeter", "staging", "asst_2", ""))
	rec, err = store.Get("greeter", "staging")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, "asst_2", rec.ID)
}

func TestUndeployKeepsOtherEnvironmentPointer(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	require.NoError(t, store.MarkDeployed("greeter", "development", "asst_dev", ""))
	require.NoError(t, store.MarkDeployed("greeter", "production", "asst_prod", ""))
	require.NoError(t, store.MarkUndeployed("greeter", "development"))

	cur, err := store.CurrentEnvironment("greeter")
	require.NoError(t, err)
	assert.Equal(t, "production", cur)
	assert.True(t, store.IsDeployed("greeter", "production"))
}

func TestMarkUpdatedRequiresDeployment(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	err := store.MarkUpdated("greeter", "production", "")

	var notDeployed *NotDeployedError
	require.ErrorAs(t, err, &notDeployed)
	assert.Equal(t, "greeter", notDeployed.Name)
	assert.Equal(t, "production", notDeployed.Environment)
}

func TestDeployedEnvironments(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	require.NoError(t, store.MarkDeployed("greeter", "development", "a", ""))
	require.NoError(t, store.MarkDeployed("greeter", "production", "b", ""))

	envs, err := store.DeployedEnvironments("greeter")
	require.NoError(t, err)
	assert.Equal(t, []string{"development", "production"}, envs)
}

func TestDeployedEnvironmentsIncludesCustomEnvironments(t *testing.T) {
	store, backend := newTestStore(t)
	seedEntity(backend, "greeter")

	require.NoError(t, store.MarkDeployed("greeter", "qa-eu", "a", ""))
	require.NoError(t, store.MarkDeployed("greeter", "staging", "b", ""))

	envs, err := store.DeployedEnvironments("greeter")
	require.NoError(t, err)
	assert.Equal(t, []string{"qa-eu", "staging"}, envs)
}

func TestFileBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	backend := NewAssistantBackend(dir)
	require.NoError(t, document.Save(
		filepath.Join(dir, "greeter", "assistant.yaml"),
		document.Document{"name": "greeter"},
	))

	store := NewStore(backend)
	require.NoError(t, store.MarkDeployed("greeter", "development", "asst_9", "ci"))

	// A fresh store over the same directory sees persisted state.
	again := NewStore(NewAssistantBackend(dir))
	rec, err := again.Get("greeter", "development")
	require.NoError(t, err)
	assert.Equal(t, "asst_9", rec.ID)
	assert.Equal(t, 1, rec.Version)

	names, err := again.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"greeter"}, names)
}
