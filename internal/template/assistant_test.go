package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/agentctl/internal/document"
)

func assistantFixture(t *testing.T) (*AssistantTemplates, string) {
	t.Helper()
	root := t.TempDir()
	templates := filepath.Join(root, "templates")
	assistants := filepath.Join(root, "assistants")

	writeFile(t, filepath.Join(templates, "receptionist", "assistant.yaml"), `
name: {{assistant_name}}
description: {{description|A friendly receptionist}}
model:
  provider: openai
  model: gpt-4o
`)
	writeFile(t, filepath.Join(templates, "receptionist", "prompts", "system.md"),
		"You are {{assistant_name}}.\n")

	return NewAssistantTemplates(templates, assistants), assistants
}

func TestAssistantInit(t *testing.T) {
	mgr, assistants := assistantFixture(t)

	require.NoError(t, mgr.Init("front-desk", "receptionist", false, nil))

	doc, err := document.Load(filepath.Join(assistants, "front-desk", "assistant.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "front-desk", doc["name"])
	assert.Equal(t, "A friendly receptionist", doc["description"])

	prompt, err := os.ReadFile(filepath.Join(assistants, "front-desk", "prompts", "system.md"))
	require.NoError(t, err)
	assert.Equal(t, "You are front-desk.\n", string(prompt))
}

func TestAssistantInitRejectsBadName(t *testing.T) {
	mgr, _ := assistantFixture(t)

	err := mgr.Init("bad name", "receptionist", false, nil)
	var invalid *InvalidNameError
	require.ErrorAs(t, err, &invalid)
}

func TestAssistantInitMissingTemplate(t *testing.T) {
	mgr, _ := assistantFixture(t)

	err := mgr.Init("front-desk", "ghost", false, nil)
	var notFound *document.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestAssistantInitConflictAndForce(t *testing.T) {
	mgr, _ := assistantFixture(t)
	require.NoError(t, mgr.Init("front-desk", "receptionist", false, nil))

	err := mgr.Init("front-desk", "receptionist", false, nil)
	var exists *ExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "assistant", exists.Kind)

	require.NoError(t, mgr.Init("front-desk", "receptionist", true, nil))
}

func TestAssistantInitCustomVariables(t *testing.T) {
	mgr, assistants := assistantFixture(t)

	require.NoError(t, mgr.Init("front-desk", "receptionist", false,
		map[string]any{"description": "Books appointments"}))

	doc, err := document.Load(filepath.Join(assistants, "front-desk", "assistant.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Books appointments", doc["description"])
}

func TestAssistantTemplateInfo(t *testing.T) {
	mgr, _ := assistantFixture(t)

	info, err := mgr.Info("receptionist")
	require.NoError(t, err)
	assert.True(t, info.Files["assistant.yaml"])
	assert.True(t, info.Files["prompts/system.md"])
	assert.False(t, info.Files["prompts/first_message.md"])
	assert.Equal(t, []string{"prompts"}, info.Directories)
	assert.Contains(t, info.Variables, "assistant_name")
	assert.Contains(t, info.Variables, "description")
}

func TestAssistantTemplateList(t *testing.T) {
	mgr, _ := assistantFixture(t)

	names, err := mgr.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"receptionist"}, names)
	assert.True(t, mgr.Exists("receptionist"))
	assert.False(t, mgr.Exists("ghost"))
}
