package template

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/agentctl/internal/document"
)

const webhookTemplate = `# Description: Generic webhook tool
name: {{tool_name}}
description: {{description|Calls a webhook}}
parameters:
  type: object
  properties:
    query:
      type: string
server:
  url: https://hooks.example.com/{{tool_name}}
`

func toolFixture(t *testing.T) (*ToolTemplates, string) {
	t.Helper()
	root := t.TempDir()
	templates := filepath.Join(root, "templates", "tools")
	output := filepath.Join(root, "shared", "tools")
	writeFile(t, filepath.Join(templates, "basic_webhook.yaml"), webhookTemplate)
	return NewToolTemplates(templates, output), output
}

func TestToolCreate(t *testing.T) {
	mgr, output := toolFixture(t)

	path, err := mgr.Create("check-availability", "basic_webhook", false, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(output, "check-availability.yaml"), path)

	doc, err := document.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "check-availability", doc["name"])
	assert.True(t, mgr.ToolExists("check-availability"))
}

func TestToolCreateConflictAndForce(t *testing.T) {
	mgr, _ := toolFixture(t)
	_, err := mgr.Create("hook", "basic_webhook", false, nil)
	require.NoError(t, err)

	_, err = mgr.Create("hook", "basic_webhook", false, nil)
	var exists *ExistsError
	require.ErrorAs(t, err, &exists)

	_, err = mgr.Create("hook", "basic_webhook", true, nil)
	require.NoError(t, err)
}

func TestToolCreateMissingTemplate(t *testing.T) {
	mgr, _ := toolFixture(t)

	_, err := mgr.Create("hook", "ghost", false, nil)
	var notFound *document.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestToolInfo(t *testing.T) {
	mgr, _ := toolFixture(t)

	info, err := mgr.Info("basic_webhook")
	require.NoError(t, err)
	assert.Equal(t, "Generic webhook tool", info.Description)
	assert.Contains(t, info.Variables, "tool_name")
	assert.Contains(t, info.Variables, "description")
}

func TestToolList(t *testing.T) {
	mgr, _ := toolFixture(t)

	names, err := mgr.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"basic_webhook"}, names)
}

func TestValidateToolReportsAllProblems(t *testing.T) {
	err := ValidateTool("broken", `
parameters:
  type: array
server:
  url: ftp://nope
`)
	var invalid *InvalidToolError
	require.ErrorAs(t, err, &invalid)
	assert.Len(t, invalid.Problems, 4)
}

func TestValidateToolAcceptsEnvURL(t *testing.T) {
	err := ValidateTool("ok", `
name: ok
description: fine
parameters:
  type: object
server:
  url: ${WEBHOOK_URL}
`)
	require.NoError(t, err)
}
