package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(fixtureManifest))
	require.NoError(t, err)
	assert.Equal(t, "Front office squad", m.Description)
	require.Len(t, m.Assistants, 2)
	assert.Equal(t, "receptionist", m.Assistants[0].Template)
	assert.Equal(t, "Greets callers", m.Assistants[0].Role)
	assert.Equal(t, []string{"check-availability"}, m.Assistants[0].RequiredTools)
	require.Len(t, m.Tools, 2)
	assert.True(t, m.DeclaresTool("book-slot"))
	assert.False(t, m.DeclaresTool("ghost"))
	assert.True(t, m.DeclaresAssistant("booker"))
}

func TestParseManifestReportsEveryProblem(t *testing.T) {
	_, err := ParseManifest([]byte(`
assistants:
  - role: helper
  - name: booker
tools:
  - variables: {}
`))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{
		"description is required",
		"assistants[0]: name is required",
		"assistants[0]: template is required",
		"assistants[1]: template is required",
		"tools[0]: name is required",
		"tools[0]: template is required",
	}, validation.Issues)
}

func TestParseManifestEmptyAssistants(t *testing.T) {
	_, err := ParseManifest([]byte("description: x\n"))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Issues, "at least one assistant must be defined")
}

func TestParseManifestInvalidYAML(t *testing.T) {
	_, err := ParseManifest([]byte(":\t:::"))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}
