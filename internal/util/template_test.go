package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplateFastPath(t *testing.T) {
	out, err := RenderTemplate("no markers here", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers here", out)
}

func TestRenderTemplateVariables(t *testing.T) {
	out, err := RenderTemplate("Hello {{.Name}}, topic: {{.Topic}}", map[string]any{
		"Name":  "Ada",
		"Topic": "harbors",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, topic: harbors", out)
}

func TestRenderTemplateFuncs(t *testing.T) {
	out, err := RenderTemplate(`{{join ", " .Items}} {{upper .Tone}}`, map[string]any{
		"Items": []string{"a", "b"},
		"Tone":  "calm",
	})
	require.NoError(t, err)
	assert.Equal(t, "a, b CALM", out)
}

func TestRenderTemplateParseError(t *testing.T) {
	_, err := RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
