package browser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/ghost/internal/element"
)

func TestElementFromResult(t *testing.T) {
	e, err := elementFromResult(nil)
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = elementFromResult(map[string]any{
		"id":    " submit ",
		"text":  "  Send now  ",
		"tag":   "BUTTON",
		"class": "btn primary",
		"type":  "submit",
	})
	require.NoError(t, err)
	assert.Equal(t, &element.RawElement{
		ID:        "submit",
		Text:      "Send now",
		Tag:       "button",
		ClassName: "btn primary",
		InputType: "submit",
	}, e)

	_, err = elementFromResult("nope")
	assert.Error(t, err)
}

func TestElementFromResult_NonStringFields(t *testing.T) {
	// SVG elements expose className as an object.
	e, err := elementFromResult(map[string]any{
		"tag":   "svg",
		"class": map[string]any{"baseVal": "icon"},
		"id":    nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "svg", e.Tag)
	assert.Empty(t, e.ClassName)
	assert.Empty(t, e.ID)
}

func TestIsClosedErr(t *testing.T) {
	assert.True(t, isClosedErr(fmt.Errorf("target closed")))
	assert.False(t, isClosedErr(fmt.Errorf("timeout")))
}

func TestScriptsShareHookName(t *testing.T) {
	for _, s := range []string{captureScript, fetchScript, readyScript} {
		assert.True(t, strings.Contains(s, "window.ghostTester"))
	}
	assert.Contains(t, fetchScript, "g.lastEl = null")
}
