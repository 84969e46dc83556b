// File: internal/stealth/stealth_test.go
package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEvasionsScriptEmbedded(t *testing.T) {
	require.NotEmpty(t, evasionsScript)
	assert.Contains(t, evasionsScript, "webdriver")
	assert.Contains(t, evasionsScript, "plugins")
	assert.Contains(t, evasionsScript, "permissions")
}

func TestDefaultPersona(t *testing.T) {
	assert.NotEmpty(t, DefaultPersona.UserAgent)
	assert.NotContains(t, DefaultPersona.UserAgent, "Headless")
	require.NotEmpty(t, DefaultPersona.Languages)
	assert.NotEmpty(t, DefaultPersona.Timezone)
	assert.NotEmpty(t, DefaultPersona.Locale)
}

func TestApplyBuildsTasks(t *testing.T) {
	tasks := Apply(DefaultPersona, zaptest.NewLogger(t))
	assert.Len(t, tasks, 5)

	// A single-language persona must not panic building headers.
	single := DefaultPersona
	single.Languages = []string{"en-US"}
	assert.NotPanics(t, func() { Apply(single, zaptest.NewLogger(t)) })
}
