package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/odyssey-pricing/internal/testing/guard"
)

func TestGuardEnablesTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, guard.Active())
	assert.True(t, InTestMode())

	t.Cleanup(RefreshTestMode)
	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestRefreshTestModeTracksEnvironment(t *testing.T) {
	t.Cleanup(RefreshTestMode)

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
	assert.False(t, InTestMode(), "flag stays put between refreshes")

	t.Setenv(testModeEnv, "1")
	assert.False(t, InTestMode(), "environment is only read on refresh")
	RefreshTestMode()
	assert.True(t, InTestMode())
}
