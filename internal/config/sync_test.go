package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func getValidSyncConfig() SyncConfig {
	return SyncConfig{IntervalSeconds: 2}
}

func TestValidSyncConfig(t *testing.T) {
	config := getValidSyncConfig()

	err := config.Validate()

	assert.NoError(t, err)
}

func TestInvalidSyncInterval(t *testing.T) {
	config := getValidSyncConfig()
	config.IntervalSeconds = -5

	err := config.Validate()

	assert.ErrorContains(t, err, "sync interval seconds (-5) needs to be greater than 0")
}
