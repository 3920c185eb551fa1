package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	cfg := DefaultSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "0 */6 * * *", cfg.Spec)
	assert.True(t, cfg.WatchCatalog)
}
