package migrations

import (
	"testing"

	"ms-booking/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "./migrations", opts.MigrationsDir)
	assert.False(t, opts.AutoMigrate)
}

func TestInitializeMissingDirectory(t *testing.T) {
	r := NewRunner(nil, MigrateOptions{MigrationsDir: t.TempDir() + "/absent"}, logger.NewNop())

	err := r.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations directory does not exist")
}

func TestCloseWithoutInitialize(t *testing.T) {
	r := NewRunner(nil, DefaultOptions(), logger.NewNop())
	assert.NoError(t, r.Close())
}
