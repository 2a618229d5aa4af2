package migration

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	source, err := Source()
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := source.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	_, err = source.Next(next)
	assert.Error(t, err, "no migration after the documents table")

	for _, version := range []uint{first, next} {
		up, _, err := source.ReadUp(version)
		require.NoError(t, err)
		upSQL, err := io.ReadAll(up)
		up.Close()
		require.NoError(t, err)

		down, _, err := source.ReadDown(version)
		require.NoError(t, err)
		downSQL, err := io.ReadAll(down)
		down.Close()
		require.NoError(t, err)

		assert.Contains(t, string(upSQL), "CREATE TABLE")
		assert.True(t, strings.HasPrefix(string(downSQL), "DROP TABLE"))
	}
}

func TestNewFromEnvRequiresPostgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := NewFromEnv()
	assert.ErrorContains(t, err, "migrations target postgres")
}
