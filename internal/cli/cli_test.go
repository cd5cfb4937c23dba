package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "depot", root.Use)

	for _, path := range [][]string{
		{"start"},
		{"run"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"seed"},
		{"user", "create"},
		{"user", "delete"},
		{"worker", "run"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "%v", path)
		assert.NotNil(t, cmd.RunE, "%v", path)
	}

	create, _, err := root.Find([]string{"user", "create"})
	require.NoError(t, err)
	assert.NotNil(t, create.Flags().Lookup("password"))
	assert.NotNil(t, create.Flags().Lookup("admin"))

	down, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	steps, err := down.Flags().GetInt("steps")
	require.NoError(t, err)
	assert.Equal(t, 1, steps)
}
