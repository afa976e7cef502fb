package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewREPLCommand(t *testing.T) {
	cmd := NewREPLCommand()

	assert.Equal(t, "repl", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewRunCommand(t *testing.T) {
	cmd := NewRunCommand()

	assert.Equal(t, "run [SQL]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"file", "from", "to", "limit", "watch"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "f", cmd.Flags().Lookup("file").Shorthand)
	assert.Equal(t, "0", cmd.Flags().Lookup("from").DefValue)
}

func TestNewCompleteCommand(t *testing.T) {
	cmd := NewCompleteCommand()

	assert.Equal(t, "complete <text>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("cursor"))
	assert.NotNil(t, cmd.Flags().Lookup("explicit"))
	assert.Equal(t, "-1", cmd.Flags().Lookup("cursor").DefValue)
}

func TestNewImportCommand(t *testing.T) {
	cmd := NewImportCommand()

	assert.Equal(t, "import <file>", cmd.Use)
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.Equal(t, "t", cmd.Flags().Lookup("table").Shorthand)
}

func TestNewTUICommand(t *testing.T) {
	cmd := NewTUICommand()

	assert.Equal(t, "tui", cmd.Use)
	assert.Contains(t, cmd.Long, "ctrl+r")
}
