package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpad/internal/cli/config"
	"github.com/leapstack-labs/sqlpad/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
}

// NewCommandContext creates a CommandContext with a connected engine.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng := engine.New(engine.Config{
		Adapter: cmdCtx.Cfg.AdapterConfig(),
		Logger:  cmdCtx.Logger,
	})
	if err := eng.Connect(cmd.Context()); err != nil {
		_ = eng.Close()
		return nil, nil, fmt.Errorf("failed to open %s database: %w", cmdCtx.Cfg.Backend, err)
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    config.GetConfig(cmd.Context()),
		Logger: config.GetLogger(cmd.Context()),
	}
}
