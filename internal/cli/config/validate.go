package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownBackend is returned by Validate for an unsupported backend.
var ErrUnknownBackend = errors.New("unknown backend")

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	backend := strings.ToLower(c.Backend)
	if backend == "" {
		return fmt.Errorf("backend is required")
	}
	if !slices.Contains(Backends, backend) {
		return fmt.Errorf("%w %q\nHint: use one of %s", ErrUnknownBackend, c.Backend, strings.Join(Backends, ", "))
	}

	if !slices.Contains(OutputFormats, strings.ToLower(c.Output)) {
		return fmt.Errorf("unknown output format %q\nHint: use one of %s", c.Output, strings.Join(OutputFormats, ", "))
	}

	if c.RowLimit < 0 {
		return fmt.Errorf("row_limit must not be negative, got %d", c.RowLimit)
	}
	return nil
}
