package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix prefixes environment variables read by LoadConfig.
const EnvPrefix = "SQLPAD_"

// ConfigFileNames are the config file names searched for, in order.
var ConfigFileNames = []string{"sqlpad.yaml", "sqlpad.yml"}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// configFileIn returns the config file in dir, or "" if there is none.
func configFileIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if f := configFileIn(dir); f != "" {
			return f
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// An empty cfgFile searches for sqlpad.yaml upward from the working
// directory. A relative database path from the config file is resolved
// against the file's directory; one from a flag against the working
// directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfgFile = findConfigUpward(cwd)
		}
	}
	var baseDir, fileDatabase string
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			baseDir = filepath.Dir(abs)
		}
		fileDatabase = k.String("database")
	}

	// 3. Load environment variables (SQLPAD_ prefix)
	// Transform: SQLPAD_HISTORY_FILE -> history_file
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = cfgFile

	// 6. Expand ${VAR} references and resolve paths
	dbBase, _ := os.Getwd()
	if cfgFile != "" && cfg.Database == fileDatabase {
		dbBase = baseDir
	}
	cfg.Database = resolveDatabasePath(expandEnvVars(cfg.Database), dbBase)
	cfg.HistoryFile = expandHome(cfg.HistoryFile)
	if pg := cfg.Postgres; pg != nil {
		pg.Host = expandEnvVars(pg.Host)
		pg.User = expandEnvVars(pg.User)
		pg.Password = expandEnvVars(pg.Password)
		pg.DBName = expandEnvVars(pg.DBName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func defaultValues() map[string]any {
	return map[string]any{
		"backend":       DefaultBackend,
		"database":      DefaultDatabase,
		"output":        DefaultOutput,
		"history_file":  DefaultHistoryFile,
		"prompt":        DefaultPrompt,
		"verbose":       false,
		"initial_query": DefaultInitialQuery,
		"row_limit":     DefaultRowLimit,
	}
}

// Defaults returns the built-in configuration without reading any file,
// environment variable or flag.
func Defaults() *Config {
	return &Config{
		Backend:      DefaultBackend,
		Database:     DefaultDatabase,
		Output:       DefaultOutput,
		HistoryFile:  expandHome(DefaultHistoryFile),
		Prompt:       DefaultPrompt,
		InitialQuery: DefaultInitialQuery,
		RowLimit:     DefaultRowLimit,
	}
}

// resolveDatabasePath makes a relative database file path absolute.
// In-memory databases, URLs and key=value DSNs are returned unchanged.
func resolveDatabasePath(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) ||
		strings.Contains(path, "://") || strings.Contains(path, "=") {
		return path
	}
	return filepath.Join(baseDir, path)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key used for storing the loaded config.
func ConfigKey() any {
	return configKey{}
}

// GetConfig retrieves the config from the command context, falling back to
// the defaults when none was stored.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Defaults()
}
