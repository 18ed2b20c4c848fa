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

// loggerKey is used to store the logger in a command context.
type loggerKey struct{}

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: LENSES_VIEWER__PORT sets viewer.port.
const EnvPrefix = "LENSES_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// configNames are the file names searched for, in order.
var configNames = []string{"lenses.yaml", "lenses.yml"}

// flagKeys maps command flag names onto config keys. Flags not listed here
// are command-local and never reach the config.
var flagKeys = map[string]string{
	"verbose":              "verbose",
	"output":               "output",
	"log-level":            "log_level",
	"log-format":           "log_format",
	"csv":                  "query.csv",
	"delimiter":            "query.delimiter",
	"relation":             "query.relation",
	"format":               "query.format",
	"threads":              "duckdb.threads",
	"memory-limit":         "duckdb.memory_limit",
	"port":                 "viewer.port",
	"interval":             "viewer.interval",
	"watch":                "viewer.watch",
	"open":                 "viewer.auto_open",
	"title":                "viewer.title",
	"placeholder-on-error": "viewer.placeholder_on_error",
}

// pathFlags are flags whose values name files relative to the working directory.
var pathFlags = map[string]bool{"csv": true}

var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a lenses config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if found := configIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Remote paths and empty paths are returned unchanged.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// envKey turns LENSES_VIEWER__PORT into viewer.port.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// An empty cfgFile searches upward from the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	changedPaths := map[string]bool{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			if pathFlags[f.Name] {
				changedPaths[key] = true
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	if !changedPaths["query.csv"] {
		cfg.Query.CSV = resolvePathRelativeTo(cfg.Query.CSV, projectRoot)
	}
	cfg.Viewer.DotFile = resolvePathRelativeTo(cfg.Viewer.DotFile, projectRoot)

	cfg.DuckDB.MemoryLimit = expandEnvVars(cfg.DuckDB.MemoryLimit)
	for name, value := range cfg.DuckDB.Settings {
		cfg.DuckDB.Settings[name] = expandEnvVars(value)
	}
	for _, secret := range cfg.DuckDB.Secrets {
		for name, value := range secret {
			if str, ok := value.(string); ok {
				secret[name] = expandEnvVars(str)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration from the last successful LoadConfig.
func GetCurrentConfig() *Config {
	return currentConfig
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
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
