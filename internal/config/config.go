package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognised on top of the config file. LEDGER_FILE
// is the conventional hledger variable; the others are engine-specific.
const (
	EnvJournalFile = "LEDGER_FILE"
	EnvConfigFile  = "HLEDGER_ENGINE_CONFIG"
	EnvBinary      = "HLEDGER_ENGINE_BINARY"
	EnvLogLevel    = "HLEDGER_ENGINE_LOG_LEVEL"
	EnvTimeout     = "HLEDGER_ENGINE_TIMEOUT"
)

const (
	defaultBinary   = "hledger"
	defaultTimeout  = 30 * time.Second
	defaultLogLevel = "info"

	// defaultJournal, under $HOME, is hledger's own fallback journal.
	defaultJournal = ".hledger.journal"
)

// Config is the assembled runtime configuration. JournalFile is always an
// existing file by the time Load returns.
type Config struct {
	JournalFile      string
	HledgerBinary    string
	CommandTimeout   time.Duration
	LogLevel         string
	DefaultCommodity string
	PriceTickers     map[string]string
	GitSync          bool
}

// fileConfig is the YAML shape of the config file. The timeout is a string
// so the file can say "45s" instead of nanoseconds.
type fileConfig struct {
	JournalFile      string            `yaml:"journal_file"`
	HledgerBinary    string            `yaml:"hledger_binary"`
	CommandTimeout   string            `yaml:"command_timeout"`
	LogLevel         string            `yaml:"log_level"`
	DefaultCommodity string            `yaml:"default_commodity"`
	PriceTickers     map[string]string `yaml:"price_tickers"`
	GitSync          *bool             `yaml:"git_sync"`
}

// Load assembles the configuration from, lowest to highest precedence:
// built-in defaults, the YAML config file, environment variables, and the
// -f flag value for the journal path. The resolved journal file must
// exist; everything else has a workable default.
func Load(flagJournal string) (*Config, error) {
	cfg := &Config{
		HledgerBinary:  defaultBinary,
		CommandTimeout: defaultTimeout,
		LogLevel:       defaultLogLevel,
		GitSync:        true,
	}

	fromFile, err := readConfigFile()
	if err != nil {
		return nil, err
	}
	if fromFile != nil {
		if len(fromFile.JournalFile) != 0 {
			cfg.JournalFile = fromFile.JournalFile
		}
		if len(fromFile.HledgerBinary) != 0 {
			cfg.HledgerBinary = fromFile.HledgerBinary
		}
		if len(fromFile.CommandTimeout) != 0 {
			timeout, err := time.ParseDuration(fromFile.CommandTimeout)
			if err != nil {
				return nil, fmt.Errorf("invalid command_timeout in config file: %w", err)
			}
			cfg.CommandTimeout = timeout
		}
		if len(fromFile.LogLevel) != 0 {
			cfg.LogLevel = fromFile.LogLevel
		}
		if len(fromFile.DefaultCommodity) != 0 {
			cfg.DefaultCommodity = fromFile.DefaultCommodity
		}
		if len(fromFile.PriceTickers) != 0 {
			cfg.PriceTickers = fromFile.PriceTickers
		}
		if fromFile.GitSync != nil {
			cfg.GitSync = *fromFile.GitSync
		}
	}

	envBinary := os.Getenv(EnvBinary)
	envLogLevel := os.Getenv(EnvLogLevel)
	envTimeout := os.Getenv(EnvTimeout)

	if len(envBinary) != 0 {
		cfg.HledgerBinary = envBinary
	}

	if len(envLogLevel) != 0 {
		cfg.LogLevel = envLogLevel
	}

	if len(envTimeout) != 0 {
		timeout, err := time.ParseDuration(envTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.CommandTimeout = timeout
	}

	journal, err := resolveJournalFile(flagJournal, os.Getenv(EnvJournalFile), cfg.JournalFile)
	if err != nil {
		return nil, err
	}
	cfg.JournalFile = journal

	return cfg, nil
}

// resolveJournalFile picks the journal path from the first non-empty
// source, highest precedence first, and requires the file to exist. An
// explicitly named file that is missing is an error rather than a reason
// to try the next source, so a typo cannot silently switch journals.
func resolveJournalFile(fromFlag, fromEnv, fromFile string) (string, error) {
	candidates := []struct {
		path   string
		source string
	}{
		{fromFlag, "-f flag"},
		{fromEnv, EnvJournalFile},
		{fromFile, "config file"},
	}

	for _, candidate := range candidates {
		if candidate.path == "" {
			continue
		}
		path, err := expandPath(candidate.path)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("journal file from %s not found: %s", candidate.source, path)
		}
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	path := filepath.Join(home, defaultJournal)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no journal file found: pass -f, set %s, or create %s", EnvJournalFile, path)
	}
	return path, nil
}

func configFilePath() (string, error) {
	if custom := os.Getenv(EnvConfigFile); len(custom) != 0 {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "hledger-engine", "config.yaml"), nil
}

// readConfigFile loads the YAML config file. A missing file is fine, a
// file that exists but does not parse is not.
func readConfigFile() (*fileConfig, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func expandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
