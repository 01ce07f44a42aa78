package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// setupEnv gives the test a clean home directory and blanks every variable
// Load reads, so a developer's real environment cannot leak in.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvJournalFile, "")
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvBinary, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTimeout, "")
	return home
}

func writeJournal(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte("2026-01-01 Opening\n"), 0o644))
	return path
}

func writeConfigFile(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".config", "hledger-engine")
	assert.NoError(t, os.MkdirAll(dir, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

// -- default and precedence tests --

func TestLoad_Defaults(t *testing.T) {
	home := setupEnv(t)
	journal := writeJournal(t, home, ".hledger.journal")

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, journal, cfg.JournalFile)
	assert.Equal(t, "hledger", cfg.HledgerBinary)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.GitSync)
	assert.Empty(t, cfg.DefaultCommodity)
	assert.Empty(t, cfg.PriceTickers)
}

func TestLoad_FlagBeatsEnvAndFile(t *testing.T) {
	home := setupEnv(t)
	flagJournal := writeJournal(t, home, "flag.journal")
	envJournal := writeJournal(t, home, "env.journal")
	fileJournal := writeJournal(t, home, "file.journal")
	t.Setenv(EnvJournalFile, envJournal)
	writeConfigFile(t, home, "journal_file: "+fileJournal+"\n")

	cfg, err := Load(flagJournal)

	assert.NoError(t, err)
	assert.Equal(t, flagJournal, cfg.JournalFile)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	home := setupEnv(t)
	envJournal := writeJournal(t, home, "env.journal")
	fileJournal := writeJournal(t, home, "file.journal")
	t.Setenv(EnvJournalFile, envJournal)
	writeConfigFile(t, home, "journal_file: "+fileJournal+"\n")

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, envJournal, cfg.JournalFile)
}

func TestLoad_FileJournalUsedWhenNothingElseSet(t *testing.T) {
	home := setupEnv(t)
	fileJournal := writeJournal(t, home, "file.journal")
	writeConfigFile(t, home, "journal_file: "+fileJournal+"\n")

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, fileJournal, cfg.JournalFile)
}

// -- missing journal tests --

func TestLoad_MissingFlagJournalIsAnError(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")

	_, err := Load(filepath.Join(home, "typo.journal"))

	assert.ErrorContains(t, err, "journal file from -f flag not found")
}

func TestLoad_MissingEnvJournalIsAnError(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")
	t.Setenv(EnvJournalFile, filepath.Join(home, "typo.journal"))

	_, err := Load("")

	assert.ErrorContains(t, err, "journal file from "+EnvJournalFile+" not found")
}

func TestLoad_NoJournalAnywhere(t *testing.T) {
	setupEnv(t)

	_, err := Load("")

	assert.ErrorContains(t, err, "no journal file found")
}

// -- config file tests --

func TestLoad_FileSettingsApplied(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")
	writeConfigFile(t, home, `hledger_binary: /opt/hledger/bin/hledger
command_timeout: 45s
log_level: debug
default_commodity: "€"
price_tickers:
  XDWD: XDWD.DE
git_sync: false
`)

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, "/opt/hledger/bin/hledger", cfg.HledgerBinary)
	assert.Equal(t, 45*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "€", cfg.DefaultCommodity)
	assert.Equal(t, map[string]string{"XDWD": "XDWD.DE"}, cfg.PriceTickers)
	assert.False(t, cfg.GitSync)
}

func TestLoad_EnvOverridesFileSettings(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")
	writeConfigFile(t, home, "hledger_binary: /from/file\ncommand_timeout: 45s\nlog_level: warn\n")
	t.Setenv(EnvBinary, "/from/env")
	t.Setenv(EnvTimeout, "5s")
	t.Setenv(EnvLogLevel, "trace")

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.HledgerBinary)
	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "trace", cfg.LogLevel)
}

func TestLoad_ConfigFileFromEnvPath(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")
	custom := filepath.Join(home, "engine.yaml")
	assert.NoError(t, os.WriteFile(custom, []byte("log_level: error\n"), 0o644))
	t.Setenv(EnvConfigFile, custom)

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_TildeInFileJournalExpands(t *testing.T) {
	home := setupEnv(t)
	booksDir := filepath.Join(home, "books")
	assert.NoError(t, os.MkdirAll(booksDir, 0o755))
	journal := writeJournal(t, booksDir, "main.journal")
	writeConfigFile(t, home, "journal_file: ~/books/main.journal\n")

	cfg, err := Load("")

	assert.NoError(t, err)
	assert.Equal(t, journal, cfg.JournalFile)
}

// -- malformed input tests --

func TestLoad_InvalidEnvTimeout(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")
	t.Setenv(EnvTimeout, "soon")

	_, err := Load("")

	assert.ErrorContains(t, err, "invalid "+EnvTimeout)
}

func TestLoad_InvalidFileTimeout(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")
	writeConfigFile(t, home, "command_timeout: whenever\n")

	_, err := Load("")

	assert.ErrorContains(t, err, "invalid command_timeout")
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := setupEnv(t)
	writeJournal(t, home, ".hledger.journal")
	writeConfigFile(t, home, "journal_file: [not, closed\n")

	_, err := Load("")

	assert.ErrorContains(t, err, "failed to parse config file")
}
