package config

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/devcert/internal/core/services/compliance"
)

// chdir runs the test from an empty directory so a stray settings.yaml is
// never picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	return dir
}

func writeSettings(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultSettingsFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load(CommandCSV, nil)
	require.NoError(t, err)

	assert.Equal(t, CommandCSV, cfg.Command)
	assert.Equal(t, DefaultOutputFile, cfg.OutputFile)
	assert.Equal(t, FormatPDF, cfg.Format)
	assert.Equal(t, compliance.ScheduleAuto, cfg.Schedule)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Empty(t, cfg.SettingsPath)
	assert.False(t, cfg.Debug)
}

func TestLoad_Flags(t *testing.T) {
	chdir(t)

	cfg, err := Load(CommandCSV, []string{"-f", "panorama.csv", "-o", "out.pdf", "--cleaned-file", "cleaned.csv", "--schedule", "standard", "--debug"})
	require.NoError(t, err)

	assert.Equal(t, "panorama.csv", cfg.CSVFile)
	assert.Equal(t, "out.pdf", cfg.OutputFile)
	assert.Equal(t, "cleaned.csv", cfg.CleanedFile)
	assert.Equal(t, compliance.ScheduleStandard, cfg.Schedule)
	assert.True(t, cfg.Debug)
}

func TestLoad_FormatDefaultsOutputExtension(t *testing.T) {
	chdir(t)

	cfg, err := Load(CommandCSV, []string{"--format", "JSON"})
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, "device_certificate_report.json", cfg.OutputFile)

	cfg, err = Load(CommandCSV, []string{"--format", "csv", "-o", "inventory.out"})
	require.NoError(t, err)
	assert.Equal(t, "inventory.out", cfg.OutputFile)
}

func TestLoad_ConnectionFlags(t *testing.T) {
	chdir(t)

	cfg, err := Load(CommandPanorama, []string{"--hostname", "pano.example.com", "-u", "admin", "-p", "secret", "--insecure", "--timeout", "5s"})
	require.NoError(t, err)

	assert.Equal(t, "pano.example.com", cfg.Hostname)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_HostnameShorthand(t *testing.T) {
	chdir(t)

	for _, command := range []string{CommandPanorama, CommandFirewall} {
		cfg, err := Load(command, []string{"-h", "10.0.0.1", "--api-key", "k"})
		require.NoError(t, err, command)
		assert.Equal(t, "10.0.0.1", cfg.Hostname, command)
	}

	_, err := Load(CommandCSV, []string{"-h"})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestLoad_CommandSpecificFlags(t *testing.T) {
	chdir(t)

	_, err := Load(CommandCSV, []string{"--hostname", "fw"})
	assert.Error(t, err)

	_, err = Load(CommandFirewall, []string{"--csv-file", "x.csv"})
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	dir := chdir(t)
	writeSettings(t, dir, `
output_file: from-file.pdf
schedule: client-package
logo: logo.png
panorama:
  hostname: file-pano
  username: file-user
  password: file-pass
  timeout: 45s
firewall:
  hostname: file-fw
`)

	// File only
	cfg, err := Load(CommandPanorama, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettingsFile, cfg.SettingsPath)
	assert.Equal(t, "from-file.pdf", cfg.OutputFile)
	assert.Equal(t, compliance.ScheduleClientPackage, cfg.Schedule)
	assert.Equal(t, "logo.png", cfg.LogoPath)
	assert.Equal(t, "file-pano", cfg.Hostname)
	assert.Equal(t, 45*time.Second, cfg.Timeout)

	// Env overrides file
	t.Setenv("DEVCERT_HOSTNAME", "env-pano")
	t.Setenv("DEVCERT_SCHEDULE", "standard")
	cfg, err = Load(CommandPanorama, nil)
	require.NoError(t, err)
	assert.Equal(t, "env-pano", cfg.Hostname)
	assert.Equal(t, compliance.ScheduleStandard, cfg.Schedule)
	assert.Equal(t, "file-user", cfg.Username)

	// Flag overrides env
	cfg, err = Load(CommandPanorama, []string{"--hostname", "flag-pano"})
	require.NoError(t, err)
	assert.Equal(t, "flag-pano", cfg.Hostname)

	// The firewall section is used for the firewall command.
	require.NoError(t, os.Unsetenv("DEVCERT_HOSTNAME"))
	cfg, err = Load(CommandFirewall, nil)
	require.NoError(t, err)
	assert.Equal(t, "file-fw", cfg.Hostname)
	assert.Empty(t, cfg.Username)
}

func TestLoad_ExplicitSettingsFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("csv:\n  file: export.csv\n  cleaned_file: clean.csv\n"), 0600))

	cfg, err := Load(CommandCSV, []string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.SettingsPath)
	assert.Equal(t, "export.csv", cfg.CSVFile)
	assert.Equal(t, "clean.csv", cfg.CleanedFile)

	cfg, err = Load(CommandCSV, []string{"--config=" + path})
	require.NoError(t, err)
	assert.Equal(t, "export.csv", cfg.CSVFile)
}

func TestLoad_ExplicitSettingsFileMissing(t *testing.T) {
	dir := chdir(t)

	_, err := Load(CommandCSV, []string{"--config", filepath.Join(dir, "nope.yaml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidSettings(t *testing.T) {
	dir := chdir(t)
	writeSettings(t, dir, "output_file: [unterminated\n")

	_, err := Load(CommandCSV, nil)
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	chdir(t)

	_, err := Load("ftp", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Load(CommandCSV, []string{"--schedule", "sometimes"})
	assert.Error(t, err)

	_, err = Load(CommandCSV, []string{"extra"})
	assert.Error(t, err)

	_, err = Load(CommandCSV, []string{"-help"})
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"csv ok", Config{Command: CommandCSV, OutputFile: "r.pdf", CSVFile: "x.csv"}, nil},
		{"csv missing file", Config{Command: CommandCSV, OutputFile: "r.pdf"}, ErrMissingCSVFile},
		{"panorama missing host", Config{Command: CommandPanorama, OutputFile: "r.pdf", Username: "a", Password: "b", Timeout: time.Second}, ErrMissingHostname},
		{"panorama missing password", Config{Command: CommandPanorama, OutputFile: "r.pdf", Hostname: "h", Username: "a", Timeout: time.Second}, ErrMissingCredentials},
		{"firewall api key", Config{Command: CommandFirewall, OutputFile: "r.pdf", Hostname: "h", APIKey: "k", Timeout: time.Second}, nil},
		{"unknown", Config{Command: "ssh", OutputFile: "r.pdf"}, ErrUnknownCommand},
		{"json format", Config{Command: CommandCSV, OutputFile: "r.json", Format: FormatJSON, CSVFile: "x.csv"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_UnknownFormat(t *testing.T) {
	cfg := Config{Command: CommandCSV, OutputFile: "r.xml", Format: "xml", CSVFile: "x.csv"}
	assert.ErrorContains(t, cfg.Validate(), "unknown report format")
}

func TestPromptMissing_NotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	cfg := &Config{Command: CommandPanorama}
	var out bytes.Buffer
	require.NoError(t, cfg.PromptMissing(r, &out))

	assert.Empty(t, out.String())
	assert.Empty(t, cfg.Hostname)
}

func TestPromptLine(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  pano.example.com \nadmin"))

	host, err := promptLine(r, &out, "Panorama hostname or IP")
	require.NoError(t, err)
	assert.Equal(t, "pano.example.com", host)
	assert.Equal(t, "Panorama hostname or IP: ", out.String())

	user, err := promptLine(r, &out, "Panorama username")
	require.NoError(t, err)
	assert.Equal(t, "admin", user)

	_, err = promptLine(r, &out, "Panorama password")
	assert.Error(t, err)
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
}
