package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lcalzada-xor/devcert/internal/core/services/compliance"
)

// Commands
const (
	CommandCSV      = "csv"
	CommandPanorama = "panorama"
	CommandFirewall = "firewall"
)

// Report formats
const (
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

const (
	DefaultOutputFile   = "device_certificate_report.pdf"
	DefaultSettingsFile = "settings.yaml"
	DefaultTimeout      = 30 * time.Second
	DefaultSchedule     = compliance.ScheduleAuto
)

var (
	ErrUnknownCommand     = errors.New("unknown command")
	ErrMissingCSVFile     = errors.New("csv file is required (--csv-file)")
	ErrMissingHostname    = errors.New("hostname is required (--hostname)")
	ErrMissingCredentials = errors.New("username and password or an API key are required")
)

// Config holds all application configuration.
type Config struct {
	Command      string
	SettingsPath string

	OutputFile  string
	Format      string
	Schedule    compliance.ScheduleMode
	LogoPath    string
	MetricsFile string
	Trace       bool
	Debug       bool
	LogJSON     bool

	// csv
	CSVFile     string
	CleanedFile string

	// panorama, firewall
	Hostname string
	Username string
	Password string
	APIKey   string
	Insecure bool
	Timeout  time.Duration
}

// Settings is the layout of the optional YAML settings file.
type Settings struct {
	OutputFile  string `yaml:"output_file"`
	Format      string `yaml:"format"`
	Schedule    string `yaml:"schedule"`
	Logo        string `yaml:"logo"`
	MetricsFile string `yaml:"metrics_file"`
	Debug       *bool  `yaml:"debug"`

	CSV struct {
		File        string `yaml:"file"`
		CleanedFile string `yaml:"cleaned_file"`
	} `yaml:"csv"`

	Panorama Connection `yaml:"panorama"`
	Firewall Connection `yaml:"firewall"`
}

// Connection holds PAN-OS API settings for one appliance type.
type Connection struct {
	Hostname string        `yaml:"hostname"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	APIKey   string        `yaml:"api_key"`
	Insecure *bool         `yaml:"insecure"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Load builds the configuration for command from defaults, the settings
// file, DEVCERT_* environment variables and args. Later sources override
// earlier ones.
func Load(command string, args []string) (*Config, error) {
	switch command {
	case CommandCSV, CommandPanorama, CommandFirewall:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	cfg := &Config{
		Command:    command,
		OutputFile: DefaultOutputFile,
		Format:     FormatPDF,
		Schedule:   DefaultSchedule,
		Timeout:    DefaultTimeout,
	}

	// Settings file
	path, explicit := settingsPath(args)
	cfg.SettingsPath = path
	settings, err := LoadSettings(path)
	switch {
	case err == nil:
		cfg.applySettings(settings)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg.SettingsPath = ""
	default:
		return nil, err
	}

	// Environment Variables
	cfg.OutputFile = getEnv("DEVCERT_OUTPUT_FILE", cfg.OutputFile)
	cfg.Format = getEnv("DEVCERT_FORMAT", cfg.Format)
	schedule := getEnv("DEVCERT_SCHEDULE", string(cfg.Schedule))
	cfg.LogoPath = getEnv("DEVCERT_LOGO", cfg.LogoPath)
	cfg.MetricsFile = getEnv("DEVCERT_METRICS_FILE", cfg.MetricsFile)
	cfg.Trace = getEnvBool("DEVCERT_TRACE", cfg.Trace)
	cfg.Debug = getEnvBool("DEVCERT_DEBUG", cfg.Debug)
	cfg.LogJSON = getEnvBool("DEVCERT_LOG_JSON", cfg.LogJSON)
	cfg.CSVFile = getEnv("DEVCERT_CSV_FILE", cfg.CSVFile)
	cfg.CleanedFile = getEnv("DEVCERT_CLEANED_FILE", cfg.CleanedFile)
	cfg.Hostname = getEnv("DEVCERT_HOSTNAME", cfg.Hostname)
	cfg.Username = getEnv("DEVCERT_USERNAME", cfg.Username)
	cfg.Password = getEnv("DEVCERT_PASSWORD", cfg.Password)
	cfg.APIKey = getEnv("DEVCERT_API_KEY", cfg.APIKey)
	cfg.Insecure = getEnvBool("DEVCERT_INSECURE", cfg.Insecure)
	cfg.Timeout = getEnvDuration("DEVCERT_TIMEOUT", cfg.Timeout)

	// Command Line Flags (Override Env)
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.StringVar(&cfg.SettingsPath, "config", cfg.SettingsPath, "Path to a YAML settings file")
	fs.StringVar(&cfg.OutputFile, "output-file", cfg.OutputFile, "Path to the output report")
	fs.StringVar(&cfg.OutputFile, "o", cfg.OutputFile, "Shorthand for --output-file")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Report format: pdf, json or csv")
	fs.StringVar(&schedule, "schedule", schedule, "Patch schedule: standard, client-package or auto (auto applies the GlobalProtect schedule to devices with a client package)")
	fs.StringVar(&cfg.LogoPath, "logo", cfg.LogoPath, "Image placed at the top of the report")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this file")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "Print trace spans to stderr")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log in JSON format")

	switch command {
	case CommandCSV:
		fs.StringVar(&cfg.CSVFile, "csv-file", cfg.CSVFile, "Path to the Panorama CSV export")
		fs.StringVar(&cfg.CSVFile, "f", cfg.CSVFile, "Shorthand for --csv-file")
		fs.StringVar(&cfg.CleanedFile, "cleaned-file", cfg.CleanedFile, "Save the cleaned CSV to this path")
	default:
		fs.StringVar(&cfg.Hostname, "hostname", cfg.Hostname, "Hostname or IP address of the appliance")
		fs.StringVar(&cfg.Hostname, "h", cfg.Hostname, "Shorthand for --hostname")
		fs.StringVar(&cfg.Username, "username", cfg.Username, "API username")
		fs.StringVar(&cfg.Username, "u", cfg.Username, "Shorthand for --username")
		fs.StringVar(&cfg.Password, "password", cfg.Password, "API password")
		fs.StringVar(&cfg.Password, "p", cfg.Password, "Shorthand for --password")
		fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "API key (skips keygen)")
		fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Skip TLS certificate verification")
		fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	mode, err := compliance.ParseScheduleMode(schedule)
	if err != nil {
		return nil, err
	}
	cfg.Schedule = mode

	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.OutputFile == DefaultOutputFile && cfg.Format != FormatPDF {
		cfg.OutputFile = strings.TrimSuffix(DefaultOutputFile, filepath.Ext(DefaultOutputFile)) + "." + cfg.Format
	}

	return cfg, nil
}

// LoadSettings reads a YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return &s, nil
}

func (c *Config) applySettings(s *Settings) {
	setString(&c.OutputFile, s.OutputFile)
	setString(&c.Format, s.Format)
	if s.Schedule != "" {
		c.Schedule = compliance.ScheduleMode(s.Schedule)
	}
	setString(&c.LogoPath, s.Logo)
	setString(&c.MetricsFile, s.MetricsFile)
	if s.Debug != nil {
		c.Debug = *s.Debug
	}

	setString(&c.CSVFile, s.CSV.File)
	setString(&c.CleanedFile, s.CSV.CleanedFile)

	conn := s.Panorama
	if c.Command == CommandFirewall {
		conn = s.Firewall
	}
	setString(&c.Hostname, conn.Hostname)
	setString(&c.Username, conn.Username)
	setString(&c.Password, conn.Password)
	setString(&c.APIKey, conn.APIKey)
	if conn.Insecure != nil {
		c.Insecure = *conn.Insecure
	}
	if conn.Timeout > 0 {
		c.Timeout = conn.Timeout
	}
}

// Validate checks that the values the command needs are present.
func (c *Config) Validate() error {
	if c.OutputFile == "" {
		return errors.New("output file must not be empty")
	}
	switch c.Format {
	case FormatPDF, FormatJSON, FormatCSV, "":
	default:
		return fmt.Errorf("unknown report format %q (want pdf, json or csv)", c.Format)
	}

	switch c.Command {
	case CommandCSV:
		if c.CSVFile == "" {
			return ErrMissingCSVFile
		}
	case CommandPanorama, CommandFirewall:
		if c.Hostname == "" {
			return ErrMissingHostname
		}
		if c.APIKey == "" && (c.Username == "" || c.Password == "") {
			return ErrMissingCredentials
		}
		if c.Timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Command)
	}
	return nil
}

// settingsPath finds --config in args ahead of flag parsing, falling back to
// DEVCERT_CONFIG and then the default file name. explicit is false only for
// the default.
func settingsPath(args []string) (path string, explicit bool) {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v, true
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1], true
		}
	}
	if v, ok := os.LookupEnv("DEVCERT_CONFIG"); ok && v != "" {
		return v, true
	}
	return DefaultSettingsFile, false
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
