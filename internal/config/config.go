package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/famcal-notifier/internal/logger"
)

// Config holds the settings of the notifier process.
type Config struct {
	// HTTPAddress is the listen address of the trigger ingress.
	HTTPAddress string `yaml:"http_addr"`
	// GRPCHealthAddress is the listen address of the gRPC health service; empty disables it.
	GRPCHealthAddress string `yaml:"grpc_health_addr"`
	// LogLevel is the minimum zap level.
	LogLevel string `yaml:"log_level"`
	// LogFormat is console or json.
	LogFormat string `yaml:"log_format"`
	// Timezone is the IANA zone used for clock labels in notifications.
	Timezone string `yaml:"timezone"`
	// Timeout bounds request header reads and graceful shutdown.
	Timeout time.Duration `yaml:"timeout"`
	// Store selects the entity store.
	Store Store `yaml:"store"`
	// Push selects the push transport.
	Push Push `yaml:"push"`
	// Tasks selects the delayed task queue.
	Tasks Tasks `yaml:"tasks"`
	// Escalation tunes unassigned-event escalation.
	Escalation Escalation `yaml:"escalation"`
	// Sweep tunes the daily unassigned sweep.
	Sweep Sweep `yaml:"sweep"`
}

// Store configures the entity store backend.
type Store struct {
	// Driver is firestore, sqlite, postgres or mysql.
	Driver string `yaml:"driver"`
	// ProjectID is the Firestore project; detected from the environment when empty.
	ProjectID string `yaml:"project_id,omitempty"`
	// CredentialsFile is an optional service account key.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	// DSN is the data source of SQL drivers.
	DSN string `yaml:"dsn,omitempty"`
}

// Push configures the push transport.
type Push struct {
	// Driver is fcm or log.
	Driver string `yaml:"driver"`
	// ProjectID is the Firebase project.
	ProjectID string `yaml:"project_id,omitempty"`
	// CredentialsFile is an optional service account key.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// Tasks configures the delayed task queue.
type Tasks struct {
	// Driver is cloudtasks or log.
	Driver string `yaml:"driver"`
	// ProjectID is the Cloud Tasks project.
	ProjectID string `yaml:"project_id,omitempty"`
	// Location is the Cloud Tasks region.
	Location string `yaml:"location,omitempty"`
	// CredentialsFile is an optional service account key.
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	// Queue is the queue of escalation tasks.
	Queue string `yaml:"queue"`
	// TargetURL is the public URL of the escalation callback.
	TargetURL string `yaml:"target_url,omitempty"`
	// CallbackSecret signs and verifies callback tokens.
	CallbackSecret string `yaml:"callback_secret,omitempty"`
}

// Escalation tunes unassigned-event escalation.
type Escalation struct {
	// HorizonDays is the furthest an event may be to get an escalation.
	HorizonDays int `yaml:"horizon_days"`
	// Delay is how long after the write the escalation fires.
	Delay time.Duration `yaml:"delay"`
}

// Sweep tunes the daily unassigned sweep.
type Sweep struct {
	// Enabled turns the in-process schedule on; nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`
	// Schedule is a standard five-field cron expression evaluated in UTC.
	Schedule string `yaml:"schedule"`
	// Concurrency bounds how many families are visited at once.
	Concurrency int `yaml:"concurrency"`
}

// IsEnabled reports whether the sweep runs on its schedule.
func (s *Sweep) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Driver names.
const (
	DriverFirestore  = "firestore"
	DriverSQLite     = "sqlite"
	DriverPostgres   = "postgres"
	DriverMySQL      = "mysql"
	DriverFCM        = "fcm"
	DriverCloudTasks = "cloudtasks"
	DriverLog        = "log"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "famcal-notifier.yaml"

	// DefaultHTTPAddress is the default ingress listen address.
	DefaultHTTPAddress = ":8080"

	// DefaultLogLevel is the default zap level.
	DefaultLogLevel = "info"

	// DefaultLogFormat renders human-readable log lines.
	DefaultLogFormat = "console"

	// DefaultTimezone is the default zone of clock labels.
	DefaultTimezone = "UTC"

	// DefaultTimeout is the default header read and shutdown timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultSQLiteDSN is the default database of the sqlite driver.
	DefaultSQLiteDSN = "file:famcal-notifier.db"

	// DefaultQueue is the default escalation queue.
	DefaultQueue = "unassigned-alerts"

	// DefaultHorizonDays is the default escalation horizon.
	DefaultHorizonDays = 7

	// DefaultEscalationDelay is the default escalation delay.
	DefaultEscalationDelay = 24 * time.Hour

	// DefaultSweepSchedule runs the sweep daily at 08:00 UTC.
	DefaultSweepSchedule = "0 8 * * *"

	// DefaultSweepConcurrency is the default number of families swept at once.
	DefaultSweepConcurrency = 4

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrUnknownDriver is returned for unsupported store, push or tasks drivers.
	ErrUnknownDriver = errors.New("unknown driver")
	// ErrMissingSetting is returned when a driver lacks a required setting.
	ErrMissingSetting = errors.New("required setting is missing")
	// ErrInvalidLogLevel is returned for unknown log levels.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned for unknown log encodings.
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Load reads configuration from the provided path, applies defaults and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold the callback secret.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the settings.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	applyDefaults(settings)

	if err := validateAddress("http_addr", settings.HTTPAddress); err != nil {
		return err
	}

	if settings.GRPCHealthAddress != "" {
		if err := validateAddress("grpc_health_addr", settings.GRPCHealthAddress); err != nil {
			return err
		}
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, settings.LogLevel)
	}

	if settings.LogFormat != string(logger.EncodingConsole) && settings.LogFormat != string(logger.EncodingJSON) {
		return fmt.Errorf("%w: log_format %q", ErrInvalidLogFormat, settings.LogFormat)
	}

	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	if err := validateStore(&settings.Store); err != nil {
		return err
	}

	if err := validatePush(&settings.Push); err != nil {
		return err
	}

	if err := validateTasks(&settings.Tasks); err != nil {
		return err
	}

	if _, err := cron.ParseStandard(settings.Sweep.Schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule: %w", err)
	}

	return nil
}

// Location returns the configured zone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

func applyDefaults(settings *Config) {
	if settings.HTTPAddress == "" {
		settings.HTTPAddress = DefaultHTTPAddress
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if settings.LogFormat == "" {
		settings.LogFormat = DefaultLogFormat
	}

	if settings.Timezone == "" {
		settings.Timezone = DefaultTimezone
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.Store.Driver == "" {
		settings.Store.Driver = DriverSQLite
	}

	if settings.Store.Driver == DriverSQLite && settings.Store.DSN == "" {
		settings.Store.DSN = DefaultSQLiteDSN
	}

	if settings.Push.Driver == "" {
		settings.Push.Driver = DriverLog
	}

	if settings.Tasks.Driver == "" {
		settings.Tasks.Driver = DriverLog
	}

	if settings.Tasks.Queue == "" {
		settings.Tasks.Queue = DefaultQueue
	}

	if settings.Escalation.HorizonDays <= 0 {
		settings.Escalation.HorizonDays = DefaultHorizonDays
	}

	if settings.Escalation.Delay <= 0 {
		settings.Escalation.Delay = DefaultEscalationDelay
	}

	if settings.Sweep.Schedule == "" {
		settings.Sweep.Schedule = DefaultSweepSchedule
	}

	if settings.Sweep.Concurrency <= 0 {
		settings.Sweep.Concurrency = DefaultSweepConcurrency
	}
}

func validateAddress(key, address string) error {
	if _, err := net.ResolveTCPAddr("tcp", address); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}

	return nil
}

func validateStore(s *Store) error {
	switch s.Driver {
	case DriverFirestore:
		return nil
	case DriverSQLite, DriverPostgres, DriverMySQL:
		if s.DSN == "" {
			return fmt.Errorf("%w: store.dsn", ErrMissingSetting)
		}

		return nil
	default:
		return fmt.Errorf("%w: store.driver %q", ErrUnknownDriver, s.Driver)
	}
}

func validatePush(p *Push) error {
	if !slices.Contains([]string{DriverFCM, DriverLog}, p.Driver) {
		return fmt.Errorf("%w: push.driver %q", ErrUnknownDriver, p.Driver)
	}

	return nil
}

func validateTasks(t *Tasks) error {
	switch t.Driver {
	case DriverLog:
	case DriverCloudTasks:
		for key, value := range map[string]string{
			"tasks.project_id":      t.ProjectID,
			"tasks.location":        t.Location,
			"tasks.target_url":      t.TargetURL,
			"tasks.callback_secret": t.CallbackSecret,
		} {
			if value == "" {
				return fmt.Errorf("%w: %s", ErrMissingSetting, key)
			}
		}
	default:
		return fmt.Errorf("%w: tasks.driver %q", ErrUnknownDriver, t.Driver)
	}

	if t.TargetURL == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(t.TargetURL); err != nil {
		return fmt.Errorf("invalid tasks.target_url: %w", err)
	}

	return nil
}
