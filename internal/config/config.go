/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the entityview CLI configuration.
//
// Settings come from a YAML file (see FindConfigPath), then from a .env file,
// then from the environment, which wins. Missing values get defaults and the
// result is validated before use.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entityview/datastore/ddb"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/session"
	"github.com/suparena/entityview/storagemodels"
)

// Backends lists the supported storage backends.
var Backends = []string{"memory", "sqlite", "dynamodb"}

// Environment overrides.
const (
	EnvBackend     = "ENTITYVIEW_BACKEND"
	EnvSQLitePath  = "ENTITYVIEW_SQLITE_PATH"
	EnvLogLevel    = "ENTITYVIEW_LOG_LEVEL"
	EnvFlushMode   = "ENTITYVIEW_FLUSH_MODE"
	EnvDDBTable    = "AWS_DDB_TABLE"
	EnvDDBEndpoint = "AWS_DDB_ENDPOINT"
	EnvRegion      = "AWS_REGION"
	EnvAccessKey   = "AWS_ACCESS_KEY"
	EnvSecretKey   = "AWS_SECRET_KEY"
	EnvPageSize    = "AWS_DDB_PAGE_SIZE"
)

// Config is the root configuration
type Config struct {
	Backend   string         `yaml:"backend"`    // memory | sqlite | dynamodb
	FlushMode string         `yaml:"flush_mode"` // auto | commit
	LogLevel  string         `yaml:"log_level"`  // debug | info | warn | error
	SQLite    SQLiteConfig   `yaml:"sqlite"`
	DynamoDB  DynamoDBConfig `yaml:"dynamodb"`
}

// SQLiteConfig holds the sqlite backend settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DynamoDBConfig holds the dynamodb backend settings. Credentials are
// normally left to the environment.
type DynamoDBConfig struct {
	Table        string   `yaml:"table"`
	Region       string   `yaml:"region"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	AccessKey    string   `yaml:"access_key,omitempty"`
	SecretKey    string   `yaml:"secret_key,omitempty"`
	CreateTable  bool     `yaml:"create_table"`
	PageSize     int32    `yaml:"page_size"`
	MaxRetries   int      `yaml:"max_retries"`
	RetryBackoff Duration `yaml:"retry_backoff"`
}

// Duration wraps time.Duration for YAML
type Duration time.Duration

// UnmarshalYAML parses values such as "250ms".
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the settings used when there is no config file
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads the .env file at envFile (if present), then the config file
// found by FindConfigPath (if any), then applies environment overrides. It
// returns the config and the path it was read from.
func Load(envFile string) (*Config, string, error) {
	return LoadFromPath(FindConfigPath(), envFile)
}

// LoadFromPath is Load with an explicit config path. An empty path means
// defaults only.
func LoadFromPath(path, envFile string) (*Config, string, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, path, err
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, path, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, path, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, path, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func loadDotEnv(envFile string) error {
	if envFile == "" {
		return nil
	}
	// godotenv never overrides variables that are already set
	if err := godotenv.Load(envFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Backend, EnvBackend)
	setString(&c.SQLite.Path, EnvSQLitePath)
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.FlushMode, EnvFlushMode)
	setString(&c.DynamoDB.Table, EnvDDBTable)
	setString(&c.DynamoDB.Endpoint, EnvDDBEndpoint)
	setString(&c.DynamoDB.Region, EnvRegion)
	setString(&c.DynamoDB.AccessKey, EnvAccessKey)
	setString(&c.DynamoDB.SecretKey, EnvSecretKey)

	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return errors.NewValidationError(EnvPageSize, fmt.Sprintf("not a number: %q", v))
		}
		c.DynamoDB.PageSize = int32(n)
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// applyDefaults fills in missing values
func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.FlushMode == "" {
		c.FlushMode = "auto"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "./entityview.db"
	}
	defaults := storagemodels.DefaultScanOptions()
	if c.DynamoDB.PageSize == 0 {
		c.DynamoDB.PageSize = defaults.PageSize
	}
	if c.DynamoDB.MaxRetries == 0 {
		c.DynamoDB.MaxRetries = defaults.MaxRetries
	}
	if c.DynamoDB.RetryBackoff == 0 {
		c.DynamoDB.RetryBackoff = Duration(defaults.RetryBackoff)
	}
}

// Validate checks the settings of the selected backend.
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return errors.NewValidationError("backend", fmt.Sprintf("unknown backend %q, want one of %v", c.Backend, Backends))
	}
	if c.FlushMode != "auto" && c.FlushMode != "commit" {
		return errors.NewValidationError("flush_mode", fmt.Sprintf("unknown flush mode %q, want auto or commit", c.FlushMode))
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return errors.NewValidationError("log_level", err.Error())
	}

	switch c.Backend {
	case "sqlite":
		if c.SQLite.Path == "" {
			return errors.NewValidationError("sqlite.path", "required for the sqlite backend")
		}
	case "dynamodb":
		if c.DynamoDB.Table == "" {
			return errors.NewValidationError("dynamodb.table", "required for the dynamodb backend")
		}
		if c.DynamoDB.Region == "" {
			return errors.NewValidationError("dynamodb.region", "required for the dynamodb backend")
		}
		if c.DynamoDB.AccessKey != "" && c.DynamoDB.SecretKey == "" {
			return errors.NewValidationError("dynamodb.secret_key", "required with an access key")
		}
		if c.DynamoDB.PageSize < 0 || c.DynamoDB.MaxRetries < 0 || c.DynamoDB.RetryBackoff < 0 {
			return errors.NewValidationError("dynamodb", "page_size, max_retries and retry_backoff must not be negative")
		}
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}

// Mode returns the session flush mode.
func (c *Config) Mode() session.FlushMode {
	if c.FlushMode == "commit" {
		return session.FlushCommit
	}
	return session.FlushAuto
}

// ClientConfig returns the DynamoDB connection settings.
func (c *Config) ClientConfig() ddb.ClientConfig {
	return ddb.ClientConfig{
		AccessKey: c.DynamoDB.AccessKey,
		SecretKey: c.DynamoDB.SecretKey,
		Region:    c.DynamoDB.Region,
		Endpoint:  c.DynamoDB.Endpoint,
	}
}

// ScanOptions returns the DynamoDB paging and retry settings.
func (c *Config) ScanOptions() []storagemodels.ScanOption {
	return []storagemodels.ScanOption{
		storagemodels.WithPageSize(c.DynamoDB.PageSize),
		storagemodels.WithMaxRetries(c.DynamoDB.MaxRetries),
		storagemodels.WithRetryBackoff(c.DynamoDB.RetryBackoff.Duration()),
	}
}
