package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrTokenRequired is returned when TELEGRAM_BOT_TOKEN is not set.
	ErrTokenRequired = errors.New("config: TELEGRAM_BOT_TOKEN is required")
	// ErrAdminRequired is returned when ADMIN_ID is not set.
	ErrAdminRequired = errors.New("config: ADMIN_ID is required")
	// ErrInvalid wraps every other validation failure.
	ErrInvalid = errors.New("config: invalid value")
)

// Config holds all configuration for the bot and its tools.
type Config struct {
	// Telegram settings
	TelegramToken string        `env:"TELEGRAM_BOT_TOKEN" json:"-" validate:"required"`
	AdminID       int64         `env:"ADMIN_ID" json:"admin_id" validate:"required"`
	PollTimeout   time.Duration `env:"POLL_TIMEOUT, default=60s" json:"poll_timeout" validate:"min=0,max=10m"`

	// Storage settings
	DataDir      string `env:"DATA_DIR, default=./data" json:"data_dir" validate:"required"`
	DatabasePath string `env:"DATABASE_PATH" json:"database_path"`
	BackupPath   string `env:"BACKUP_PATH" json:"backup_path"`
	CoverDir     string `env:"COVER_DIR" json:"cover_dir"`
	TempDir      string `env:"TEMP_DIR" json:"temp_dir"`

	// Session settings
	SessionDriver string        `env:"SESSION_DRIVER, default=memory" json:"session_driver" validate:"oneof=memory redis"`
	SessionTTL    time.Duration `env:"SESSION_TTL, default=24h" json:"session_ttl" validate:"min=1m"`
	RedisAddr     string        `env:"REDIS_ADDR, default=localhost:6379" json:"redis_addr" validate:"required_if=SessionDriver redis"`
	RedisPassword string        `env:"REDIS_PASSWORD" json:"-"`
	RedisDB       int           `env:"REDIS_DB, default=0" json:"redis_db" validate:"min=0,max=15"`

	// Processing settings
	MaxConcurrentItems int  `env:"MAX_CONCURRENT_ITEMS, default=4" json:"max_concurrent_items" validate:"min=1,max=64"`
	DownloadMaxRetries uint `env:"DOWNLOAD_MAX_RETRIES, default=3" json:"download_max_retries" validate:"max=20"`
	CoverMaxSize       int  `env:"COVER_MAX_SIZE, default=1000" json:"cover_max_size" validate:"min=100,max=4000"`

	// Optional S3 settings for album covers
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION, default=us-east-1" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=auto" json:"log_format" validate:"oneof=text json auto"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level" validate:"oneof=debug info warn warning error"`
}

// S3Enabled returns true if album covers go to S3.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// Load reads configuration from environment variables. Paths left unset
// are derived from DataDir. Load does not validate; call ValidateBot or
// ValidateOffline depending on what will run.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with a custom lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.SetDataDir(cfg.DataDir)
	return cfg, nil
}

// SetDataDir moves the data directory and re-derives every path that was
// not set explicitly.
func (c *Config) SetDataDir(dir string) {
	old := c.DataDir
	c.DataDir = dir
	derive := func(p *string, name string) {
		if *p == "" || *p == filepath.Join(old, name) {
			*p = filepath.Join(dir, name)
		}
	}
	derive(&c.DatabasePath, "tagbot.db")
	derive(&c.BackupPath, "bot_data.json")
	derive(&c.CoverDir, "album_covers")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateBot checks everything the chat bot needs.
func (c *Config) ValidateBot() error {
	return mapErrors(validate.Struct(c))
}

// ValidateOffline checks everything except the chat credentials, for
// commands that only touch local state.
func (c *Config) ValidateOffline() error {
	return mapErrors(validate.StructExcept(c, "TelegramToken", "AdminID"))
}

func mapErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var out []error
	for _, fe := range verrs {
		switch fe.Field() {
		case "TelegramToken":
			out = append(out, ErrTokenRequired)
		case "AdminID":
			out = append(out, ErrAdminRequired)
		default:
			out = append(out, fmt.Errorf("%w: %s failed %q (got %v)", ErrInvalid, fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return errors.Join(out...)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{AdminID: %d, DataDir: %s, DatabasePath: %s, SessionDriver: %s, MaxConcurrentItems: %d, S3Bucket: %s, LogFormat: %s, LogLevel: %s}",
		c.AdminID,
		c.DataDir,
		c.DatabasePath,
		c.SessionDriver,
		c.MaxConcurrentItems,
		c.S3Bucket,
		c.LogFormat,
		c.LogLevel,
	)
}
