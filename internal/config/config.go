package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env"`            // current application environment (local, dev, production)
	TelegramAPIToken string  `mapstructure:"-"`              // Telegram API token loaded from environment
	QuestionsPath    string  `mapstructure:"questions_path"` // path to the JSON question bank
	Storage          Storage `mapstructure:"storage"`        // where progression stats live
	DB               DB      `mapstructure:"database"`       // PostgreSQL settings, used by the postgres driver
	Recent           Recent  `mapstructure:"recent"`         // where recently served ids live
	Redis            Redis   `mapstructure:"redis"`          // Redis settings, used by the redis recent driver
	Quiz             Quiz    `mapstructure:"quiz"`           // session parameters
}

// Storage selects the progression stats backend.
type Storage struct {
	Driver     string `mapstructure:"driver"`      // memory, sqlite or postgres
	SQLitePath string `mapstructure:"sqlite_path"` // database file for the sqlite driver
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	Migrate         bool          `mapstructure:"migrate"`           // apply embedded migrations on startup
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Recent selects the recently-served history backend.
type Recent struct {
	Driver string `mapstructure:"driver"` // memory or redis
}

// Redis contains connection settings for the redis recent driver.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"` // expiry of a user's history after the last session
}

// Quiz holds the defaults of every session.
type Quiz struct {
	QuestionCount   int           `mapstructure:"question_count"`
	TimePerQuestion int           `mapstructure:"time_per_question"` // seconds
	RevealDelay     time.Duration `mapstructure:"reveal_delay"`      // pause before the next question
	RecentWindow    int           `mapstructure:"recent_window"`     // 0 means twice the question count
	RecentCapacity  int           `mapstructure:"recent_capacity"`   // served ids kept per user
	SessionIdleTTL  time.Duration `mapstructure:"session_idle_ttl"`  // idle sessions older than this are abandoned
	SweepSchedule   string        `mapstructure:"sweep_schedule"`    // cron spec of the idle session sweep
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// Values already present in the environment win over .env.
	_ = godotenv.Load()

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Sensitive values come from the environment only.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("questions_path", "assets/data/questions.json")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.sqlite_path", "quiz.db")

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("database.migrate", true)

	v.SetDefault("recent.driver", DriverMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "168h")

	v.SetDefault("quiz.question_count", 10)
	v.SetDefault("quiz.time_per_question", 30)
	v.SetDefault("quiz.reveal_delay", "2s")
	v.SetDefault("quiz.recent_window", 0)
	v.SetDefault("quiz.recent_capacity", 100)
	v.SetDefault("quiz.session_idle_ttl", "15m")
	v.SetDefault("quiz.sweep_schedule", "@every 1m")
}

// Validate checks required values and driver names.
func (c *Config) Validate() error {
	if c.TelegramAPIToken == "" {
		return fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.Recent.Driver {
	case DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("%w: unknown recent driver %q", ErrInvalidConfig, c.Recent.Driver)
	}

	if c.Quiz.QuestionCount <= 0 {
		return fmt.Errorf("%w: quiz.question_count must be positive", ErrInvalidConfig)
	}
	if c.Quiz.TimePerQuestion <= 0 {
		return fmt.Errorf("%w: quiz.time_per_question must be positive", ErrInvalidConfig)
	}
	if c.Quiz.RevealDelay < 0 {
		return fmt.Errorf("%w: quiz.reveal_delay must not be negative", ErrInvalidConfig)
	}

	return nil
}
