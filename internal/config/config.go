package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Team source kinds accepted by TEAM_SOURCE
const (
	SourceFile       = "file"
	SourceHTTP       = "http"
	SourceS3         = "s3"
	SourceSQLite     = "sqlite"
	SourcePostgres   = "postgres"
	SourceClickHouse = "clickhouse"
	SourceMemory     = "memory"
)

// Config is the process configuration, read from the environment
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"5000"`
	GRPCPort    string `env:"GRPC_PORT" envDefault:"50051"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	PlayerCount      int    `env:"NUM_PLAYERS" envDefault:"12"`
	CompetitionCount int    `env:"NUM_COMPETITIONS" envDefault:"4"`
	Seed             uint64 `env:"LOTTERY_SEED" envDefault:"0"`

	TeamSource    string        `env:"TEAM_SOURCE" envDefault:"file"`
	TeamsFile     string        `env:"TEAMS_FILE" envDefault:"draft_perc.csv"`
	TeamsURL      string        `env:"TEAMS_URL"`
	TeamsCacheTTL time.Duration `env:"TEAMS_CACHE_TTL" envDefault:"5m"`

	S3Bucket string `env:"S3_BUCKET"`
	S3Key    string `env:"S3_KEY" envDefault:"draft_perc.csv"`

	SQLiteFile  string `env:"SQLITE_FILE" envDefault:"dev.sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`

	ClickHouseAddr     string `env:"CLICKHOUSE_ADDR" envDefault:"localhost:9000"`
	ClickHouseDB       string `env:"CLICKHOUSE_DB" envDefault:"default"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER" envDefault:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`

	NATSURL     string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"draft.events"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	MCPPath        string   `env:"MCP_PATH" envDefault:"/mcp"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the configuration
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.TeamSource = strings.ToLower(strings.TrimSpace(cfg.TeamSource))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDevelopment reports whether local stand-ins (embedded NATS) should be used
func (c Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Validate checks value ranges and the settings each team source requires
func (c Config) Validate() error {
	var errs []error

	if c.PlayerCount < 1 {
		errs = append(errs, fmt.Errorf("NUM_PLAYERS must be at least 1, got %d", c.PlayerCount))
	}
	if c.CompetitionCount < 1 {
		errs = append(errs, fmt.Errorf("NUM_COMPETITIONS must be at least 1, got %d", c.CompetitionCount))
	}
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if strings.TrimSpace(c.GRPCPort) == "" {
		errs = append(errs, errors.New("GRPC_PORT must not be empty"))
	}

	switch c.TeamSource {
	case SourceFile:
		if c.TeamsFile == "" {
			errs = append(errs, errors.New("TEAMS_FILE is required for the file team source"))
		}
	case SourceHTTP:
		if c.TeamsURL == "" {
			errs = append(errs, errors.New("TEAMS_URL is required for the http team source"))
		}
	case SourceS3:
		if c.S3Bucket == "" || c.S3Key == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_KEY are required for the s3 team source"))
		}
	case SourceSQLite:
		if c.SQLiteFile == "" {
			errs = append(errs, errors.New("SQLITE_FILE is required for the sqlite team source"))
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres team source"))
		}
	case SourceClickHouse:
		if c.ClickHouseAddr == "" {
			errs = append(errs, errors.New("CLICKHOUSE_ADDR is required for the clickhouse team source"))
		}
	case SourceMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown TEAM_SOURCE %q (valid: file, http, s3, sqlite, postgres, clickhouse, memory)", c.TeamSource))
	}

	if c.MCPPath != "" && !strings.HasPrefix(c.MCPPath, "/") {
		errs = append(errs, fmt.Errorf("MCP_PATH must start with '/', got %q", c.MCPPath))
	}

	return errors.Join(errs...)
}
