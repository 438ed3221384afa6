// Package config loads service configuration from defaults, an optional
// YAML file and SOT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

// Environment names the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Config is the root configuration.
type Config struct {
	Environment Environment `yaml:"environment" validate:"oneof=development staging production"`
	ServiceName string      `yaml:"service_name" validate:"required"`
	HTTPAddr    string      `yaml:"http_addr" validate:"required"`
	LogLevel    string      `yaml:"log_level"`

	Store    StoreConfig     `yaml:"store"`
	Graph    GraphConfig     `yaml:"graph"`
	Schema   SchemaConfig    `yaml:"schema"`
	Analysis AnalysisConfig  `yaml:"analysis"`
	Sources  []domain.Source `yaml:"sources" validate:"dive"`

	Tracing TracingConfig `yaml:"tracing"`
	Events  EventsConfig  `yaml:"events"`
	Auth    AuthConfig    `yaml:"auth"`
	MCP     MCPConfig     `yaml:"mcp"`
}

// StoreConfig selects and configures the node store.
type StoreConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=memory sqlite dynamodb"`
	SeedFile   string `yaml:"seed_file"`
	WatchSeed  bool   `yaml:"watch_seed"`
	SQLitePath string `yaml:"sqlite_path"`
	TableName  string `yaml:"table_name"`
	AWSRegion  string `yaml:"aws_region"`
}

// GraphConfig configures the external graph executor. An empty endpoint
// disables it.
type GraphConfig struct {
	Endpoint         string        `yaml:"endpoint" validate:"omitempty,url"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests"`
	OpenTimeout      time.Duration `yaml:"open_timeout" validate:"gt=0"`
	MaxHops          int           `yaml:"max_hops" validate:"gte=1,lte=5"`
}

// SchemaConfig configures the schema fetch. An empty URL disables enrichment.
type SchemaConfig struct {
	URL string        `yaml:"url" validate:"omitempty,url"`
	TTL time.Duration `yaml:"ttl" validate:"gt=0"`
}

// AnalysisConfig holds the scoring thresholds.
type AnalysisConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gt=0,lte=1"`
	ImpactThreshold     float64 `yaml:"impact_threshold" validate:"gt=0,lte=1"`
}

type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// EventsConfig enables high-risk impact notifications when EventBus is set.
type EventsConfig struct {
	EventBus      string `yaml:"event_bus"`
	RiskThreshold int    `yaml:"risk_threshold" validate:"gte=0,lte=100"`
}

// AuthConfig enables bearer token checks against Supabase when both fields are set.
type AuthConfig struct {
	SupabaseURL string `yaml:"supabase_url" validate:"omitempty,url"`
	SupabaseKey string `yaml:"supabase_key"`
}

type MCPConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Environment: Development,
		ServiceName: "int-dashboard",
		HTTPAddr:    ":8080",
		LogLevel:    "info",
		Store: StoreConfig{
			Backend:    StoreMemory,
			SeedFile:   "config/threads.yaml",
			WatchSeed:  true,
			SQLitePath: "sot.db",
			TableName:  "sot-threads",
			AWSRegion:  "us-east-1",
		},
		Graph: GraphConfig{
			Timeout:          10 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
			OpenTimeout:      60 * time.Second,
			MaxHops:          2,
		},
		Schema: SchemaConfig{TTL: 5 * time.Minute},
		Analysis: AnalysisConfig{
			SimilarityThreshold: 0.7,
			ImpactThreshold:     0.5,
		},
		Sources: domain.DefaultSources(),
		Events:  EventsConfig{RiskThreshold: 80},
		MCP:     MCPConfig{Name: "sot-analysis", Version: "1.0.0"},
	}
}

// Load builds the configuration. path may be empty; a missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = Environment(getEnv("SOT_ENVIRONMENT", string(c.Environment)))
	c.ServiceName = getEnv("SOT_SERVICE_NAME", c.ServiceName)
	c.HTTPAddr = getEnv("SOT_HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = getEnv("SOT_LOG_LEVEL", c.LogLevel)

	c.Store.Backend = getEnv("SOT_STORE_BACKEND", c.Store.Backend)
	c.Store.SeedFile = getEnv("SOT_SEED_FILE", c.Store.SeedFile)
	c.Store.WatchSeed = getEnvBool("SOT_WATCH_SEED", c.Store.WatchSeed)
	c.Store.SQLitePath = getEnv("SOT_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.TableName = getEnv("SOT_TABLE_NAME", c.Store.TableName)
	c.Store.AWSRegion = getEnv("AWS_REGION", c.Store.AWSRegion)

	c.Graph.Endpoint = getEnv("SOT_GRAPH_ENDPOINT", c.Graph.Endpoint)
	c.Graph.Timeout = getEnvDuration("SOT_GRAPH_TIMEOUT", c.Graph.Timeout)
	c.Graph.MaxHops = getEnvInt("SOT_GRAPH_MAX_HOPS", c.Graph.MaxHops)

	c.Schema.URL = getEnv("SOT_SCHEMA_URL", c.Schema.URL)
	c.Schema.TTL = getEnvDuration("SOT_SCHEMA_TTL", c.Schema.TTL)

	c.Analysis.SimilarityThreshold = getEnvFloat("SOT_SIMILARITY_THRESHOLD", c.Analysis.SimilarityThreshold)
	c.Analysis.ImpactThreshold = getEnvFloat("SOT_IMPACT_THRESHOLD", c.Analysis.ImpactThreshold)

	c.Tracing.Endpoint = getEnv("SOT_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Events.EventBus = getEnv("SOT_EVENT_BUS", c.Events.EventBus)
	c.Events.RiskThreshold = getEnvInt("SOT_RISK_THRESHOLD", c.Events.RiskThreshold)
	c.Auth.SupabaseURL = getEnv("SOT_SUPABASE_URL", c.Auth.SupabaseURL)
	c.Auth.SupabaseKey = getEnv("SOT_SUPABASE_KEY", c.Auth.SupabaseKey)
	c.MCP.Name = getEnv("SOT_MCP_NAME", c.MCP.Name)
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Analysis.ImpactThreshold > c.Analysis.SimilarityThreshold {
		return fmt.Errorf("impact_threshold (%.2f) must not exceed similarity_threshold (%.2f)",
			c.Analysis.ImpactThreshold, c.Analysis.SimilarityThreshold)
	}
	switch c.Store.Backend {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	case StoreDynamoDB:
		if c.Store.TableName == "" {
			return fmt.Errorf("store.table_name is required for the dynamodb backend")
		}
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Code == "" {
			return fmt.Errorf("source code must not be empty")
		}
		if seen[s.Code] {
			return fmt.Errorf("duplicate source code %q", s.Code)
		}
		seen[s.Code] = true
	}
	if (c.Auth.SupabaseURL == "") != (c.Auth.SupabaseKey == "") {
		return fmt.Errorf("auth requires both supabase_url and supabase_key")
	}
	return nil
}

// AuthEnabled reports whether request authentication is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.SupabaseURL != "" && c.Auth.SupabaseKey != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
