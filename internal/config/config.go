package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/customer360/internal/analytics"
	"github.com/ignite/customer360/internal/archive"
	"github.com/ignite/customer360/internal/cache"
	"github.com/ignite/customer360/internal/insights"
	"github.com/ignite/customer360/internal/warehouse"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig                `yaml:"server"`
	Log       LogConfig                   `yaml:"log"`
	Snowflake SnowflakeConfig             `yaml:"snowflake"`
	Redis     RedisConfig                 `yaml:"redis"`
	Cache     cache.Config                `yaml:"cache"`
	Insights  insights.Config             `yaml:"insights"`
	Archive   archive.Config              `yaml:"archive"`
	Segments  analytics.SegmentThresholds `yaml:"segments"`
	AtRisk    AtRiskConfig                `yaml:"at_risk"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// GetHost returns the bind host. Container environments always bind all
// interfaces.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// SnowflakeConfig contains warehouse credentials and table names. A
// connection string, when set, fills the credential fields left empty.
type SnowflakeConfig struct {
	ConnectionString string `yaml:"connection_string"`
	warehouse.Config `yaml:",inline"`
}

// Resolved merges the connection string into the explicit fields.
func (c SnowflakeConfig) Resolved() warehouse.Config {
	out := c.Config
	if c.ConnectionString == "" {
		return out.WithDefaults()
	}
	parsed := warehouse.ParseConnectionString(c.ConnectionString)
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&out.Account, parsed.Account)
	fill(&out.User, parsed.User)
	fill(&out.Password, parsed.Password)
	fill(&out.Database, parsed.Database)
	fill(&out.Schema, parsed.Schema)
	fill(&out.Warehouse, parsed.Warehouse)
	fill(&out.Role, parsed.Role)
	return out.WithDefaults()
}

// Configured reports whether enough is set to open a connection.
func (c SnowflakeConfig) Configured() bool {
	r := c.Resolved()
	return r.Account != "" && r.User != ""
}

// RedisConfig points at the shared cache. Empty URL selects the in-process
// cache.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AtRiskConfig holds the churn follow-up thresholds and list size
type AtRiskConfig struct {
	analytics.AtRiskThresholds `yaml:",inline"`
	Limit                      int    `yaml:"limit"`
	Order                      string `yaml:"order"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "localhost",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Log:   LogConfig{Level: "info"},
		Cache: cache.Config{TTL: cache.DefaultTTL, LockTTL: cache.DefaultLockTTL, KeyPrefix: cache.DefaultKeyPrefix},
		Insights: insights.Config{
			Provider: insights.ProviderCortex,
			Timeout:  insights.DefaultTimeout,
		},
		Archive:  archive.Config{Prefix: "insights/", Compress: true},
		Segments: analytics.DefaultSegmentThresholds(),
		AtRisk: AtRiskConfig{
			AtRiskThresholds: analytics.DefaultAtRiskThresholds(),
			Limit:            5,
			Order:            string(analytics.OrderEncounter),
		},
	}
}

// Load reads configuration from a YAML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Insights.Timeout <= 0 {
		cfg.Insights.Timeout = insights.DefaultTimeout
	}
	if cfg.AtRisk.Limit <= 0 {
		cfg.AtRisk.Limit = 5
	}
	if _, err := analytics.ParseOrdering(cfg.AtRisk.Order); err != nil {
		return nil, fmt.Errorf("at_risk.order: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
// An empty path skips the file and starts from Default.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		d := Default()
		cfg = &d
	} else {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Snowflake
	if v := os.Getenv("SNOWFLAKE_CONNECTION_STRING"); v != "" {
		cfg.Snowflake.ConnectionString = v
	}
	if v := os.Getenv("SNOWFLAKE_ACCOUNT"); v != "" {
		cfg.Snowflake.Account = v
	}
	if v := os.Getenv("SNOWFLAKE_USER"); v != "" {
		cfg.Snowflake.User = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Snowflake.Password = v
	}
	if v := os.Getenv("SNOWFLAKE_WAREHOUSE"); v != "" {
		cfg.Snowflake.Warehouse = v
	}
	if v := os.Getenv("SNOWFLAKE_ROLE"); v != "" {
		cfg.Snowflake.Role = v
	}

	// Cache
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	} else if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.URL = v
	}

	// Insights
	if v := os.Getenv("INSIGHTS_PROVIDER"); v != "" {
		cfg.Insights.Provider = v
	}
	if v := os.Getenv("INSIGHTS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("INSIGHTS_TIMEOUT: %w", err)
		}
		cfg.Insights.Timeout = d
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Insights.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Insights.OpenAI.Model = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Insights.Bedrock.ModelID = v
	}

	// AWS
	if v := os.Getenv("AWS_REGION"); v != "" {
		if cfg.Insights.Bedrock.Region == "" {
			cfg.Insights.Bedrock.Region = v
		}
		if cfg.Archive.Region == "" {
			cfg.Archive.Region = v
		}
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
