package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Discord      DiscordConfig      `yaml:"discord"`
	Admin        AdminConfig        `yaml:"admin"`
	Interactions InteractionsConfig `yaml:"interactions"`
	Events       EventsConfig       `yaml:"events"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// StorageConfig holds persistence storage settings.
type StorageConfig struct {
	Type   string       `yaml:"type"` // "memory", "sqlite", or "mysql"
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // Database file path, use ":memory:" for in-memory
}

// MySQLConfig holds MySQL-specific settings.
type MySQLConfig struct {
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	Database string          `yaml:"database"`
	Username string          `yaml:"username"`
	Password string          `yaml:"password"`
	Pool     MySQLPoolConfig `yaml:"pool"`
	Timeout  time.Duration   `yaml:"timeout"`
	Charset  string          `yaml:"charset"`
}

// MySQLPoolConfig holds MySQL connection pool settings.
type MySQLPoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DiscordConfig holds Discord application settings.
type DiscordConfig struct {
	ApplicationID    string               `yaml:"application_id"`
	PublicKey        string               `yaml:"public_key"` // hex encoded ed25519 key
	BotToken         string               `yaml:"bot_token"`
	ModeratorRoleID  string               `yaml:"moderator_role_id"`
	APIBaseURL       string               `yaml:"api_base_url"`
	Timeout          time.Duration        `yaml:"timeout"`
	ThreadNamePrefix string               `yaml:"thread_name_prefix"`
	Prompt           PromptConfig         `yaml:"prompt"`
	CircuitBreaker   CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig controls fail-fast behaviour when the REST API keeps
// answering with server or network errors. A negative max_failures disables it.
type CircuitBreakerConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// PromptConfig locates the public "open thread" prompt.
type PromptConfig struct {
	ChannelID string `yaml:"channel_id"`
	MessageID string `yaml:"message_id"`
}

// AdminConfig holds the administrative surface settings.
// An empty secret disables the admin routes.
type AdminConfig struct {
	Secret string `yaml:"secret"`
}

// InteractionsConfig controls redelivery handling.
type InteractionsConfig struct {
	Deduplicate     *bool         `yaml:"deduplicate"`
	DedupTTL        time.Duration `yaml:"dedup_ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// EventsConfig holds moderation event publishing settings.
type EventsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"` // prefix; the event type is appended
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Load from file if exists
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			// Expand environment variables in YAML
			expandedData := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// overrideFromEnv overrides config values from environment variables.
func (c *Config) overrideFromEnv() {
	// Server
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	// Discord
	if v := os.Getenv("DISCORD_APPLICATION_ID"); v != "" {
		c.Discord.ApplicationID = v
	}
	if v := os.Getenv("DISCORD_PUBLIC_KEY"); v != "" {
		c.Discord.PublicKey = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		c.Discord.BotToken = v
	}
	if v := os.Getenv("DISCORD_MODERATOR_ROLE_ID"); v != "" {
		c.Discord.ModeratorRoleID = v
	}
	if v := os.Getenv("DISCORD_API_BASE_URL"); v != "" {
		c.Discord.APIBaseURL = v
	}
	if v := os.Getenv("DISCORD_PROMPT_CHANNEL_ID"); v != "" {
		c.Discord.Prompt.ChannelID = v
	}
	if v := os.Getenv("DISCORD_PROMPT_MESSAGE_ID"); v != "" {
		c.Discord.Prompt.MessageID = v
	}

	// Admin
	if v := os.Getenv("ADMIN_SECRET"); v != "" {
		c.Admin.Secret = v
	}

	// Interactions
	if v := os.Getenv("INTERACTIONS_DEDUPLICATE"); v != "" {
		dedup := strings.ToLower(v) == "true"
		c.Interactions.Deduplicate = &dedup
	}
	if v := os.Getenv("INTERACTIONS_DEDUP_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Interactions.DedupTTL = d
		}
	}

	// Events
	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		c.Events.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("EVENTS_URL"); v != "" {
		c.Events.URL = v
	}
	if v := os.Getenv("EVENTS_EXCHANGE"); v != "" {
		c.Events.Exchange = v
	}
	if v := os.Getenv("EVENTS_ROUTING_KEY"); v != "" {
		c.Events.RoutingKey = v
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	// Storage
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("SQLITE_DATABASE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}

	// MySQL
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.Storage.MySQL.Host = v
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Port = port
		}
	}
	if v := os.Getenv("MYSQL_DATABASE"); v != "" {
		c.Storage.MySQL.Database = v
	}
	if v := os.Getenv("MYSQL_USERNAME"); v != "" {
		c.Storage.MySQL.Username = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Storage.MySQL.Password = v
	}
	if v := os.Getenv("MYSQL_MAX_OPEN_CONNS"); v != "" {
		if conns, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Pool.MaxOpenConns = conns
		}
	}
	if v := os.Getenv("MYSQL_MAX_IDLE_CONNS"); v != "" {
		if conns, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Pool.MaxIdleConns = conns
		}
	}
	if v := os.Getenv("MYSQL_CONN_MAX_LIFETIME"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			c.Storage.MySQL.Pool.ConnMaxLifetime = duration
		}
	}
	if v := os.Getenv("MYSQL_CONN_MAX_IDLE_TIME"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			c.Storage.MySQL.Pool.ConnMaxIdleTime = duration
		}
	}
}

// applyDefaults sets default values for unset config options.
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 20 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	// Discord defaults
	if c.Discord.APIBaseURL == "" {
		c.Discord.APIBaseURL = "https://discord.com/api/v10"
	}
	if c.Discord.Timeout == 0 {
		c.Discord.Timeout = 10 * time.Second
	}
	if c.Discord.ThreadNamePrefix == "" {
		c.Discord.ThreadNamePrefix = "support"
	}
	if c.Discord.CircuitBreaker.MaxFailures == 0 {
		c.Discord.CircuitBreaker.MaxFailures = 5
	}
	if c.Discord.CircuitBreaker.OpenTimeout == 0 {
		c.Discord.CircuitBreaker.OpenTimeout = 30 * time.Second
	}

	// Interactions defaults
	if c.Interactions.Deduplicate == nil {
		dedup := true
		c.Interactions.Deduplicate = &dedup
	}
	if c.Interactions.DedupTTL == 0 {
		c.Interactions.DedupTTL = 24 * time.Hour
	}
	if c.Interactions.JanitorInterval == 0 {
		c.Interactions.JanitorInterval = 10 * time.Minute
	}

	// Events defaults
	if c.Events.Exchange == "" {
		c.Events.Exchange = "modmail"
	}
	if c.Events.RoutingKey == "" {
		c.Events.RoutingKey = "modmail"
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	// Storage defaults
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "./data/modmail.db"
	}

	// MySQL defaults
	if c.Storage.MySQL.Port == 0 {
		c.Storage.MySQL.Port = 3306
	}
	if c.Storage.MySQL.Pool.MaxOpenConns == 0 {
		c.Storage.MySQL.Pool.MaxOpenConns = 25
	}
	if c.Storage.MySQL.Pool.MaxIdleConns == 0 {
		c.Storage.MySQL.Pool.MaxIdleConns = 5
	}
	if c.Storage.MySQL.Pool.ConnMaxLifetime == 0 {
		c.Storage.MySQL.Pool.ConnMaxLifetime = 3 * time.Minute
	}
	if c.Storage.MySQL.Pool.ConnMaxIdleTime == 0 {
		c.Storage.MySQL.Pool.ConnMaxIdleTime = 1 * time.Minute
	}
	if c.Storage.MySQL.Timeout == 0 {
		c.Storage.MySQL.Timeout = 5 * time.Second
	}
	if c.Storage.MySQL.Charset == "" {
		c.Storage.MySQL.Charset = "utf8mb4"
	}
}

// DeduplicationEnabled reports whether redelivered interactions are suppressed.
func (c *Config) DeduplicationEnabled() bool {
	return c.Interactions.Deduplicate == nil || *c.Interactions.Deduplicate
}

// IsAdminEnabled returns true if the admin surface is configured.
func (c *Config) IsAdminEnabled() bool {
	return c.Admin.Secret != ""
}

// IsEventsEnabled returns true if moderation events are published.
func (c *Config) IsEventsEnabled() bool {
	return c.Events.Enabled
}

// PublicKeyBytes decodes the configured verification key.
func (c *Config) PublicKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.Discord.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decoding discord.public_key: %w", err)
	}
	return key, nil
}
