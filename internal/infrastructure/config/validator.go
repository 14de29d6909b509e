package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// reloadableKeys defines the whitelist of configuration keys that can be hot-reloaded.
var reloadableKeys = map[string]bool{
	"logging.level":             true,
	"logging.format":            true,
	"discord.moderator_role_id": true,
	"discord.prompt.channel_id": true,
	"discord.prompt.message_id": true,
}

// staticKeys defines configuration keys that require application restart.
var staticKeys = map[string]string{
	"server":                     "HTTP listener restart required",
	"storage":                    "Storage backend initialization required",
	"discord.public_key":         "Verifier recreation required",
	"discord.bot_token":          "REST client recreation required",
	"discord.api_base_url":       "REST client recreation required",
	"discord.timeout":            "REST client recreation required",
	"discord.thread_name_prefix": "Dispatcher recreation required",
	"discord.circuit_breaker":    "REST client recreation required",
	"admin.secret":               "Route registration required",
	"interactions":               "Dispatcher recreation required",
	"events":                     "Broker connection recreation required",
}

// IsReloadable returns true if the given config key can be hot-reloaded.
func IsReloadable(key string) bool {
	return reloadableKeys[key]
}

// RestartReason returns the reason why a static config key requires restart.
func RestartReason(key string) string {
	if reason, ok := staticKeys[key]; ok {
		return reason
	}
	return "unknown configuration requires restart"
}

// ChangedKeys lists the keys whose values differ between two configurations.
// Nested sections with no reloadable members are reported as a whole.
func ChangedKeys(old, new *Config) []string {
	var keys []string
	add := func(changed bool, key string) {
		if changed {
			keys = append(keys, key)
		}
	}

	add(old.Logging.Level != new.Logging.Level, "logging.level")
	add(old.Logging.Format != new.Logging.Format, "logging.format")
	add(old.Discord.ModeratorRoleID != new.Discord.ModeratorRoleID, "discord.moderator_role_id")
	add(old.Discord.Prompt.ChannelID != new.Discord.Prompt.ChannelID, "discord.prompt.channel_id")
	add(old.Discord.Prompt.MessageID != new.Discord.Prompt.MessageID, "discord.prompt.message_id")

	add(old.Server != new.Server, "server")
	add(old.Storage != new.Storage, "storage")
	add(old.Discord.PublicKey != new.Discord.PublicKey, "discord.public_key")
	add(old.Discord.BotToken != new.Discord.BotToken, "discord.bot_token")
	add(old.Discord.APIBaseURL != new.Discord.APIBaseURL, "discord.api_base_url")
	add(old.Discord.Timeout != new.Discord.Timeout, "discord.timeout")
	add(old.Discord.ThreadNamePrefix != new.Discord.ThreadNamePrefix, "discord.thread_name_prefix")
	add(old.Discord.CircuitBreaker != new.Discord.CircuitBreaker, "discord.circuit_breaker")
	add(old.Admin != new.Admin, "admin.secret")
	add(old.DeduplicationEnabled() != new.DeduplicationEnabled() ||
		old.Interactions.DedupTTL != new.Interactions.DedupTTL ||
		old.Interactions.JanitorInterval != new.Interactions.JanitorInterval, "interactions")
	add(old.Events != new.Events, "events")

	return keys
}

// ValidateLogLevel checks if the log level is valid.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
	return nil
}

// ValidateLogFormat checks if the log format is valid.
func ValidateLogFormat(format string) error {
	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[strings.ToLower(format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", format)
	}
	return nil
}

// ValidateNonEmpty checks if a string is non-empty.
func ValidateNonEmpty(value string, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateDuration checks if a duration is greater than zero.
func ValidateDuration(duration time.Duration, fieldName string) error {
	if duration <= 0 {
		return fmt.Errorf("%s must be greater than 0", fieldName)
	}
	return nil
}

// ValidatePort checks if a port number is valid.
func ValidatePort(port int, fieldName string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", fieldName, port)
	}
	return nil
}

// ValidateStorageType checks if the storage type is valid.
func ValidateStorageType(storageType string) error {
	validTypes := map[string]bool{
		"memory": true,
		"sqlite": true,
		"mysql":  true,
	}
	if !validTypes[storageType] {
		return fmt.Errorf("invalid storage type: %s (must be memory, sqlite, or mysql)", storageType)
	}
	return nil
}

// ValidatePublicKey checks that key is a hex encoded ed25519 public key.
func ValidatePublicKey(key string, fieldName string) error {
	raw, err := hex.DecodeString(key)
	if err != nil {
		return fmt.Errorf("%s must be hex encoded: %v", fieldName, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("%s must be %d bytes, got %d", fieldName, ed25519.PublicKeySize, len(raw))
	}
	return nil
}

// Validate performs comprehensive validation on the configuration.
// Returns an error listing every failed check.
func (c *Config) Validate() error {
	var errors []string
	check := func(err error) {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	// Server validation
	check(ValidatePort(c.Server.Port, "server.port"))
	check(ValidateDuration(c.Server.ReadTimeout, "server.read_timeout"))
	check(ValidateDuration(c.Server.WriteTimeout, "server.write_timeout"))
	check(ValidateDuration(c.Server.RequestTimeout, "server.request_timeout"))
	check(ValidateDuration(c.Server.ShutdownTimeout, "server.shutdown_timeout"))

	// Logical constraint: RequestTimeout should be less than WriteTimeout
	if c.Server.RequestTimeout >= c.Server.WriteTimeout {
		errors = append(errors, "server.request_timeout must be less than server.write_timeout")
	}

	// Discord validation
	check(ValidatePublicKey(c.Discord.PublicKey, "discord.public_key"))
	check(ValidateNonEmpty(c.Discord.BotToken, "discord.bot_token"))
	check(ValidateNonEmpty(c.Discord.ModeratorRoleID, "discord.moderator_role_id"))
	check(ValidateNonEmpty(c.Discord.APIBaseURL, "discord.api_base_url"))
	check(ValidateDuration(c.Discord.Timeout, "discord.timeout"))
	if c.Discord.CircuitBreaker.MaxFailures > 0 {
		check(ValidateDuration(c.Discord.CircuitBreaker.OpenTimeout, "discord.circuit_breaker.open_timeout"))
	}

	// Interactions validation
	if c.DeduplicationEnabled() {
		check(ValidateDuration(c.Interactions.DedupTTL, "interactions.dedup_ttl"))
		check(ValidateDuration(c.Interactions.JanitorInterval, "interactions.janitor_interval"))
	}

	// Events validation
	if c.IsEventsEnabled() {
		check(ValidateNonEmpty(c.Events.URL, "events.url"))
		check(ValidateNonEmpty(c.Events.Exchange, "events.exchange"))
	}

	// Storage validation
	check(ValidateStorageType(c.Storage.Type))

	if c.Storage.Type == "sqlite" {
		check(ValidateNonEmpty(c.Storage.SQLite.Path, "storage.sqlite.path"))
	}

	if c.Storage.Type == "mysql" {
		check(ValidateNonEmpty(c.Storage.MySQL.Host, "storage.mysql.host"))
		check(ValidatePort(c.Storage.MySQL.Port, "storage.mysql.port"))
		check(ValidateNonEmpty(c.Storage.MySQL.Database, "storage.mysql.database"))
		check(ValidateNonEmpty(c.Storage.MySQL.Username, "storage.mysql.username"))
		check(ValidateNonEmpty(c.Storage.MySQL.Password, "storage.mysql.password"))

		// Connection pool validation
		if c.Storage.MySQL.Pool.MaxOpenConns < 1 {
			errors = append(errors, "storage.mysql.pool.max_open_conns must be at least 1")
		}
		if c.Storage.MySQL.Pool.MaxIdleConns < 0 {
			errors = append(errors, "storage.mysql.pool.max_idle_conns cannot be negative")
		}
		if c.Storage.MySQL.Pool.MaxIdleConns > c.Storage.MySQL.Pool.MaxOpenConns {
			errors = append(errors, "storage.mysql.pool.max_idle_conns cannot exceed max_open_conns")
		}
	}

	// Logging validation
	check(ValidateLogLevel(c.Logging.Level))
	check(ValidateLogFormat(c.Logging.Format))

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
