package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/data-schema"
	ConfigFileName    = "data-schema.yml"

	masked = "******"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var marshalIndent = json.MarshalIndent

// Config holds all data-schema settings
type Config struct {
	// DatabaseURL is the PostgreSQL connection string
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// MigrationsPath is a directory of SQL migrations used instead of the embedded ones
	MigrationsPath string `yaml:"migrations_path" json:"migrations_path"`

	// DBDebug logs every SQL statement
	DBDebug bool `yaml:"db_debug" json:"db_debug"`

	BindAddress string `yaml:"bind_address" json:"bind_address"`
	Port        int    `yaml:"port" json:"port"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// SchemaCacheSize is the number of schemas kept in the read-through cache
	SchemaCacheSize int `yaml:"schema_cache_size" json:"schema_cache_size"`

	// MaxRecordsPerRequest limits the records accepted by one convert request
	MaxRecordsPerRequest int `yaml:"max_records_per_request" json:"max_records_per_request"`

	// JWTSecret is the HS256 key for write requests. Writes are open when it is empty.
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"`

	// JWTIssuer is set on issued tokens and required on presented ones
	JWTIssuer string `yaml:"jwt_issuer" json:"jwt_issuer"`

	// TokenTTL is the lifetime of issued tokens in seconds
	TokenTTL int `yaml:"token_ttl" json:"token_ttl"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func newDefault() *Config {
	return &Config{
		BindAddress:          "0.0.0.0",
		Port:                 8080,
		LogLevel:             "info",
		SchemaCacheSize:      128,
		MaxRecordsPerRequest: 1000,
		JWTIssuer:            "data-schema",
		TokenTTL:             3600,
		sources:              make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("DATA_SCHEMA_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"database_url", "migrations_path", "db_debug", "bind_address", "port",
		"log_level", "schema_cache_size", "max_records_per_request",
		"jwt_secret", "jwt_issuer", "token_ttl",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	setString := func(name string, dst *string, v string) {
		if v != "" {
			*dst = v
			c.sources[name] = "file"
		}
	}
	setInt := func(name string, dst *int, v int) {
		if v != 0 {
			*dst = v
			c.sources[name] = "file"
		}
	}

	setString("database_url", &c.DatabaseURL, file.DatabaseURL)
	setString("migrations_path", &c.MigrationsPath, file.MigrationsPath)
	setString("bind_address", &c.BindAddress, file.BindAddress)
	setString("log_level", &c.LogLevel, file.LogLevel)
	setString("jwt_secret", &c.JWTSecret, file.JWTSecret)
	setString("jwt_issuer", &c.JWTIssuer, file.JWTIssuer)
	setInt("port", &c.Port, file.Port)
	setInt("schema_cache_size", &c.SchemaCacheSize, file.SchemaCacheSize)
	setInt("max_records_per_request", &c.MaxRecordsPerRequest, file.MaxRecordsPerRequest)
	setInt("token_ttl", &c.TokenTTL, file.TokenTTL)
	if file.DBDebug {
		c.DBDebug = true
		c.sources["db_debug"] = "file"
	}
}

// lookupEnv returns the first non-empty variable among names
func lookupEnv(names ...string) (string, bool) {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val, true
		}
	}
	return "", false
}

func (c *Config) applyEnvConfig() error {
	strs := []struct {
		name string
		dst  *string
		env  []string
	}{
		{"database_url", &c.DatabaseURL, []string{"DATA_SCHEMA_DATABASE_URL", "DATABASE_URL"}},
		{"migrations_path", &c.MigrationsPath, []string{"DATA_SCHEMA_MIGRATIONS_PATH"}},
		{"bind_address", &c.BindAddress, []string{"DATA_SCHEMA_BIND_ADDRESS"}},
		{"log_level", &c.LogLevel, []string{"DATA_SCHEMA_LOG_LEVEL", "LOG_LEVEL"}},
		{"jwt_secret", &c.JWTSecret, []string{"DATA_SCHEMA_JWT_SECRET"}},
		{"jwt_issuer", &c.JWTIssuer, []string{"DATA_SCHEMA_JWT_ISSUER"}},
	}
	for _, s := range strs {
		if val, ok := lookupEnv(s.env...); ok {
			*s.dst = val
			c.sources[s.name] = "environment"
		}
	}

	ints := []struct {
		name string
		dst  *int
		env  []string
	}{
		{"port", &c.Port, []string{"DATA_SCHEMA_PORT", "PORT"}},
		{"schema_cache_size", &c.SchemaCacheSize, []string{"DATA_SCHEMA_SCHEMA_CACHE_SIZE"}},
		{"max_records_per_request", &c.MaxRecordsPerRequest, []string{"DATA_SCHEMA_MAX_RECORDS_PER_REQUEST"}},
		{"token_ttl", &c.TokenTTL, []string{"DATA_SCHEMA_TOKEN_TTL"}},
	}
	for _, i := range ints {
		val, ok := lookupEnv(i.env...)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", i.env[0], val, err)
		}
		*i.dst = n
		c.sources[i.name] = "environment"
	}

	if val, ok := lookupEnv("DATA_SCHEMA_DB_DEBUG"); ok {
		c.DBDebug = val == "true" || val == "1"
		c.sources["db_debug"] = "environment"
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Addr returns the listen address of the server
func (c *Config) Addr() string {
	return c.BindAddress + ":" + strconv.Itoa(c.Port)
}

// TokenLifetime returns the token TTL as a duration
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// AuthEnabled reports whether write requests need a token
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	level := strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	if c.SchemaCacheSize < 0 {
		return fmt.Errorf("invalid schema_cache_size: %d", c.SchemaCacheSize)
	}
	if c.MaxRecordsPerRequest <= 0 {
		return fmt.Errorf("invalid max_records_per_request: %d", c.MaxRecordsPerRequest)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid token_ttl: %d", c.TokenTTL)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources.
// Secrets are masked.
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "database_url", Value: maskURL(c.DatabaseURL), Source: c.Source("database_url")},
		{Name: "migrations_path", Value: c.MigrationsPath, Source: c.Source("migrations_path")},
		{Name: "db_debug", Value: strconv.FormatBool(c.DBDebug), Source: c.Source("db_debug")},
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "port", Value: strconv.Itoa(c.Port), Source: c.Source("port")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "schema_cache_size", Value: strconv.Itoa(c.SchemaCacheSize), Source: c.Source("schema_cache_size")},
		{
			Name:   "max_records_per_request",
			Value:  strconv.Itoa(c.MaxRecordsPerRequest),
			Source: c.Source("max_records_per_request"),
		},
		{Name: "jwt_secret", Value: maskSecret(c.JWTSecret), Source: c.Source("jwt_secret")},
		{Name: "jwt_issuer", Value: c.JWTIssuer, Source: c.Source("jwt_issuer")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTL), Source: c.Source("token_ttl")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := marshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return masked
}

// maskURL hides the password of a connection URL
func maskURL(s string) string {
	at := strings.LastIndex(s, "@")
	scheme := strings.Index(s, "://")
	if at < 0 || scheme < 0 || scheme > at {
		return s
	}
	userinfo := s[scheme+3 : at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return s
	}
	return s[:scheme+3] + userinfo[:colon+1] + masked + s[at:]
}
