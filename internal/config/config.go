package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Uploads      UploadsConfig      `mapstructure:"uploads"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// UserConfig is one static credential entry.
type UserConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Role     string `mapstructure:"role"`
	FullName string `mapstructure:"full_name"`
	Email    string `mapstructure:"email"`
}

// AuthConfig holds the static user set and token signing settings.
type AuthConfig struct {
	Users       []UserConfig  `mapstructure:"users"`
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	Enforce     bool          `mapstructure:"enforce"`
}

// UploadsConfig holds attachment upload configuration
type UploadsConfig struct {
	Dir string `mapstructure:"dir"`
}

// NotificationConfig holds SLA reminder configuration. Reminders only log;
// no outbound channel is wired.
type NotificationConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	StallAfter   time.Duration `mapstructure:"stall_after"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/workflow.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("auth.token_ttl", 12*time.Hour)
	viper.SetDefault("auth.enforce", false)

	viper.SetDefault("uploads.dir", "uploads")

	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("notification.scan_interval", time.Hour)
	viper.SetDefault("notification.stall_after", 72*time.Hour)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("auth.token_secret", "AUTH_TOKEN_SECRET")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("uploads.dir", "UPLOADS_DIR")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Auth.Users) == 0 {
		return fmt.Errorf("auth.users must contain at least one user")
	}
	for i, u := range c.Auth.Users {
		if u.Username == "" || u.Password == "" || u.Role == "" {
			return fmt.Errorf("auth.users[%d] requires username, password and role", i)
		}
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	return nil
}
