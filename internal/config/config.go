package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// HOSPITAL_SERVER_PORT or HOSPITAL_DATABASE_DSN.
const EnvPrefix = "HOSPITAL"

type Config struct {
	Server struct {
		Host           string `mapstructure:"host" json:"host"`
		Port           int    `mapstructure:"port" json:"port"`
		JWTSecret      string `mapstructure:"jwtSecret" json:"jwtSecret"`
		SessionMinutes int    `mapstructure:"sessionMinutes" json:"sessionMinutes"`
		CookieSecure   bool   `mapstructure:"cookieSecure" json:"cookieSecure"`
	} `mapstructure:"server" json:"server"`
	Database struct {
		Driver string `mapstructure:"driver" json:"driver"`
		DSN    string `mapstructure:"dsn" json:"dsn"`
	} `mapstructure:"database" json:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr" json:"addr"`
		Password string `mapstructure:"password" json:"password"`
		DB       int    `mapstructure:"db" json:"db"`
	} `mapstructure:"redis" json:"redis"`
	Log struct {
		Level    string `mapstructure:"level" json:"level"`
		Encoding string `mapstructure:"encoding" json:"encoding"`
	} `mapstructure:"log" json:"log"`
	Seed struct {
		Enabled  bool   `mapstructure:"enabled" json:"enabled"`
		Password string `mapstructure:"password" json:"password"`
	} `mapstructure:"seed" json:"seed"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.jwtSecret", "")
	v.SetDefault("server.sessionMinutes", 30)
	v.SetDefault("server.cookieSecure", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "hospital.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.password", "1234")
}

// LoadConfig reads the JSON config file once (singleton) and applies
// HOSPITAL_* environment overrides on top of it.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		v := viper.New()
		setDefaults(v)
		v.SetConfigFile(path)
		v.SetConfigType("json")
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := v.Unmarshal(&c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		if err := c.Validate(); err != nil {
			cfgErr = err
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Server.JWTSecret == "" {
		return errors.New("jwtSecret must be set in config")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn must be set in config")
	}
	if c.Server.SessionMinutes <= 0 {
		return errors.New("sessionMinutes must be positive")
	}
	return nil
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
