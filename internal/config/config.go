package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Email    EmailConfig    `mapstructure:"email"`
	Channels ChannelConfig  `mapstructure:"channels"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Rate     RateConfig     `mapstructure:"rate"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// StorageConfig selects the persistence backend. "memory" keeps
// everything in-process and is for development and tests only: state is
// lost on restart and never shared across instances.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // postgres | memory
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type ChannelConfig struct {
	PushGatewayURL string `mapstructure:"push_gateway_url"`
	SMSProviderURL string `mapstructure:"sms_provider_url"`
}

type DeliveryConfig struct {
	// Mode "inline" runs the dispatcher inside the API process; "queue"
	// pushes jobs to Redis for the worker binary.
	Mode           string `mapstructure:"mode"`
	QueueKey       string `mapstructure:"queue_key"`
	Shards         int    `mapstructure:"shards"`
	QueueSize      int    `mapstructure:"queue_size"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (d DeliveryConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

type RateConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("NOTIFY")
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("delivery.mode", "inline")
	viper.SetDefault("delivery.shards", 8)
	viper.SetDefault("delivery.queue_size", 256)
	viper.SetDefault("delivery.timeout_seconds", 10)
	viper.SetDefault("rate.rps", 100)
	viper.SetDefault("rate.burst", 200)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
