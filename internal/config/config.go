package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	StaticPath   string        `mapstructure:"static_path"`
	DataPath     string        `mapstructure:"data_path"`
	Secret       string        `mapstructure:"secret"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	ChatRate     int           `mapstructure:"chat_rate"`
	ChatInterval time.Duration `mapstructure:"chat_interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3001)
	v.SetDefault("static_path", "./public")
	v.SetDefault("data_path", "owndc.db")
	v.SetDefault("secret", "owndc-secret-key-2024")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("chat_rate", 20)
	v.SetDefault("chat_interval", "10s")

	var loaded bool
	if err := v.ReadInConfig(); err == nil {
		loaded = true
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}
	return &cfg, nil
}
