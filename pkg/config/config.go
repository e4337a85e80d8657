package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Transport kinds for the live channel.
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// Config holds the client runtime configuration.
type Config struct {
	ServerHost          string  `mapstructure:"SERVER_HOST"`
	ServerPort          int     `mapstructure:"SERVER_PORT"`
	Transport           string  `mapstructure:"TRANSPORT"`
	PlayerName          string  `mapstructure:"PLAYER_NAME"`
	GameName            string  `mapstructure:"GAME_NAME"`
	CaptureRadiusMeters float64 `mapstructure:"CAPTURE_RADIUS_METERS"`
	LogLevel            string  `mapstructure:"LOG_LEVEL"`
}

// LoadConfig loads configuration from .env.<APP_ENV> in the working
// directory, with environment variables taking precedence. A missing file is
// not an error.
func LoadConfig() (c Config, err error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	viper.SetDefault("SERVER_HOST", "localhost")
	viper.SetDefault("SERVER_PORT", 8888)
	viper.SetDefault("TRANSPORT", TransportTCP)
	viper.SetDefault("PLAYER_NAME", "Player")
	viper.SetDefault("GAME_NAME", "Capture the Flag")
	viper.SetDefault("CAPTURE_RADIUS_METERS", 25.0)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	if err = viper.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Transport != TransportTCP && c.Transport != TransportWebSocket {
		return c, fmt.Errorf("unknown transport kind: %q", c.Transport)
	}
	return c, nil
}
