package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis    Redis  `yaml:"redis"`
	Room     Room   `yaml:"room"`
	Client   Client `yaml:"client"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Room struct {
	// TTL of an idle room, zero keeps rooms until the last player leaves.
	TTL time.Duration `yaml:"ttl" env:"ROOM_TTL" env-default:"1h"`
}

type Client struct {
	RelayURL    string        `yaml:"relay-url" env:"CLIENT_RELAY_URL" env-default:"ws://localhost:9090/ws"`
	BoardSize   int           `yaml:"board-size" env:"CLIENT_BOARD_SIZE" env-default:"3"`
	JoinTimeout time.Duration `yaml:"join-timeout" env:"CLIENT_JOIN_TIMEOUT" env-default:"0s"`
}

// MustLoad - load all configurations in config.yml file, values from .env and the environment
// override it. Without the file only the environment is read.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	err := cleanenv.ReadConfig(path, config)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
