package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"dailyquest-service/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Mode  string `yaml:"mode"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		Secret   string `yaml:"secret"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Period struct {
		Timezone string `yaml:"timezone"`
		Offset   string `yaml:"offset"`
	} `yaml:"period"`
	Leaderboard struct {
		Size int `yaml:"size"`
	} `yaml:"leaderboard"`
	Cache struct {
		UserTTL string `yaml:"user_ttl"`
	} `yaml:"cache"`
}

// LoadDotEnv loads a .env file into the process environment when present.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads YAML config from path and applies environment overrides.
// A missing file yields defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PERIOD_TIMEZONE"); v != "" {
		cfg.Period.Timezone = v
	}
	if v := os.Getenv("LEADERBOARD_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Leaderboard.Size = n
		}
	}
}

// Calendar builds the rotation calendar from the period section.
func (c Config) Calendar() (domain.Calendar, error) {
	loc := time.UTC
	if c.Period.Timezone != "" {
		l, err := time.LoadLocation(c.Period.Timezone)
		if err != nil {
			return domain.Calendar{}, err
		}
		loc = l
	}
	cal := domain.NewCalendar(loc)
	cal.Offset = TTLDuration(c.Period.Offset, domain.DefaultRolloverOffset)
	return cal, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
