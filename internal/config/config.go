package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
}

type MOEX struct {
	BaseURL              string  `yaml:"base_url"`
	MaxRequestsPerSecond float64 `yaml:"max_requests_per_second"`
	Burst                int     `yaml:"burst"`
}

type Config struct {
	Server Server `yaml:"server"`
	MOEX   MOEX   `yaml:"moex"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		MOEX: MOEX{
			BaseURL:              "https://iss.moex.com/iss",
			MaxRequestsPerSecond: 20,
			Burst:                50,
		},
	}
}

// Load reads YAML config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("MOEX_BASE_URL"); v != "" {
		cfg.MOEX.BaseURL = v
	}
	if v := os.Getenv("MOEX_MAX_RPS"); v != "" {
		if x, err := strconv.ParseFloat(v, 64); err == nil && x > 0 {
			cfg.MOEX.MaxRequestsPerSecond = x
		}
	}
	if v := os.Getenv("MOEX_BURST"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			cfg.MOEX.Burst = x
		}
	}
}
