package config

import (
	"encoding/json"
	"os"
	"strconv"
)

type Config struct {
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`

	Store struct {
		Driver    string `json:"driver"` // remote, local
		URL       string `json:"url"`    // remote driver
		Path      string `json:"path"`   // local driver
		CacheSize int    `json:"cache_size"`
	} `json:"store"`

	Agent struct {
		URL string `json:"url"`
	} `json:"agent"`

	Build struct {
		URL string `json:"url"`
	} `json:"build"`

	Environment string `json:"environment"` // dev, prod
	LogLevel    string `json:"log_level"`   // debug, info, warn, error
}

func Default() *Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 3002
	cfg.Store.Driver = "remote"
	cfg.Store.URL = "http://localhost:3001"
	cfg.Store.Path = "data/atelier"
	cfg.Store.CacheSize = 256
	cfg.Agent.URL = "http://localhost:8000"
	cfg.Build.URL = "http://localhost:3003"
	cfg.Environment = "dev"
	cfg.LogLevel = "info"
	return &cfg
}

// Load reads the JSON config file at path and applies environment
// overrides on top. A missing file is not an error; defaults plus the
// environment are enough to run.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("ATELIER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("ATELIER_PORT", cfg.Server.Port)
	cfg.Store.Driver = getEnv("ATELIER_STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.URL = getEnv("ATELIER_STORE_URL", cfg.Store.URL)
	cfg.Store.Path = getEnv("ATELIER_STORE_PATH", cfg.Store.Path)
	cfg.Agent.URL = getEnv("ATELIER_AGENT_URL", cfg.Agent.URL)
	cfg.Build.URL = getEnv("ATELIER_BUILD_URL", cfg.Build.URL)
	cfg.LogLevel = getEnv("ATELIER_LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
