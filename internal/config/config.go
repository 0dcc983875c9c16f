package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/renardhq/renard/internal/pkg/logutil"
)

type Config struct {
	Port        int               `json:"port"`
	JWTSecret   string            `json:"jwt_secret"`
	CORSOrigins []string          `json:"cors_origins"`
	LogConfig   logutil.LogConfig `json:"log_config"`
	Database    DatabaseConfig    `json:"database"`
	Qdrant      QdrantConfig      `json:"qdrant"`
	AI          AIConfig          `json:"ai"`
	Pipeline    PipelineConfig    `json:"pipeline"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type QdrantConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Collection string `json:"collection"`
}

type AIConfig struct {
	Provider  string      `json:"provider"`
	Model     string      `json:"model"`
	Dimension int         `json:"dimension"`
	APIKey    string      `json:"api_key"`
	Data      interface{} `json:"data"`
}

type PipelineConfig struct {
	BatchSize       int    `json:"batch_size"`
	RunLimit        int    `json:"run_limit"`
	ChunkDelayMs    int    `json:"chunk_delay_ms"`
	CronSpec        string `json:"cron_spec"`
	CacheMaxAgeDays int    `json:"cache_max_age_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Qdrant.Host == "" {
		return nil, fmt.Errorf("qdrant.host is required")
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "activities"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.Dimension <= 0 {
		return nil, fmt.Errorf("ai.dimension is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Pipeline.BatchSize <= 0 {
		cfg.Pipeline.BatchSize = 100
	}
	if cfg.Pipeline.RunLimit <= 0 {
		cfg.Pipeline.RunLimit = 50000
	}
	if cfg.Pipeline.ChunkDelayMs <= 0 {
		cfg.Pipeline.ChunkDelayMs = 1000
	}
	if cfg.Pipeline.CronSpec == "" {
		cfg.Pipeline.CronSpec = "0 2 * * *"
	}
	if cfg.Pipeline.CacheMaxAgeDays <= 0 {
		cfg.Pipeline.CacheMaxAgeDays = 30
	}
	return &cfg, nil
}
