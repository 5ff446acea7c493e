package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Config 描述了评分引擎在启动阶段需要加载的核心配置。
type Config struct {
	Server        ServerConfig        `json:"server"`
	Storage       StorageConfig       `json:"storage"`
	Judge         JudgeConfig         `json:"judge"`
	Results       ResultsConfig       `json:"results"`
	Rubrics       RubricsConfig       `json:"rubrics"`
	Observability ObservabilityConfig `json:"observability"`
	Logging       LoggingConfig       `json:"logging"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address string `json:"address"`
}

// StorageConfig 统一描述谜题存储后端的连接信息。
type StorageConfig struct {
	PuzzleStore PuzzleStoreConfig `json:"puzzle_store"`
}

// PuzzleStoreConfig 支持 memory 与 mysql 两种驱动。
type PuzzleStoreConfig struct {
	Driver                 string `json:"driver"`
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
}

// JudgeConfig 用于配置评审大模型的调用方式。
type JudgeConfig struct {
	APIKey                 string `json:"api_key"`
	BaseURL                string `json:"base_url"`
	RouterKey              string `json:"router_key"`
	RouterBaseURL          string `json:"router_base_url"`
	DefaultModel           string `json:"default_model"`
	TimeoutSeconds         int    `json:"timeout_seconds"`
	BreakerCooldownSeconds int    `json:"breaker_cooldown_seconds"`
}

// ResultsConfig 描述评分结果事件队列。
type ResultsConfig struct {
	Driver   string              `json:"driver"`
	Redis    RedisResultsConfig  `json:"redis"`
	RabbitMQ RabbitResultsConfig `json:"rabbitmq"`
}

// RedisResultsConfig 描述 Redis 发布端连接参数。
type RedisResultsConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Queue    string `json:"queue"`
}

// RabbitResultsConfig 描述 RabbitMQ 发布端连接参数。
type RabbitResultsConfig struct {
	URL     string `json:"url"`
	Queue   string `json:"queue"`
	Durable bool   `json:"durable"`
}

// RubricsConfig 指定评分量表文件的位置。
type RubricsConfig struct {
	Path string `json:"path"`
}

// ObservabilityConfig 控制指标服务。
type ObservabilityConfig struct {
	MetricsAddress string `json:"metrics_address"`
}

// LoggingConfig 控制日志与审计输出。
type LoggingConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths"`
	AuditPath   string   `json:"audit_path"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Storage.PuzzleStore.Driver == "" {
		c.Storage.PuzzleStore.Driver = "memory"
	}

	if c.Judge.TimeoutSeconds <= 0 {
		c.Judge.TimeoutSeconds = 45
	}
	if c.Judge.BreakerCooldownSeconds <= 0 {
		c.Judge.BreakerCooldownSeconds = 30
	}

	if c.Results.Driver == "" {
		c.Results.Driver = "memory"
	}

	if c.Rubrics.Path != "" && !filepath.IsAbs(c.Rubrics.Path) {
		c.Rubrics.Path = filepath.Join(baseDir, c.Rubrics.Path)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}
