package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"nexitera-web/internal/constants"
	"nexitera-web/internal/logger"
)

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址，例如 ":3000"
}

// BackendConfig 后端REST API配置
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`        // API基础地址，包含路径前缀
	TimeoutSeconds int    `yaml:"timeout_seconds"` // HTTP客户端超时(秒)
}

// SessionConfig 访客会话配置
type SessionConfig struct {
	CookieName   string `yaml:"cookie_name"`   // 会话Cookie名称
	TTLHours     int    `yaml:"ttl_hours"`     // 会话记录过期时间(小时)
	CookieSecure bool   `yaml:"cookie_secure"` // 是否仅通过HTTPS下发Cookie
}

// RedisConfig Redis连接配置
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	// 重试设置
	MaxRetries        int `yaml:"max_retries"`          // 最大重试次数
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"` // 最小重试间隔(毫秒)
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"` // 最大重试间隔(毫秒)
}

// TracingConfig OpenTelemetry追踪配置
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // 是否启用追踪
	Endpoint     string  `yaml:"endpoint"`      // OTLP gRPC 采集端点
	SamplingRate float64 `yaml:"sampling_rate"` // 采样率 0~1
}

// InternalConfig 内部运维接口配置
type InternalConfig struct {
	APIKey string `yaml:"api_key"` // /internal 接口的访问密钥
}

// Config 应用程序配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Internal InternalConfig `yaml:"internal"`
	Logger   logger.Config  `yaml:"logger"`
}

// LoadConfig 从YAML文件加载配置，随后应用默认值和环境变量覆盖
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := LoadConfigFromFileOnly(filePath)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadConfigFromFileOnly 仅从文件加载配置，不读取环境变量（测试用）
func LoadConfigFromFileOnly(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 '%s' 失败: %w", filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 '%s' 失败: %w", filePath, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults 为未设置的字段填充默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":3000"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8000/api/v1"
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 15
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = constants.SessionCookieName
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = int(constants.DefaultSessionTTL / time.Hour)
	}

	// Redis默认配置
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.MinIdleConns == 0 {
		cfg.Redis.MinIdleConns = 2
	}
	if cfg.Redis.DialTimeoutSeconds == 0 {
		cfg.Redis.DialTimeoutSeconds = 5
	}
	if cfg.Redis.ReadTimeoutSeconds == 0 {
		cfg.Redis.ReadTimeoutSeconds = 3
	}
	if cfg.Redis.WriteTimeoutSeconds == 0 {
		cfg.Redis.WriteTimeoutSeconds = 3
	}
	if cfg.Redis.MaxRetries == 0 {
		cfg.Redis.MaxRetries = 3
	}
	if cfg.Redis.MinRetryBackoffMS == 0 {
		cfg.Redis.MinRetryBackoffMS = 8
	}
	if cfg.Redis.MaxRetryBackoffMS == 0 {
		cfg.Redis.MaxRetryBackoffMS = 512
	}

	if cfg.Tracing.SamplingRate == 0 {
		cfg.Tracing.SamplingRate = 0.1
	}

	// 日志默认配置
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "pretty" // 开发环境默认使用美化输出
	}
	if cfg.Logger.TimeFormat == "" {
		cfg.Logger.TimeFormat = "2006-01-02 15:04:05"
	}
}

// applyEnvOverrides 用环境变量覆盖敏感配置项
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEXITERA_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("NEXITERA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("NEXITERA_INTERNAL_KEY"); v != "" {
		cfg.Internal.APIKey = v
	}
}

// SessionTTL 会话记录过期时间
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// BackendTimeout HTTP客户端超时
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
