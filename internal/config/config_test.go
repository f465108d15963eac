package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTempConfig 写一个临时YAML配置文件并返回路径
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644), "无法写入临时配置文件")
	return configPath
}

// TestLoadConfigFull 验证完整YAML能被正确加载
func TestLoadConfigFull(t *testing.T) {
	yamlContent := `
server:
  address: ":8080"
backend:
  base_url: "http://backend:8000/api/v1"
  timeout_seconds: 30
session:
  cookie_name: "custom_sid"
  ttl_hours: 48
  cookie_secure: true
redis:
  address: "redis:6379"
  db: 2
  pool_size: 20
tracing:
  enabled: true
  endpoint: "otel:4317"
  sampling_rate: 0.5
internal:
  api_key: "ops-key"
logger:
  level: "debug"
  format: "json"
`
	cfg, err := LoadConfigFromFileOnly(writeTempConfig(t, yamlContent))
	require.NoError(t, err, "加载配置不应返回错误")
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "http://backend:8000/api/v1", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout())
	assert.Equal(t, "custom_sid", cfg.Session.CookieName)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL())
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 20, cfg.Redis.PoolSize)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.5, cfg.Tracing.SamplingRate)
	assert.Equal(t, "ops-key", cfg.Internal.APIKey)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

// TestLoadConfigDefaults 空配置文件时所有字段都应有合理默认值
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFromFileOnly(writeTempConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Address, "默认监听地址")
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.Backend.BaseURL, "默认后端地址")
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout(), "默认HTTP客户端超时")
	assert.Equal(t, "nexitera_sid", cfg.Session.CookieName, "默认会话Cookie名称")
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL(), "默认会话TTL")
	assert.Equal(t, "localhost:6379", cfg.Redis.Address, "默认Redis地址")
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 3, cfg.Redis.MaxRetries)
	assert.Equal(t, 0.1, cfg.Tracing.SamplingRate)
	assert.False(t, cfg.Tracing.Enabled, "追踪默认关闭")
	assert.Empty(t, cfg.Internal.APIKey, "内部密钥默认为空，即拒绝所有访问")
	assert.Equal(t, "info", cfg.Logger.Level)
}

// TestLoadConfigMissingFile 配置文件不存在时报错
func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFromFileOnly(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "缺失的配置文件应报错而不是静默使用默认值")
}

// TestLoadConfigInvalidYAML YAML语法错误时报错
func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfigFromFileOnly(writeTempConfig(t, "server: [unclosed"))
	assert.Error(t, err, "损坏的YAML应报错")
}

// TestEnvOverrides 环境变量覆盖敏感配置项
func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEXITERA_BACKEND_URL", "http://staging:8000/api/v1")
	t.Setenv("NEXITERA_REDIS_PASSWORD", "s3cret")
	t.Setenv("NEXITERA_INTERNAL_KEY", "env-key")

	cfg, err := LoadConfig(writeTempConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, "http://staging:8000/api/v1", cfg.Backend.BaseURL, "后端地址应被环境变量覆盖")
	assert.Equal(t, "s3cret", cfg.Redis.Password, "Redis密码应被环境变量覆盖")
	assert.Equal(t, "env-key", cfg.Internal.APIKey, "内部密钥应被环境变量覆盖")
}

// TestGetDuration 时长字符串解析与默认值回退
func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute), "空串应回退到默认值")
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute), "非法时长应回退到默认值")
}
