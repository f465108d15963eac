package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"nexitera-web/internal/config"
	"nexitera-web/internal/constants"
	"nexitera-web/internal/types"
)

// Record 持久化的会话记录：一个令牌，外加解析缓存的用户身份。
// User为nil表示令牌尚未解析（或上次解析前就保存了记录）。
type Record struct {
	Token string
	User  *types.UserProfile
}

// Store 会话记录的持久化存储。
// Save必须是原子写：令牌和身份要么一起落盘，要么都不落。
type Store interface {
	Load(ctx context.Context, sid string) (*Record, error) // 记录不存在时返回 (nil, nil)
	Save(ctx context.Context, sid string, rec Record) error
	Delete(ctx context.Context, sid string) error
}

// RedisStore 基于Redis HASH的会话存储，字段: token, user(JSON)
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient 按配置创建Redis客户端并验证连通性
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	})

	// 添加OpenTelemetry追踪钩子
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis追踪钩子失败: %w", err)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}
	return client, nil
}

// NewRedisStore 创建Redis会话存储
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(sid string) string {
	return fmt.Sprintf(constants.KeyAuthSession, sid)
}

// Load 读取会话记录；键不存在时返回 (nil, nil)
func (s *RedisStore) Load(ctx context.Context, sid string) (*Record, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("读取会话记录失败: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	rec := &Record{Token: values["token"]}
	if raw, ok := values["user"]; ok && raw != "" {
		var profile types.UserProfile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			// 身份缓存损坏按未解析处理，令牌仍然有效
			return rec, nil
		}
		rec.User = &profile
	}
	return rec, nil
}

// Save 原子写入令牌与身份（单条HSET），并刷新过期时间
func (s *RedisStore) Save(ctx context.Context, sid string, rec Record) error {
	fields := map[string]any{"token": rec.Token}
	if rec.User != nil {
		raw, err := json.Marshal(rec.User)
		if err != nil {
			return fmt.Errorf("序列化用户身份失败: %w", err)
		}
		fields["user"] = string(raw)
	}

	key := sessionKey(sid)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key) // 覆盖写，避免残留旧的user字段
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入会话记录失败: %w", err)
	}
	return nil
}

// Delete 清除会话记录
func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("删除会话记录失败: %w", err)
	}
	return nil
}
