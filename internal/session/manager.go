package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"

	"nexitera-web/internal/logger"
	"nexitera-web/internal/types"
)

// ProfileResolver 把令牌解析为确认的用户身份。
// 由 gateway.Client 实现；测试中用桩替换。
type ProfileResolver interface {
	CurrentProfile(ctx context.Context, token string) (*types.UserProfile, error)
}

// Manager 管理访客会话的状态迁移：bootstrap/login/logout。
// 令牌和身份只会在同一次写入中一起变化，保证
// "User非空⟹Token非空" 在每个可观察状态上成立。
type Manager struct {
	store    Store
	resolver ProfileResolver

	mu       sync.Mutex
	inflight map[string]chan struct{} // 正在解析中的sid，防止重复解析
}

// NewManager 创建会话管理器
func NewManager(store Store, resolver ProfileResolver) *Manager {
	return &Manager{
		store:    store,
		resolver: resolver,
		inflight: make(map[string]chan struct{}),
	}
}

// NewSID 生成新的会话ID
func NewSID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("生成会话ID失败: %w", err)
	}
	return id.String(), nil
}

// Bootstrap 读取持久化令牌并解析身份：
//   - 没有令牌：直接得到匿名会话，不触达后端；
//   - 令牌已有身份缓存：直接得到已登录会话，不触达后端（幂等）；
//   - 仅有令牌：调用后端解析。任何失败（网络、401、响应损坏）
//     都清除令牌并抹掉持久化记录，静默降级为匿名——这是刻意的
//     交互选择，对用户不展示错误。
//
// 同一sid的并发解析会合并：后来者等待先行者的结果。
func (m *Manager) Bootstrap(ctx context.Context, sid string) Session {
	var done chan struct{}
	for {
		m.mu.Lock()
		existing, busy := m.inflight[sid]
		if !busy {
			done = make(chan struct{})
			m.inflight[sid] = done
			m.mu.Unlock()
			break
		}
		m.mu.Unlock()
		// 等待先行解析结束后重读存储，避免对同一令牌发起重复解析
		select {
		case <-existing:
		case <-ctx.Done():
			return Anonymous(sid)
		}
	}
	defer func() {
		m.mu.Lock()
		delete(m.inflight, sid)
		m.mu.Unlock()
		close(done)
	}()

	rec, err := m.store.Load(ctx, sid)
	if err != nil {
		// 存储不可用时按匿名处理；页面照常渲染
		logger.Ctx(ctx).Warn().Err(err).Str("sid", sid).Msg("读取会话存储失败，按匿名会话处理")
		return Anonymous(sid)
	}
	if rec == nil || rec.Token == "" {
		return Anonymous(sid)
	}
	if rec.User != nil {
		return Session{SID: sid, Token: rec.Token, User: rec.User}
	}

	profile, err := m.resolver.CurrentProfile(ctx, rec.Token)
	if err != nil {
		logger.Ctx(ctx).Debug().Err(err).Str("sid", sid).Msg("令牌解析失败，清除会话并降级为匿名")
		if delErr := m.store.Delete(ctx, sid); delErr != nil {
			logger.Ctx(ctx).Warn().Err(delErr).Str("sid", sid).Msg("清除失效会话记录失败")
		}
		return Anonymous(sid)
	}

	// 缓存已解析的身份，后续bootstrap不再触达后端
	if err := m.store.Save(ctx, sid, Record{Token: rec.Token, User: profile}); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("sid", sid).Msg("缓存已解析身份失败")
	}
	return Session{SID: sid, Token: rec.Token, User: profile}
}

// Login 登录迁移：令牌和身份在同一次写入中持久化，
// 不存在只有其一的中间状态。
// 登录前的sid由客户端指定，不可信：这里换发新的会话ID并清除旧记录，
// 预先植入的sid无法在登录后复用（会话固定防护）。调用方必须用
// 返回会话的SID重新下发Cookie。
func (m *Manager) Login(ctx context.Context, sid string, profile *types.UserProfile, token string) (Session, error) {
	if token == "" {
		return Anonymous(sid), fmt.Errorf("登录必须携带非空令牌")
	}
	if profile == nil {
		return Anonymous(sid), fmt.Errorf("登录必须携带已解析的用户身份")
	}

	newSID, err := NewSID()
	if err != nil {
		return Anonymous(sid), err
	}
	if sid != "" {
		if err := m.store.Delete(ctx, sid); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("sid", sid).Msg("清除登录前会话记录失败")
		}
	}

	if err := m.store.Save(ctx, newSID, Record{Token: token, User: profile}); err != nil {
		return Anonymous(sid), err
	}
	return Session{SID: newSID, Token: token, User: profile}, nil
}

// Logout 登出迁移：清除持久化令牌与身份；调用方负责跳转到登录入口
func (m *Manager) Logout(ctx context.Context, sid string) (Session, error) {
	if err := m.store.Delete(ctx, sid); err != nil {
		return Anonymous(sid), err
	}
	return Anonymous(sid), nil
}

// Downgrade 页面处理器观察到401时调用：静默清除会话，不展示错误
func (m *Manager) Downgrade(ctx context.Context, sid string) Session {
	if err := m.store.Delete(ctx, sid); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("sid", sid).Msg("降级时清除会话记录失败")
	}
	return Anonymous(sid)
}
