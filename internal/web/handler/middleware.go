package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"nexitera-web/internal/constants"
	"nexitera-web/internal/guard"
	"nexitera-web/internal/logger"
	"nexitera-web/internal/session"
	"nexitera-web/internal/types"
)

// RequestContext 里存放会话快照的键
const ctxSessionKey = "auth_session"

// SessionFrom 取出当前请求的会话快照；中间件未运行时返回匿名会话
func SessionFrom(ctx *app.RequestContext) session.Session {
	if v, ok := ctx.Get(ctxSessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Anonymous("")
}

// setSession 更新当前请求的会话快照。
// 登录/登出处理器必须在状态迁移后立刻调用，保证同一请求内
// 随后的渲染和网关调用都看到新状态，而不是过期的副本。
func setSession(ctx *app.RequestContext, s session.Session) {
	ctx.Set(ctxSessionKey, s)
}

// SessionMiddleware 为每个请求恢复访客会话：
// 读取（或下发）会话Cookie，然后bootstrap出会话快照。
// bootstrap对无令牌的访客不触达后端，见 session.Manager。
type SessionMiddleware struct {
	manager      *session.Manager
	cookieName   string
	cookieMaxAge int
	cookieSecure bool
}

// NewSessionMiddleware 创建会话中间件
func NewSessionMiddleware(manager *session.Manager, cookieName string, ttl time.Duration, secure bool) *SessionMiddleware {
	if cookieName == "" {
		cookieName = constants.SessionCookieName
	}
	return &SessionMiddleware{
		manager:      manager,
		cookieName:   cookieName,
		cookieMaxAge: int(ttl.Seconds()),
		cookieSecure: secure,
	}
}

// IssueCookie 下发会话Cookie。登录换发新SID后必须调用，
// 否则浏览器仍携带旧sid。
func (m *SessionMiddleware) IssueCookie(ctx *app.RequestContext, sid string) {
	ctx.SetCookie(m.cookieName, sid, m.cookieMaxAge, "/", "",
		protocol.CookieSameSiteLaxMode, m.cookieSecure, true)
}

// Handle 中间件本体
func (m *SessionMiddleware) Handle() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		sid := string(ctx.Cookie(m.cookieName))
		if sid == "" {
			newSID, err := session.NewSID()
			if err != nil {
				logger.Ctx(c).Error().Err(err).Msg("生成会话ID失败")
				ctx.Set(ctxSessionKey, session.Anonymous(""))
				ctx.Next(c)
				return
			}
			sid = newSID
			m.IssueCookie(ctx, sid)
		}

		setSession(ctx, m.manager.Bootstrap(c, sid))
		ctx.Next(c)
	}
}

// RequireRoles 路由守卫中间件：按 guard.Decide 的结果
// 渲染内容、跳转登录/首页，或渲染中性的加载页。
func RequireRoles(roles ...types.Role) app.HandlerFunc {
	allowed := guard.AllowRoles(roles...)
	return func(c context.Context, ctx *app.RequestContext) {
		sess := SessionFrom(ctx)
		switch decision := guard.Decide(guard.StateOf(sess), allowed); decision {
		case guard.Render:
			ctx.Next(c)
		case guard.RedirectLogin:
			redirectTo(ctx, loginPathWithRedirect(ctx))
			ctx.Abort()
		case guard.RedirectHome:
			redirectTo(ctx, "/")
			ctx.Abort()
		case guard.Loading:
			renderPage(ctx, consts.StatusOK, "loading.tmpl", sess, pageData{"Title": "Загрузка"})
			ctx.Abort()
		default:
			logger.Ctx(c).Error().Str("decision", decision.String()).Msg("未知的守卫决策")
			redirectTo(ctx, "/")
			ctx.Abort()
		}
	}
}

// RequestIDMiddleware 为每个请求分配ID并回写响应头
func RequestIDMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		requestID := string(ctx.GetHeader(constants.RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Response.Header.Set(constants.RequestIDHeader, requestID)

		// 带request_id的logger放进context，后续 logger.Ctx 可直接取用
		reqLogger := logger.Logger.With().Str("request_id", requestID).Logger()
		ctx.Next(reqLogger.WithContext(c))
	}
}

// AccessLogMiddleware 访问日志。
// context里的logger已带request_id，无需再从keystore取
func AccessLogMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		logger.Ctx(c).Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// loginPathWithRedirect 跳转登录页并带上回跳地址
func loginPathWithRedirect(ctx *app.RequestContext) string {
	target := string(ctx.Path())
	if target == "" || target == "/login" {
		return "/login"
	}
	return "/login?redirect=" + target
}

func redirectTo(ctx *app.RequestContext, location string) {
	ctx.Redirect(consts.StatusFound, []byte(location))
}
