package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"nexitera-web/internal/gateway"
	"nexitera-web/internal/logger"
	"nexitera-web/internal/session"
	"nexitera-web/internal/types"
)

// AuthHandler 登录、注册、登出页面
type AuthHandler struct {
	gw       *gateway.Client
	sessions *session.Manager
	cookies  *SessionMiddleware
}

// NewAuthHandler 创建认证页面处理器。
// cookies 用于登录换发新SID后重新下发会话Cookie。
func NewAuthHandler(gw *gateway.Client, sessions *session.Manager, cookies *SessionMiddleware) *AuthHandler {
	return &AuthHandler{gw: gw, sessions: sessions, cookies: cookies}
}

// ShowLogin GET /login
// 已登录用户直接回跳，不再展示登录表单
func (h *AuthHandler) ShowLogin(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	if sess.Authenticated() {
		redirectTo(ctx, safeRedirectTarget(ctx))
		return
	}
	renderPage(ctx, consts.StatusOK, "login.tmpl", sess, pageData{
		"Title":    "Вход",
		"Email":    "",
		"Redirect": string(ctx.Query("redirect")),
	})
}

// Login POST /login
// 令牌交换 → 身份解析 → 一次性的登录迁移。两步任一失败都不会
// 留下"只有令牌没有身份"的会话。
func (h *AuthHandler) Login(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	email := strings.TrimSpace(string(ctx.PostForm("email")))
	password := string(ctx.PostForm("password"))

	renderError := func(msg string) {
		renderPage(ctx, consts.StatusOK, "login.tmpl", sess, pageData{
			"Title":    "Вход",
			"Error":    msg,
			"Email":    email,
			"Redirect": string(ctx.PostForm("redirect")),
		})
	}

	if email == "" || password == "" {
		renderError("Укажите email и пароль.")
		return
	}

	token, err := h.gw.Authenticate(c, email, password)
	if err != nil {
		renderError(gateway.UserMessage(err, "Ошибка входа. Проверьте email и пароль."))
		return
	}

	profile, err := h.gw.CurrentProfile(c, token.AccessToken)
	if err != nil {
		renderError(gateway.UserMessage(err, "Не удалось загрузить профиль."))
		return
	}

	newSess, err := h.sessions.Login(c, sess.SID, profile, token.AccessToken)
	if err != nil {
		logger.Ctx(c).Error().Err(err).Msg("保存登录会话失败")
		renderError("Не удалось сохранить сессию. Попробуйте снова.")
		return
	}
	setSession(ctx, newSess)
	// 登录换发了新SID，旧Cookie作废
	h.cookies.IssueCookie(ctx, newSess.SID)

	target := string(ctx.PostForm("redirect"))
	if !isSafeRedirect(target) {
		target = "/"
	}
	redirectTo(ctx, target)
}

// ShowRegister GET /register
func (h *AuthHandler) ShowRegister(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	if sess.Authenticated() {
		redirectTo(ctx, "/")
		return
	}
	renderPage(ctx, consts.StatusOK, "register.tmpl", sess, pageData{
		"Title":    "Регистрация",
		"Email":    "",
		"FullName": "",
		"Role":     string(ctx.Query("role")),
	})
}

// Register POST /register
// 注册成功后直接走登录流程，免去二次输入
func (h *AuthHandler) Register(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	email := strings.TrimSpace(string(ctx.PostForm("email")))
	password := string(ctx.PostForm("password"))
	fullName := strings.TrimSpace(string(ctx.PostForm("full_name")))
	role := types.ParseRole(string(ctx.PostForm("role")))

	renderError := func(msg string) {
		renderPage(ctx, consts.StatusOK, "register.tmpl", sess, pageData{
			"Title":    "Регистрация",
			"Error":    msg,
			"Email":    email,
			"FullName": fullName,
			"Role":     string(role),
		})
	}

	if email == "" || password == "" || fullName == "" {
		renderError("Заполните все поля.")
		return
	}
	if role != types.RoleCandidate && role != types.RoleEmployer {
		renderError("Выберите роль: кандидат или работодатель.")
		return
	}

	if _, err := h.gw.Register(c, gateway.RegisterInput{
		Email:    email,
		Password: password,
		FullName: fullName,
		Role:     role,
	}); err != nil {
		renderError(gateway.UserMessage(err, "Ошибка регистрации. Попробуйте снова."))
		return
	}

	token, err := h.gw.Authenticate(c, email, password)
	if err != nil {
		// 注册成功但自动登录失败：引导用户手动登录
		redirectTo(ctx, "/login")
		return
	}
	profile, err := h.gw.CurrentProfile(c, token.AccessToken)
	if err != nil {
		redirectTo(ctx, "/login")
		return
	}
	newSess, err := h.sessions.Login(c, sess.SID, profile, token.AccessToken)
	if err != nil {
		logger.Ctx(c).Error().Err(err).Msg("保存注册后会话失败")
		redirectTo(ctx, "/login")
		return
	}
	setSession(ctx, newSess)
	h.cookies.IssueCookie(ctx, newSess.SID)
	redirectTo(ctx, "/")
}

// Logout POST /logout
// 登出迁移后跳转登录入口
func (h *AuthHandler) Logout(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	newSess, err := h.sessions.Logout(c, sess.SID)
	if err != nil {
		logger.Ctx(c).Warn().Err(err).Msg("清除会话记录失败")
	}
	setSession(ctx, newSess)
	redirectTo(ctx, "/login")
}

// SessionStatus GET /session
// 会话状态快照，加载页轮询用
func (h *AuthHandler) SessionStatus(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	payload := utils.H{
		"authenticated": sess.Authenticated(),
		"resolving":     sess.Resolving,
	}
	if sess.User != nil {
		payload["role"] = string(sess.User.Role)
		payload["full_name"] = sess.User.FullName
	}
	ctx.JSON(consts.StatusOK, payload)
}

// safeRedirectTarget 从查询参数取回跳地址，仅接受站内路径
func safeRedirectTarget(ctx *app.RequestContext) string {
	target := string(ctx.Query("redirect"))
	if !isSafeRedirect(target) {
		return "/"
	}
	return target
}

// isSafeRedirect 只允许站内绝对路径，拒绝跳转到外部地址
func isSafeRedirect(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}
