package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"nexitera-web/internal/constants"
	"nexitera-web/internal/gateway"
	"nexitera-web/internal/session"
)

// ApplicationHandler 候选人的投递列表页面
type ApplicationHandler struct {
	gw       *gateway.Client
	sessions *session.Manager
}

// NewApplicationHandler 创建投递页面处理器
func NewApplicationHandler(gw *gateway.Client, sessions *session.Manager) *ApplicationHandler {
	return &ApplicationHandler{gw: gw, sessions: sessions}
}

// Mine GET /my-applications （守卫: candidate）
func (h *ApplicationHandler) Mine(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	data := pageData{"Title": "Мои отклики"}

	skip := parseIntQuery(ctx, "skip", 0)
	limit := clampLimit(parseIntQuery(ctx, "limit", constants.MaxPageLimit))

	applications, err := h.gw.MyApplications(c, sess.Token, skip, limit)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			// 令牌失效：静默降级并送去登录页，不展示错误
			setSession(ctx, h.sessions.Downgrade(c, sess.SID))
			redirectTo(ctx, "/login?redirect=/my-applications")
			return
		}
		data["Error"] = gateway.UserMessage(err, "Не удалось загрузить ваши отклики.")
		renderPage(ctx, consts.StatusOK, "my_applications.tmpl", sess, data)
		return
	}
	data["Applications"] = applications
	renderPage(ctx, consts.StatusOK, "my_applications.tmpl", sess, data)
}
