package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"nexitera-web/internal/constants"
	"nexitera-web/internal/logger"
	"nexitera-web/internal/session"
)

// InternalHandler 运维内部接口（keyauth保护）
type InternalHandler struct {
	sessions *session.Manager
	version  string
}

// NewInternalHandler 创建内部接口处理器
func NewInternalHandler(sessions *session.Manager, version string) *InternalHandler {
	return &InternalHandler{sessions: sessions, version: version}
}

// Healthz GET /internal/healthz
func (h *InternalHandler) Healthz(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{
		"status":  "ok",
		"service": constants.ServiceName,
		"version": h.version,
	})
}

// RevokeSession POST /internal/sessions/revoke
// 运维强制登出某个会话（例如令牌泄露时）
func (h *InternalHandler) RevokeSession(c context.Context, ctx *app.RequestContext) {
	var req struct {
		SID string `json:"sid"`
	}
	if err := ctx.BindJSON(&req); err != nil || strings.TrimSpace(req.SID) == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "sid is required"})
		return
	}

	if _, err := h.sessions.Logout(c, req.SID); err != nil {
		logger.Ctx(c).Error().Err(err).Str("sid", req.SID).Msg("强制登出会话失败")
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "revoke failed"})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"revoked": req.SID})
}
