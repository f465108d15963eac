package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"nexitera-web/internal/types"
	"nexitera-web/internal/web/handler"
)

// Deps 路由需要的处理器与中间件
type Deps struct {
	Session      *handler.SessionMiddleware
	Auth         *handler.AuthHandler
	Vacancies    *handler.VacancyHandler
	Applications *handler.ApplicationHandler
	Internal     *handler.InternalHandler

	InternalAPIKey string // /internal 接口的访问密钥；为空则拒绝所有访问
}

// RegisterRoutes 注册页面路由。
// 路由面与角色守卫：公开页（首页/认证/职位浏览）、候选人页
// （我的投递、投递操作）、雇主页（我的职位、发布/编辑/删除、
// 匹配候选人），未知路径一律回首页。
func RegisterRoutes(h *server.Hertz, deps Deps) {
	h.Use(
		handler.RequestIDMiddleware(),
		handler.AccessLogMiddleware(),
		deps.Session.Handle(),
	)

	// 公开页面
	h.GET("/", handler.Home)
	h.GET("/login", deps.Auth.ShowLogin)
	h.POST("/login", deps.Auth.Login)
	h.GET("/register", deps.Auth.ShowRegister)
	h.POST("/register", deps.Auth.Register)
	h.POST("/logout", deps.Auth.Logout)
	h.GET("/session", deps.Auth.SessionStatus)
	h.GET("/vacancies", deps.Vacancies.List)
	h.GET("/vacancies/:id", deps.Vacancies.Detail)

	// 候选人页面
	candidateOnly := handler.RequireRoles(types.RoleCandidate)
	h.GET("/my-applications", candidateOnly, deps.Applications.Mine)
	h.POST("/vacancies/:id/apply", candidateOnly, deps.Vacancies.Apply)

	// 雇主页面
	employerOnly := handler.RequireRoles(types.RoleEmployer)
	h.GET("/my-posted-vacancies", employerOnly, deps.Vacancies.Mine)
	h.GET("/create-vacancy", employerOnly, deps.Vacancies.ShowForm)
	h.POST("/create-vacancy", employerOnly, deps.Vacancies.Save)
	h.GET("/create-vacancy/:id", employerOnly, deps.Vacancies.ShowForm)
	h.POST("/create-vacancy/:id", employerOnly, deps.Vacancies.Save)
	h.GET("/vacancies/:id/delete", employerOnly, deps.Vacancies.ConfirmDelete)
	h.POST("/vacancies/:id/delete", employerOnly, deps.Vacancies.Delete)
	h.GET("/vacancies/:id/matched-candidates", employerOnly, deps.Vacancies.MatchedCandidates)

	// 内部运维接口，固定密钥保护
	internalKey := deps.InternalAPIKey
	internal := h.Group("/internal", keyauth.New(
		keyauth.WithKeyLookUp("header:X-Internal-Key", ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			if internalKey == "" || key != internalKey {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}
			return true, nil
		}),
	))
	internal.GET("/healthz", deps.Internal.Healthz)
	internal.POST("/sessions/revoke", deps.Internal.RevokeSession)

	// 未知路径回首页
	h.NoRoute(func(c context.Context, ctx *app.RequestContext) {
		ctx.Redirect(consts.StatusFound, []byte("/"))
	})
}
