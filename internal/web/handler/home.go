package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Home GET / 营销首页
func Home(c context.Context, ctx *app.RequestContext) {
	renderPage(ctx, consts.StatusOK, "home.tmpl", SessionFrom(ctx), pageData{
		"Title": "NexITera — IT-вакансии и умный подбор",
	})
}
