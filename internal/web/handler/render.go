package handler

import (
	"fmt"
	"html/template"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"nexitera-web/internal/session"
	"nexitera-web/internal/types"
)

// 俄语月份（属格），ru-RU日期展示用
var ruMonths = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// TemplateFuncMap 页面模板的辅助函数
func TemplateFuncMap() template.FuncMap {
	return template.FuncMap{
		"ruDate": func(t time.Time) string {
			if t.IsZero() {
				return "N/A"
			}
			return fmt.Sprintf("%d %s %d", t.Day(), ruMonths[t.Month()-1], t.Year())
		},
		"joinSkills": func(skills []string) string {
			out := ""
			for i, s := range skills {
				if i > 0 {
					out += ", "
				}
				out += s
			}
			return out
		},
	}
}

// pageData 页面模板数据
type pageData map[string]any

// renderPage 渲染页面模板，统一注入导航栏需要的会话信息
func renderPage(ctx *app.RequestContext, status int, name string, sess session.Session, data pageData) {
	if data == nil {
		data = pageData{}
	}
	data["LoggedIn"] = sess.Authenticated()
	data["IsCandidate"] = sess.Role() == types.RoleCandidate
	data["IsEmployer"] = sess.Role() == types.RoleEmployer
	if sess.User != nil {
		data["UserName"] = sess.User.FullName
		data["UserEmail"] = sess.User.Email
	}
	ctx.HTML(status, name, data)
}
