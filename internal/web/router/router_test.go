package router

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/app/server/render"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexitera-web/internal/gateway"
	"nexitera-web/internal/session"
	"nexitera-web/internal/types"
	"nexitera-web/internal/web/handler"
)

// memStore 内存会话存储，路由测试用
type memStore struct {
	mu      sync.Mutex
	records map[string]session.Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]session.Record)}
}

func (s *memStore) Load(ctx context.Context, sid string) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[sid]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) Save(ctx context.Context, sid string, rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[sid] = rec
	return nil
}

func (s *memStore) Delete(ctx context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sid)
	return nil
}

func candidateProfile() *types.UserProfile {
	return &types.UserProfile{ID: 1, Email: "ivan@example.com", FullName: "Иван Петров", Role: types.RoleCandidate}
}

func employerProfile() *types.UserProfile {
	return &types.UserProfile{ID: 2, Email: "hr@example.com", FullName: "Анна HR", Role: types.RoleEmployer}
}

// newFakeBackend 模拟FastAPI后端的最小REST接口
func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/login/access-token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("username") == "ivan@example.com" && r.PostFormValue("password") == "secret123" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "token-cand", "token_type": "bearer"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
	})

	mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer token-cand":
			json.NewEncoder(w).Encode(candidateProfile())
		case "Bearer token-emp":
			json.NewEncoder(w).Encode(employerProfile())
		default:
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
		}
	})

	mux.HandleFunc("/api/v1/applications/my/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]types.Application{{
			ID:        1,
			VacancyID: 7,
			Status:    types.StatusSubmitted,
			Vacancy:   &types.Vacancy{ID: 7, Title: "Go-разработчик"},
			CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}})
	})

	mux.HandleFunc("/api/v1/vacancies/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]types.Vacancy{{ID: 7, Title: "Go-разработчик"}})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Not Found"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestApp 搭建完整的路由测试环境：真实路由+真实处理器+内存会话存储
func newTestApp(t *testing.T) (*server.Hertz, *memStore) {
	t.Helper()
	backend := newFakeBackend(t)

	gw := gateway.NewClient(backend.URL+"/api/v1", backend.Client())
	store := newMemStore()
	sessions := session.NewManager(store, gw)

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	h.SetFuncMap(handler.TemplateFuncMap())
	h.LoadHTMLGlob("../templates/*.tmpl")

	// ut.PerformRequest 不会把引擎的模板渲染器注入请求上下文（仅真实
	// HTTP/1 服务路径会注入），这里用中间件手动注入，否则 ctx.HTML 会 panic
	tmpl := template.Must(template.New("").Funcs(handler.TemplateFuncMap()).ParseGlob("../templates/*.tmpl"))
	htmlRender := render.HTMLProduction{Template: tmpl}
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		ctx.HTMLRender = htmlRender
		ctx.Next(c)
	})

	sessionMW := handler.NewSessionMiddleware(sessions, "nexitera_sid", 24*time.Hour, false)
	RegisterRoutes(h, Deps{
		Session:        sessionMW,
		Auth:           handler.NewAuthHandler(gw, sessions, sessionMW),
		Vacancies:      handler.NewVacancyHandler(gw, sessions),
		Applications:   handler.NewApplicationHandler(gw, sessions),
		Internal:       handler.NewInternalHandler(sessions, "test"),
		InternalAPIKey: "ops-key",
	})
	return h, store
}

func withCookie(sid string) ut.Header {
	return ut.Header{Key: "Cookie", Value: "nexitera_sid=" + sid}
}

// TestHomePageRenders 首页对匿名访客照常渲染
func TestHomePageRenders(t *testing.T) {
	h, _ := newTestApp(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "NexITera", "首页应包含产品名称")

	rawHeader := string(resp.Result().Header.Header())
	assert.Contains(t, rawHeader, "nexitera_sid=", "首次访问应下发会话Cookie")
}

// TestGuardRedirectsAnonymousToLogin 匿名访客访问候选人页面被送去登录页并带回跳地址
func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	h, _ := newTestApp(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/my-applications", nil)
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/login?redirect=/my-applications", resp.Result().Header.Get("Location"), "应跳转登录页并携带回跳地址")
}

// TestGuardRedirectsWrongRoleHome 角色不匹配的已登录用户被送回首页
func TestGuardRedirectsWrongRoleHome(t *testing.T) {
	h, store := newTestApp(t)
	store.records["emp-sid"] = session.Record{Token: "token-emp", User: employerProfile()}

	resp := ut.PerformRequest(h.Engine, "GET", "/my-applications", nil, withCookie("emp-sid"))
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/", resp.Result().Header.Get("Location"), "雇主访问候选人页面应回首页")
}

// TestCandidateSeesApplications 候选人能看到自己的投递列表
func TestCandidateSeesApplications(t *testing.T) {
	h, store := newTestApp(t)
	store.records["cand-sid"] = session.Record{Token: "token-cand", User: candidateProfile()}

	resp := ut.PerformRequest(h.Engine, "GET", "/my-applications", nil, withCookie("cand-sid"))
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, "Мои отклики")
	assert.Contains(t, body, "Go-разработчик", "投递的职位标题应出现在列表里")
	assert.Contains(t, body, "Подана", "状态应展示为俄语文案")
}

// TestVacancyListPagination 满页才渲染下一页链接，末尾短页不渲染
func TestVacancyListPagination(t *testing.T) {
	h, _ := newTestApp(t)

	// 后端只有一条职位：默认每页20条时是短页
	resp := ut.PerformRequest(h.Engine, "GET", "/vacancies", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Go-разработчик")
	assert.NotContains(t, resp.Body.String(), "Далее", "短页不应出现下一页链接")

	// 每页1条时恰好满页，可能还有下一页
	resp = ut.PerformRequest(h.Engine, "GET", "/vacancies?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Далее", "满页应出现下一页链接")
}

// TestLoginFlow 登录：表单提交→令牌交换→身份解析→持久化→回跳
func TestLoginFlow(t *testing.T) {
	h, store := newTestApp(t)

	form := url.Values{}
	form.Set("email", "ivan@example.com")
	form.Set("password", "secret123")
	form.Set("redirect", "/vacancies")
	body := form.Encode()

	resp := ut.PerformRequest(h.Engine, "POST", "/login",
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"},
		withCookie("fresh-sid"),
	)
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/vacancies", resp.Result().Header.Get("Location"), "登录成功应回跳到请求的站内地址")

	// 登录换发新SID：记录保存在新SID下，登录前的sid已作废
	rec, err := store.Load(context.Background(), "fresh-sid")
	require.NoError(t, err)
	assert.Nil(t, rec, "登录前的sid下不应残留记录")

	store.mu.Lock()
	require.Len(t, store.records, 1, "登录后应恰好持久化一条会话记录")
	var newSID string
	var newRec session.Record
	for sid, r := range store.records {
		newSID, newRec = sid, r
	}
	store.mu.Unlock()

	assert.NotEqual(t, "fresh-sid", newSID, "登录后应持有新的会话ID")
	assert.Equal(t, "token-cand", newRec.Token)
	require.NotNil(t, newRec.User, "令牌和身份应在同一条记录里")
	assert.Equal(t, types.RoleCandidate, newRec.User.Role)

	rawHeader := string(resp.Result().Header.Header())
	assert.Contains(t, rawHeader, "nexitera_sid="+newSID, "登录应下发新SID的Cookie")
}

// TestLoginDiscardsPresetSID 登录前由客户端预置的sid在登录后不可复用
func TestLoginDiscardsPresetSID(t *testing.T) {
	h, store := newTestApp(t)
	store.records["planted-sid"] = session.Record{}

	form := url.Values{}
	form.Set("email", "ivan@example.com")
	form.Set("password", "secret123")
	body := form.Encode()

	resp := ut.PerformRequest(h.Engine, "POST", "/login",
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"},
		withCookie("planted-sid"),
	)
	require.Equal(t, http.StatusFound, resp.Code)

	rec, err := store.Load(context.Background(), "planted-sid")
	require.NoError(t, err)
	assert.Nil(t, rec, "预置sid的记录应在登录时被清除")

	rawHeader := string(resp.Result().Header.Header())
	assert.Contains(t, rawHeader, "nexitera_sid=", "登录应下发会话Cookie")
	assert.NotContains(t, rawHeader, "nexitera_sid=planted-sid", "下发的Cookie不应沿用预置sid")

	// 持有预置sid的一方在登录后拿不到任何已登录会话
	replay := ut.PerformRequest(h.Engine, "GET", "/my-applications", nil, withCookie("planted-sid"))
	require.Equal(t, http.StatusFound, replay.Code)
	assert.Equal(t, "/login?redirect=/my-applications", replay.Result().Header.Get("Location"), "预置sid应被当作匿名会话")
}

// TestLoginBadCredentials 凭证错误时停留在登录页并展示后端文案
func TestLoginBadCredentials(t *testing.T) {
	h, store := newTestApp(t)

	form := url.Values{}
	form.Set("email", "ivan@example.com")
	form.Set("password", "wrong")
	body := form.Encode()

	resp := ut.PerformRequest(h.Engine, "POST", "/login",
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"},
		withCookie("fresh-sid"),
	)
	require.Equal(t, http.StatusOK, resp.Code, "凭证错误不跳转，留在登录页")
	assert.Contains(t, resp.Body.String(), "Incorrect email or password", "后端的错误文案应透传到页面")

	rec, err := store.Load(context.Background(), "fresh-sid")
	require.NoError(t, err)
	assert.Nil(t, rec, "失败的登录不应留下会话记录")
}

// TestLoginRejectsExternalRedirect 登录回跳只接受站内路径
func TestLoginRejectsExternalRedirect(t *testing.T) {
	h, _ := newTestApp(t)

	form := url.Values{}
	form.Set("email", "ivan@example.com")
	form.Set("password", "secret123")
	form.Set("redirect", "https://evil.example.com/phish")
	body := form.Encode()

	resp := ut.PerformRequest(h.Engine, "POST", "/login",
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"},
		withCookie("fresh-sid"),
	)
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/", resp.Result().Header.Get("Location"), "外部地址应被拒绝，回退到首页")
}

// TestLogoutClearsSession 登出清除记录并跳转登录入口
func TestLogoutClearsSession(t *testing.T) {
	h, store := newTestApp(t)
	store.records["cand-sid"] = session.Record{Token: "token-cand", User: candidateProfile()}

	resp := ut.PerformRequest(h.Engine, "POST", "/logout", nil, withCookie("cand-sid"))
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/login", resp.Result().Header.Get("Location"))

	rec, err := store.Load(context.Background(), "cand-sid")
	require.NoError(t, err)
	assert.Nil(t, rec, "登出后会话记录应被清除")
}

// TestUnknownPathRedirectsHome 未知路径一律回首页
func TestUnknownPathRedirectsHome(t *testing.T) {
	h, _ := newTestApp(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/definitely/not/a/page", nil)
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/", resp.Result().Header.Get("Location"))
}

// TestSessionStatusEndpoint /session 返回会话状态快照
func TestSessionStatusEndpoint(t *testing.T) {
	h, store := newTestApp(t)
	store.records["cand-sid"] = session.Record{Token: "token-cand", User: candidateProfile()}

	resp := ut.PerformRequest(h.Engine, "GET", "/session", nil, withCookie("cand-sid"))
	require.Equal(t, http.StatusOK, resp.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &status))
	assert.Equal(t, true, status["authenticated"])
	assert.Equal(t, "candidate", status["role"])
}

// TestInternalKeyAuth 内部接口只接受正确的固定密钥
func TestInternalKeyAuth(t *testing.T) {
	h, _ := newTestApp(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/internal/healthz", nil)
	assert.NotEqual(t, http.StatusOK, resp.Code, "缺少密钥应被拒绝")

	resp = ut.PerformRequest(h.Engine, "GET", "/internal/healthz", nil,
		ut.Header{Key: "X-Internal-Key", Value: "wrong-key"})
	assert.NotEqual(t, http.StatusOK, resp.Code, "错误密钥应被拒绝")

	resp = ut.PerformRequest(h.Engine, "GET", "/internal/healthz", nil,
		ut.Header{Key: "X-Internal-Key", Value: "ops-key"})
	require.Equal(t, http.StatusOK, resp.Code, "正确密钥应放行")
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}

// TestInternalRevokeSession 运维强制登出会话
func TestInternalRevokeSession(t *testing.T) {
	h, store := newTestApp(t)
	store.records["cand-sid"] = session.Record{Token: "token-cand", User: candidateProfile()}

	payload := `{"sid":"cand-sid"}`
	resp := ut.PerformRequest(h.Engine, "POST", "/internal/sessions/revoke",
		&ut.Body{Body: strings.NewReader(payload), Len: len(payload)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
		ut.Header{Key: "X-Internal-Key", Value: "ops-key"},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	rec, err := store.Load(context.Background(), "cand-sid")
	require.NoError(t, err)
	assert.Nil(t, rec, "被强制登出的会话记录应被清除")
}
