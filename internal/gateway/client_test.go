package gateway

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexitera-web/internal/types"
)

// TestAuthenticateSendsFormEncodedGrant 令牌交换必须是form编码的 username/password
func TestAuthenticateSendsFormEncodedGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/login/access-token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"), "密码授权必须是form编码")

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ivan@example.com", r.PostFormValue("username"), "邮箱应放在 username 字段里")
		assert.Equal(t, "secret123", r.PostFormValue("password"))

		json.NewEncoder(w).Encode(map[string]string{"access_token": "token-abc", "token_type": "bearer"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/v1", srv.Client())
	token, err := client.Authenticate(context.Background(), "ivan@example.com", "secret123")
	require.NoError(t, err, "令牌交换不应失败")
	assert.Equal(t, "token-abc", token.AccessToken)
}

// TestAuthenticateRejectsEmptyToken 空令牌响应视为失败
func TestAuthenticateRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": ""})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Authenticate(context.Background(), "a@b.c", "pw")
	assert.Error(t, err, "空access_token应报错而不是产生无令牌会话")
}

// TestBearerTokenAttached 受保护接口应携带 Bearer 凭证
func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"), "受保护接口必须携带bearer令牌")
		json.NewEncoder(w).Encode(types.UserProfile{ID: 1, Email: "ivan@example.com", Role: types.RoleCandidate})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	profile, err := client.CurrentProfile(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, types.RoleCandidate, profile.Role)
}

// TestListVacanciesForwardsFilters 筛选参数原样透传到查询串，空筛选不出现
func TestListVacanciesForwardsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("skip"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "golang", q.Get("search_query"))
		assert.Equal(t, "remote", q.Get("work_format"))
		assert.Equal(t, "100000", q.Get("min_salary_from"))
		assert.False(t, q.Has("employment_type"), "未设置的筛选不应出现在查询串里")
		assert.Empty(t, r.Header.Get("Authorization"), "职位列表是公开接口，不携带令牌")

		json.NewEncoder(w).Encode([]types.Vacancy{{ID: 1, Title: "Go-разработчик"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	vacancies, err := client.ListVacancies(context.Background(), types.VacancyFilter{
		Skip:          20,
		Limit:         10,
		SearchQuery:   "golang",
		WorkFormat:    "remote",
		MinSalaryFrom: 100000,
	})
	require.NoError(t, err)
	require.Len(t, vacancies, 1)
	assert.Equal(t, "Go-разработчик", vacancies[0].Title)
}

// TestUploadResumeMultipart 简历上传是multipart表单，字段名固定为 "file"
func TestUploadResumeMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes/upload-and-parse", r.URL.Path)
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType, "上传必须是multipart表单")

		file, header, err := r.FormFile("file")
		require.NoError(t, err, "文件字段名必须是 file")
		defer file.Close()
		assert.Equal(t, "resume.pdf", header.Filename)

		json.NewEncoder(w).Encode(types.Resume{ID: 42, Title: "Иван Петров — Go"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	resume, err := client.UploadResume(context.Background(), "token-abc", "resume.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, 42, resume.ID)
}

// TestCreateApplicationPayload 投递载荷是 vacancy_id+resume_id 二元组
func TestCreateApplicationPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applications/", r.URL.Path)
		var payload map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 7, payload["vacancy_id"])
		assert.Equal(t, 42, payload["resume_id"])

		json.NewEncoder(w).Encode(types.Application{ID: 1, VacancyID: 7, ResumeID: 42, Status: types.StatusSubmitted})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	app, err := client.CreateApplication(context.Background(), "token-abc", 7, 42)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, app.Status)
}

// TestAPIErrorStringDetail 非2xx时 {"detail": "..."} 被解析为结构化错误
func TestAPIErrorStringDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.CurrentProfile(context.Background(), "expired")
	require.Error(t, err)

	assert.True(t, IsUnauthorized(err), "401应被识别为认证失败")
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "Could not validate credentials", UserMessage(err, "fallback"), "detail字符串应原样透传")
}

// TestAPIErrorFieldList 422的字段错误列表被拼接成用户可读文案
func TestAPIErrorFieldList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error.email"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.Register(context.Background(), RegisterInput{Email: "not-an-email"})
	require.Error(t, err)

	msg := UserMessage(err, "fallback")
	assert.Contains(t, msg, "body.email", "字段路径应出现在文案里")
	assert.Contains(t, msg, "value is not a valid email address")
}

// TestAPIErrorNonJSONBody 非JSON错误体按原文透传
func TestAPIErrorNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	_, err := client.GetVacancy(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "upstream timeout", UserMessage(err, "fallback"))
}

// TestUserMessageFallback 非APIError（网络错误等）不向用户透出内部细节
func TestUserMessageFallback(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", &http.Client{})
	_, err := client.GetVacancy(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "запрос не удался", UserMessage(err, "запрос не удался"), "网络错误应使用调用方提供的通用文案")
}

// TestBaseURLTrailingSlashNormalized 基础地址末尾斜杠被归一化，不产生双斜杠路径
func TestBaseURLTrailingSlashNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/vacancies/5", r.URL.Path, "路径不应出现双斜杠")
		json.NewEncoder(w).Encode(types.Vacancy{ID: 5})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/v1/", srv.Client())
	vacancy, err := client.GetVacancy(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, vacancy.ID)
}
