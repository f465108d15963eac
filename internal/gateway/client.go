package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nexitera-web/internal/tracing"
	"nexitera-web/internal/types"
)

// 为网关的出站调用定义专用tracer
var gatewayTracer = otel.Tracer("nexitera-web/gateway")

// Client 后端REST API的类型化客户端。
// 所有页面共用同一个实例；每次调用按入参携带bearer令牌，
// 客户端自身不保存任何认证状态。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建后端API客户端。baseURL包含路径前缀，例如
// "http://localhost:8000/api/v1"。
func NewClient(baseURL string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    trimmed,
		httpClient: httpClient,
	}
}

// TokenResponse /login/access-token 的响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterInput 注册新用户的载荷
type RegisterInput struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	FullName string     `json:"full_name"`
	Role     types.Role `json:"role"`
}

// Authenticate 令牌交换。按密码授权(password grant)约定，
// 请求体必须是form编码的 username/password 字段。
func (c *Client) Authenticate(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login/access-token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token TokenResponse
	if err := c.do(req, "", &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("backend returned empty access token")
	}
	return &token, nil
}

// Register 注册新用户
func (c *Client) Register(ctx context.Context, input RegisterInput) (*types.UserProfile, error) {
	var profile types.UserProfile
	if err := c.doJSON(ctx, http.MethodPost, "/users/", "", input, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CurrentProfile 按令牌获取当前用户，即把持久化令牌解析为确认的身份
func (c *Client) CurrentProfile(ctx context.Context, token string) (*types.UserProfile, error) {
	var profile types.UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", token, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListVacancies 职位列表，筛选参数原样透传
func (c *Client) ListVacancies(ctx context.Context, filter types.VacancyFilter) ([]types.Vacancy, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(filter.Skip))
	q.Set("limit", strconv.Itoa(filter.Limit))
	if filter.SearchQuery != "" {
		q.Set("search_query", filter.SearchQuery)
	}
	if filter.WorkFormat != "" {
		q.Set("work_format", filter.WorkFormat)
	}
	if filter.EmploymentType != "" {
		q.Set("employment_type", filter.EmploymentType)
	}
	if filter.MinSalaryFrom > 0 {
		q.Set("min_salary_from", strconv.Itoa(filter.MinSalaryFrom))
	}

	var vacancies []types.Vacancy
	if err := c.doJSON(ctx, http.MethodGet, "/vacancies/?"+q.Encode(), "", nil, &vacancies); err != nil {
		return nil, err
	}
	return vacancies, nil
}

// GetVacancy 按ID获取职位
func (c *Client) GetVacancy(ctx context.Context, id int) (*types.Vacancy, error) {
	var vacancy types.Vacancy
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/vacancies/%d", id), "", nil, &vacancy); err != nil {
		return nil, err
	}
	return &vacancy, nil
}

// CreateVacancy 创建职位（仅雇主）
func (c *Client) CreateVacancy(ctx context.Context, token string, input types.VacancyInput) (*types.Vacancy, error) {
	var vacancy types.Vacancy
	if err := c.doJSON(ctx, http.MethodPost, "/vacancies/", token, input, &vacancy); err != nil {
		return nil, err
	}
	return &vacancy, nil
}

// UpdateVacancy 更新职位（仅创建它的雇主）
func (c *Client) UpdateVacancy(ctx context.Context, token string, id int, input types.VacancyInput) (*types.Vacancy, error) {
	var vacancy types.Vacancy
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/vacancies/%d", id), token, input, &vacancy); err != nil {
		return nil, err
	}
	return &vacancy, nil
}

// DeleteVacancy 删除职位（仅创建它的雇主）
func (c *Client) DeleteVacancy(ctx context.Context, token string, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/vacancies/%d", id), token, nil, nil)
}

// MyVacancies 当前雇主发布的职位列表
func (c *Client) MyVacancies(ctx context.Context, token string, skip, limit int) ([]types.Vacancy, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var vacancies []types.Vacancy
	if err := c.doJSON(ctx, http.MethodGet, "/vacancies/my/?"+q.Encode(), token, nil, &vacancies); err != nil {
		return nil, err
	}
	return vacancies, nil
}

// MatchedCandidates 某职位的匹配候选人（仅雇主）
func (c *Client) MatchedCandidates(ctx context.Context, token string, vacancyID int) ([]types.MatchedCandidate, error) {
	var candidates []types.MatchedCandidate
	path := fmt.Sprintf("/vacancies/%d/matched-candidates/", vacancyID)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// UploadResume 上传并解析简历。multipart表单，字段名固定为 "file"；
// 成功后返回后端分配的简历记录。
func (c *Client) UploadResume(ctx context.Context, token, filename string, file io.Reader) (*types.Resume, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy resume file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/resumes/upload-and-parse", &body)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	// multipart自带boundary的Content-Type，不走默认的JSON
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resume types.Resume
	if err := c.do(req, token, &resume); err != nil {
		return nil, err
	}
	return &resume, nil
}

// CreateApplication 投递职位：vacancy+resume 二元组
func (c *Client) CreateApplication(ctx context.Context, token string, vacancyID, resumeID int) (*types.Application, error) {
	payload := struct {
		VacancyID int `json:"vacancy_id"`
		ResumeID  int `json:"resume_id"`
	}{VacancyID: vacancyID, ResumeID: resumeID}

	var application types.Application
	if err := c.doJSON(ctx, http.MethodPost, "/applications/", token, payload, &application); err != nil {
		return nil, err
	}
	return &application, nil
}

// MyApplications 当前候选人的投递列表
func (c *Client) MyApplications(ctx context.Context, token string, skip, limit int) ([]types.Application, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var applications []types.Application
	if err := c.doJSON(ctx, http.MethodGet, "/applications/my/?"+q.Encode(), token, nil, &applications); err != nil {
		return nil, err
	}
	return applications, nil
}

// doJSON 构造JSON请求并执行。payload为nil时不携带请求体。
func (c *Client) doJSON(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token, out)
}

// do 执行请求：有令牌则附加bearer凭证，非2xx时把后端的
// 结构化错误载荷原样交给调用方。本层不做重试。
func (c *Client) do(req *http.Request, token string, out any) error {
	ctx, span := gatewayTracer.Start(req.Context(), "gateway."+req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return fmt.Errorf("call backend %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return fmt.Errorf("read backend response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, payload)
		tracing.RecordHTTPError(span, apiErr, resp.StatusCode)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}
