package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FieldError 后端422校验错误里的单条字段错误
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Field 字段路径，例如 "body.email"
func (f FieldError) Field() string {
	parts := make([]string, 0, len(f.Loc))
	for _, p := range f.Loc {
		parts = append(parts, fmt.Sprintf("%v", p))
	}
	return strings.Join(parts, ".")
}

// APIError 后端返回的结构化错误载荷，原样透传给调用方。
// detail 可能是一个字符串，也可能是字段错误列表（422）。
type APIError struct {
	StatusCode int
	Detail     string
	Fields     []FieldError
}

// Error 实现 error 接口
func (e *APIError) Error() string {
	return fmt.Sprintf("backend api error: status=%d detail=%s", e.StatusCode, e.Message())
}

// Message 面向用户的错误文案：detail字符串，或把字段错误拼接成列表
func (e *APIError) Message() string {
	if len(e.Fields) > 0 {
		msgs := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			if field := f.Field(); field != "" {
				msgs = append(msgs, field+": "+f.Msg)
			} else {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("запрос завершился с ошибкой (%d)", e.StatusCode)
}

// parseAPIError 解析非2xx响应体。后端是FastAPI风格：
// {"detail": "..."} 或 {"detail": [{"loc":..,"msg":..,"type":..}, ...]}
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(body))
		return apiErr
	}

	var detailStr string
	if err := json.Unmarshal(envelope.Detail, &detailStr); err == nil {
		apiErr.Detail = detailStr
		return apiErr
	}

	var fields []FieldError
	if err := json.Unmarshal(envelope.Detail, &fields); err == nil {
		apiErr.Fields = fields
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(envelope.Detail))
	return apiErr
}

// IsUnauthorized 是否为认证失败（401），触发会话降级而不是展示错误
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound 是否为资源不存在（404）
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// UserMessage 提取面向用户的错误文案；非APIError时返回通用文案
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return fallback
}
