package constants

import "time"

const (
	// ServiceName 服务名称，用于日志与追踪的资源标识
	ServiceName = "nexitera-web"

	// SessionCookieName 会话Cookie名称，保存访客的会话ID
	SessionCookieName = "nexitera_sid"

	// DefaultSessionTTL 会话记录的默认过期时间
	DefaultSessionTTL = 24 * time.Hour

	// DefaultPageLimit 列表页默认分页大小
	DefaultPageLimit = 20
	// MaxPageLimit 列表页最大分页大小，防止把过大的limit透传给后端
	MaxPageLimit = 100

	// MaxResumeUploadBytes 简历上传的大小上限（10MB）
	MaxResumeUploadBytes = 10 << 20

	// RequestIDHeader 请求ID响应头
	RequestIDHeader = "X-Request-ID"
)
