package types

import "time"

// Role 用户角色。后端的角色词汇表是开放的，
// 未识别的取值统一归入 RoleUnknown，而不是假定闭集。
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
	RoleUnknown   Role = ""
)

// ParseRole 解析后端返回的角色字符串，未识别的取值返回 RoleUnknown
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleCandidate, RoleEmployer, RoleAdmin:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// Known 角色是否属于已识别的枚举
func (r Role) Known() bool {
	return r == RoleCandidate || r == RoleEmployer || r == RoleAdmin
}

// UserProfile 已解析的用户身份，对应后端 /users/me 的响应
type UserProfile struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Role        Role      `json:"role"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}
