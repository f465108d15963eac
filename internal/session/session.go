// Package session 持有"当前谁在登录"这件事的唯一事实来源。
// 每个访客由一个会话Cookie标识，持久化状态只有一条记录：
// bearer令牌，以及用它解析出的用户身份。
package session

import "nexitera-web/internal/types"

// Session 单个访客的认证状态快照。
// 不变式：User非空时Token必然非空（已解析的身份总有背后的令牌）。
// Resolving 仅在令牌到身份的初次解析进行中为真。
type Session struct {
	SID       string
	Token     string
	User      *types.UserProfile
	Resolving bool
}

// Anonymous 未登录的会话
func Anonymous(sid string) Session {
	return Session{SID: sid}
}

// Authenticated 是否已解析出用户身份
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Role 已解析用户的角色；匿名会话返回 RoleUnknown
func (s Session) Role() types.Role {
	if s.User == nil {
		return types.RoleUnknown
	}
	return s.User.Role
}
