// Package guard 决定一个受限页面对当前会话该如何响应。
// 决策是 (令牌, 用户, 允许角色) 三元组的纯函数，便于穷举测试；
// 对Cookie、跳转等副作用的落实放在web层。
package guard

import (
	"nexitera-web/internal/session"
	"nexitera-web/internal/types"
)

// Decision 守卫的四种结果
type Decision int

const (
	// Render 渲染受限内容
	Render Decision = iota
	// RedirectLogin 跳转到登录入口
	RedirectLogin
	// RedirectHome 跳转到首页
	RedirectHome
	// Loading 渲染中性的加载状态（解析还在进行中，先不跳转）
	Loading
)

// String 决策名称，用于日志
func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

// State 决策的全部输入
type State struct {
	HasToken  bool
	HasUser   bool
	Role      types.Role
	Resolving bool
}

// StateOf 从会话快照提取守卫输入
func StateOf(s session.Session) State {
	return State{
		HasToken:  s.Token != "",
		HasUser:   s.User != nil,
		Role:      s.Role(),
		Resolving: s.Resolving,
	}
}

// Decide 按固定顺序给出守卫决策。顺序是承载语义的：
//  1. 解析中且持有令牌但还没有身份 → 加载状态。先于一切跳转检查，
//     避免bootstrap窗口内闪现到登录页。只在令牌存在时给加载状态，
//     否则匿名访客会停在转圈上。
//  2. 没有令牌 → 登录入口。先于用户检查，保证未登录访客去登录页
//     而不是被第3步误送回首页。
//  3. 没有解析出用户，或角色不在允许集合 → 首页。
//  4. 其余情况渲染受限内容。
func Decide(state State, allowed map[types.Role]bool) Decision {
	if state.Resolving && state.HasToken && !state.HasUser {
		return Loading
	}
	if !state.HasToken {
		return RedirectLogin
	}
	if !state.HasUser || !allowed[state.Role] {
		return RedirectHome
	}
	return Render
}

// AllowRoles 构造允许角色集合
func AllowRoles(roles ...types.Role) map[types.Role]bool {
	allowed := make(map[types.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return allowed
}
