package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// AuthModulePrefix 认证模块
	AuthModulePrefix = "auth"

	// EntitySession 访客会话实体
	EntitySession = "session"

	// KeyAuthSession 访客会话记录 (HASH, 字段: token, user)
	// 格式: app:auth:session:{sid}
	KeyAuthSession = AppPrefix + ":" + AuthModulePrefix + ":" + EntitySession + ":%s"
)
