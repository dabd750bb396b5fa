package model

// 会员等级与课程类型的合法取值
const (
	TierBasic = "basic"
	TierPro   = "pro"

	SessionAmateur = "amateur"
	SessionPro     = "pro"
)

// User 用户表 — 对应 users
// Role 区分管理端与客户端；MembershipTier 决定可预约的课程类型
type User struct {
	UserID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name           string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email          string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash   string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role           string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`            // admin | member
	MembershipTier string `gorm:"type:varchar(20);not null;default:'basic'"      json:"membership_tier"` // basic | pro
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// TierMatchesSession 会员等级是否允许预约该课程类型
// 两档互斥：pro 课程仅 pro 会员可约，amateur 课程仅 basic 会员可约（无等级继承）
func TierMatchesSession(tier, sessionType string) bool {
	switch sessionType {
	case SessionPro:
		return tier == TierPro
	case SessionAmateur:
		return tier == TierBasic
	default:
		return false
	}
}
