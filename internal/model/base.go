package model

import (
	"time"

	"github.com/google/uuid"
)

// UnknownUserName 外键无法解析时的展示名
const UnknownUserName = "未知用户"

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// newID 生成主键；未显式赋值时由 BeforeCreate 钩子调用
func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// displayName 悬空外键安全的用户名解析
func displayName(u *User) string {
	if u == nil || u.RealName == "" {
		if u != nil && u.Username != "" {
			return u.Username
		}
		return UnknownUserName
	}
	return u.RealName
}

// AllModels 参与 AutoMigrate 的模型，顺序即建表顺序
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Material{},
		&MaterialRecord{},
		&Event{},
		&EventRegistration{},
		&Interaction{},
	}
}
