package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Role 用户角色
type Role string

const (
	RoleVillager  Role = "VILLAGER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleVillager, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Privileged 管理员或组织者
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleOrganizer
}

// ParseRole 解析角色字符串
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("未知角色: %q", s)
	}
	return r, nil
}

// UserStatus 账号状态
type UserStatus string

const (
	UserStatusPending UserStatus = "PENDING"
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBanned  UserStatus = "BANNED"
)

// Valid 是否为已知状态
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusBanned:
		return true
	}
	return false
}

// ParseUserStatus 解析账号状态字符串
func ParseUserStatus(s string) (UserStatus, error) {
	st := UserStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("未知账号状态: %q", s)
	}
	return st, nil
}

// User 用户表 对应 users
type User struct {
	UserID       string     `gorm:"type:varchar(36);primaryKey"                   json:"userId"`
	Username     string     `gorm:"type:varchar(50);not null;uniqueIndex"         json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                    json:"-"`
	RealName     string     `gorm:"type:varchar(50);not null"                     json:"realName"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'VILLAGER'"  json:"role"`
	VillageName  string     `gorm:"type:varchar(100);not null;default:''"         json:"villageName"`
	Phone        *string    `gorm:"type:varchar(20)"                              json:"phone,omitempty"`
	ExercisePref *string    `gorm:"type:varchar(100)"                             json:"exercisePref,omitempty"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'PENDING'"   json:"status"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	newID(&u.UserID)
	return nil
}

// DisplayName 展示名，优先真实姓名
func (u *User) DisplayName() string { return displayName(u) }
