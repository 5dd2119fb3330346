package dto

import (
	"time"

	"village-sports/backend/internal/model"
)

// ── 用户模块 DTO ──

// RegisterRequest 注册请求；账号创建后为待审核状态
type RegisterRequest struct {
	Username     string  `json:"username"     binding:"required,min=3,max=50"`
	Password     string  `json:"password"     binding:"required,min=6,max=64"`
	RealName     string  `json:"realName"     binding:"required,max=50"`
	Role         string  `json:"role"         binding:"omitempty,oneof=VILLAGER ORGANIZER"`
	VillageName  string  `json:"villageName"  binding:"required,max=100"`
	Phone        *string `json:"phone"        binding:"omitempty,max=20"`
	ExercisePref *string `json:"exercisePref" binding:"omitempty,max=100"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=VILLAGER ORGANIZER ADMIN"`
	Status  string `form:"status"  binding:"omitempty,oneof=PENDING ACTIVE BANNED"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// UpdateUserStatusRequest 修改账号状态请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING ACTIVE BANNED"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	RealName     string    `json:"realName"`
	Role         string    `json:"role"`
	VillageName  string    `json:"villageName"`
	Phone        *string   `json:"phone,omitempty"`
	ExercisePref *string   `json:"exercisePref,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUserResponse 由模型构造响应
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.UserID,
		Username:     u.Username,
		RealName:     u.RealName,
		Role:         string(u.Role),
		VillageName:  u.VillageName,
		Phone:        u.Phone,
		ExercisePref: u.ExercisePref,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
	}
}
