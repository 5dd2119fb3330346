package dto

import (
	"time"

	"village-sports/backend/internal/model"
)

// ── 社区互动模块 DTO ──

// InteractionListRequest 列表查询参数；Types 逗号分隔，多值为 OR 语义
type InteractionListRequest struct {
	PaginationRequest
	Types    string `form:"types"    binding:"omitempty,max=100"`
	TargetID string `form:"targetId" binding:"omitempty,max=36"`
	Mine     bool   `form:"mine"` // 仅看本人发布
}

// CreateInteractionRequest 发布请求
type CreateInteractionRequest struct {
	Type     string  `json:"type"     binding:"required,oneof=NOTICE BOARD CONSULT COMMENT LIKE"`
	Title    *string `json:"title"    binding:"omitempty,max=200"`
	Content  string  `json:"content"  binding:"omitempty,max=5000"` // 点赞可为空
	TargetID *string `json:"targetId" binding:"omitempty,max=36"`
}

// EditInteractionRequest 编辑请求
type EditInteractionRequest struct {
	Title   *string `json:"title"   binding:"omitempty,max=200"`
	Content string  `json:"content" binding:"required,max=5000"`
}

// ReplyInteractionRequest 官方回复请求
type ReplyInteractionRequest struct {
	ReplyContent string `json:"replyContent" binding:"required,max=5000"`
}

// InteractionResponse 社区互动响应
type InteractionResponse struct {
	ID           string     `json:"id"`
	TargetID     *string    `json:"targetId,omitempty"`
	UserID       *string    `json:"userId"`
	UserName     string     `json:"userName"`
	UserRole     string     `json:"userRole"`
	Type         string     `json:"type"`
	Title        *string    `json:"title,omitempty"`
	Content      string     `json:"content"`
	ReplyContent *string    `json:"replyContent,omitempty"`
	RepliedAt    *time.Time `json:"repliedAt,omitempty"`
	CreatedAt    time.Time  `json:"createTime"`
}

// NewInteractionResponse 由模型构造响应
func NewInteractionResponse(i *model.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:           i.InteractionID,
		TargetID:     i.TargetID,
		UserID:       i.UserID,
		UserName:     i.AuthorName(),
		UserRole:     string(i.UserRole),
		Type:         string(i.Type),
		Title:        i.Title,
		Content:      i.Content,
		ReplyContent: i.ReplyContent,
		RepliedAt:    i.RepliedAt,
		CreatedAt:    i.CreatedAt,
	}
}
