package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// InteractionType 社区互动类别
type InteractionType string

const (
	InteractionNotice  InteractionType = "NOTICE"
	InteractionBoard   InteractionType = "BOARD"
	InteractionConsult InteractionType = "CONSULT"
	InteractionComment InteractionType = "COMMENT"
	InteractionLike    InteractionType = "LIKE"
)

// ParseInteractionType 解析互动类别字符串
func ParseInteractionType(s string) (InteractionType, error) {
	t := InteractionType(s)
	switch t {
	case InteractionNotice, InteractionBoard, InteractionConsult, InteractionComment, InteractionLike:
		return t, nil
	}
	return "", fmt.Errorf("未知互动类别: %q", s)
}

// Interaction 社区互动表 对应 interactions
// ReplyContent 仅能在为空时写入一次
type Interaction struct {
	InteractionID string          `gorm:"type:varchar(36);primaryKey"   json:"interactionId"`
	TargetID      *string         `gorm:"type:varchar(36);index"        json:"targetId,omitempty"`
	UserID        *string         `gorm:"type:varchar(36);index"        json:"userId,omitempty"`
	UserRole      Role            `gorm:"type:varchar(20);not null"     json:"userRole"`
	Type          InteractionType `gorm:"type:varchar(20);not null;index" json:"type"`
	Title         *string         `gorm:"type:varchar(200)"             json:"title,omitempty"`
	Content       string          `gorm:"type:text;not null"            json:"content"`
	ReplyContent  *string         `gorm:"type:text"                     json:"replyContent,omitempty"`
	RepliedBy     *string         `gorm:"type:varchar(36)"              json:"repliedBy,omitempty"`
	RepliedAt     *time.Time      `json:"repliedAt,omitempty"`
	BaseModel

	// 关联
	Author *User `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Interaction) TableName() string { return "interactions" }

func (i *Interaction) BeforeCreate(_ *gorm.DB) error {
	newID(&i.InteractionID)
	return nil
}

// AuthorName 作者展示名
func (i *Interaction) AuthorName() string { return displayName(i.Author) }

// AuthoredBy 是否由指定用户发布
func (i *Interaction) AuthoredBy(userID string) bool {
	return i.UserID != nil && *i.UserID == userID
}
