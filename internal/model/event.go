package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "village-sports/backend/pkg/errors"
)

// EventStatus 赛事状态
type EventStatus string

const (
	EventStatusOpen       EventStatus = "OPEN"
	EventStatusInProgress EventStatus = "IN_PROGRESS"
	EventStatusEnded      EventStatus = "ENDED"
)

// ParseEventStatus 解析赛事状态字符串
func ParseEventStatus(s string) (EventStatus, error) {
	st := EventStatus(s)
	switch st {
	case EventStatusOpen, EventStatusInProgress, EventStatusEnded:
		return st, nil
	}
	return "", fmt.Errorf("未知赛事状态: %q", s)
}

// next 单步前进的后继状态；终态无后继
func (s EventStatus) next() (EventStatus, bool) {
	switch s {
	case EventStatusOpen:
		return EventStatusInProgress, true
	case EventStatusInProgress:
		return EventStatusEnded, true
	case EventStatusEnded:
		return "", false
	}
	return "", false
}

// Event 赛事表 对应 events
// ParticipantsCount 为报名记录数的物化投影，客户端不可直接写入
type Event struct {
	EventID           string      `gorm:"type:varchar(36);primaryKey"              json:"eventId"`
	Title             string      `gorm:"type:varchar(100);not null"               json:"title"`
	OrganizerID       *string     `gorm:"type:varchar(36);index"                   json:"organizerId,omitempty"`
	StartTime         time.Time   `gorm:"column:event_time;not null"               json:"time"`
	Location          string      `gorm:"type:varchar(200);not null"               json:"location"`
	Theme             string      `gorm:"type:varchar(50);not null;index"          json:"theme"`
	Rule              string      `gorm:"type:text;not null;default:''"            json:"rule"`
	ImgURL            string      `gorm:"type:varchar(500);not null;default:''"    json:"imgUrl"`
	Status            EventStatus `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	ParticipantsCount int         `gorm:"not null;default:0"                       json:"participantsCount"`
	VersionedModel

	// 关联
	Organizer *User `gorm:"foreignKey:OrganizerID;references:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(_ *gorm.DB) error {
	newID(&e.EventID)
	return nil
}

// OrganizerName 组织者展示名
func (e *Event) OrganizerName() string { return displayName(e.Organizer) }

// OwnedBy 是否由指定用户组织
func (e *Event) OwnedBy(userID string) bool {
	return e.OrganizerID != nil && *e.OrganizerID == userID
}

// Advance 单步推进到 target，不允许跳跃或回退
func (e *Event) Advance(target EventStatus) error {
	next, ok := e.Status.next()
	if !ok || next != target {
		return pkgerrors.ErrInvalidTransition
	}
	e.Status = target
	return nil
}

// EventRegistration 赛事报名表 对应 event_registrations
// (event_id, user_id) 唯一
type EventRegistration struct {
	RegistrationID string    `gorm:"type:varchar(36);primaryKey"                        json:"registrationId"`
	EventID        string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_event_user" json:"eventId"`
	UserID         *string   `gorm:"type:varchar(36);uniqueIndex:uk_event_user"          json:"userId,omitempty"`
	HealthDeclare  string    `gorm:"type:varchar(500);not null;default:''"              json:"healthDeclare"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                 json:"createdAt"`

	// 关联
	User  *User  `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:SET NULL"  json:"-"`
	Event *Event `gorm:"foreignKey:EventID;references:EventID;constraint:OnDelete:CASCADE" json:"-"`
}

func (EventRegistration) TableName() string { return "event_registrations" }

func (r *EventRegistration) BeforeCreate(_ *gorm.DB) error {
	newID(&r.RegistrationID)
	return nil
}

// UserName 报名人展示名
func (r *EventRegistration) UserName() string { return displayName(r.User) }
