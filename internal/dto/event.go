package dto

import (
	"time"

	"village-sports/backend/internal/model"
)

// ── 赛事模块 DTO ──

// CreateEventRequest 创建赛事请求；组织者取当前登录用户
type CreateEventRequest struct {
	Title    string    `json:"title"    binding:"required,max=100"`
	Time     time.Time `json:"time"     binding:"required"`
	Location string    `json:"location" binding:"required,max=200"`
	Theme    string    `json:"theme"    binding:"required,max=50"`
	Rule     string    `json:"rule"     binding:"omitempty,max=5000"`
	ImgURL   string    `json:"imgUrl"   binding:"omitempty,url,max=500"`
}

// UpdateEventRequest 修改赛事请求；Version 用于乐观锁
type UpdateEventRequest struct {
	Title    *string    `json:"title"    binding:"omitempty,min=1,max=100"`
	Time     *time.Time `json:"time"`
	Location *string    `json:"location" binding:"omitempty,min=1,max=200"`
	Theme    *string    `json:"theme"    binding:"omitempty,min=1,max=50"`
	Rule     *string    `json:"rule"     binding:"omitempty,max=5000"`
	ImgURL   *string    `json:"imgUrl"   binding:"omitempty,max=500"`
	Version  int        `json:"version"  binding:"required,min=1"`
}

// AdvanceEventStatusRequest 推进赛事状态请求
type AdvanceEventStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=OPEN IN_PROGRESS ENDED"`
}

// RegisterEventRequest 报名请求
type RegisterEventRequest struct {
	HealthCondition string `json:"healthCondition" binding:"omitempty,max=500"`
}

// EventListRequest 赛事列表查询参数
type EventListRequest struct {
	PaginationRequest
	Status  string `form:"status"  binding:"omitempty,oneof=OPEN IN_PROGRESS ENDED"`
	Theme   string `form:"theme"   binding:"omitempty,max=50"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// EventResponse 赛事响应
type EventResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	OrganizerID       *string   `json:"organizerId"`
	OrganizerName     string    `json:"organizerName"`
	Time              time.Time `json:"time"`
	Location          string    `json:"location"`
	Theme             string    `json:"theme"`
	Rule              string    `json:"rule"`
	ImgURL            string    `json:"imgUrl"`
	Status            string    `json:"status"`
	ParticipantsCount int       `json:"participantsCount"`
	Registered        bool      `json:"registered"` // 当前用户是否已报名
	Version           int       `json:"version"`
}

// NewEventResponse 由模型构造响应
func NewEventResponse(e *model.Event) EventResponse {
	return EventResponse{
		ID:                e.EventID,
		Title:             e.Title,
		OrganizerID:       e.OrganizerID,
		OrganizerName:     e.OrganizerName(),
		Time:              e.StartTime,
		Location:          e.Location,
		Theme:             e.Theme,
		Rule:              e.Rule,
		ImgURL:            e.ImgURL,
		Status:            string(e.Status),
		ParticipantsCount: e.ParticipantsCount,
		Version:           e.Version,
	}
}

// RegistrationResponse 报名记录响应
type RegistrationResponse struct {
	ID            string    `json:"id"`
	UserID        *string   `json:"userId"`
	UserName      string    `json:"userName"`
	Phone         string    `json:"phone,omitempty"`
	VillageName   string    `json:"villageName,omitempty"`
	HealthDeclare string    `json:"healthDeclare"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewRegistrationResponse 由模型构造响应
func NewRegistrationResponse(r *model.EventRegistration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:            r.RegistrationID,
		UserID:        r.UserID,
		UserName:      r.UserName(),
		HealthDeclare: r.HealthDeclare,
		CreatedAt:     r.CreatedAt,
	}
	if r.User != nil {
		resp.VillageName = r.User.VillageName
		if r.User.Phone != nil {
			resp.Phone = *r.User.Phone
		}
	}
	return resp
}
