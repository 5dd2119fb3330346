package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
	"village-sports/backend/internal/service"
	"village-sports/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// EventHandler 赛事模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// ListEvents 赛事列表
// GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	h.list(c, h.eventSvc.List)
}

// ListRecommended 推荐赛事（排除本人组织的）
// GET /api/v1/events/recommended
func (h *EventHandler) ListRecommended(c *gin.Context) {
	h.list(c, h.eventSvc.Recommended)
}

type eventLister func(ctx context.Context, actor policy.Actor, req *dto.EventListRequest) ([]dto.EventResponse, int64, error)

func (h *EventHandler) list(c *gin.Context, fn eventLister) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, total, err := fn(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetEvent 赛事详情
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, event)
}

// CreateEvent 发布赛事
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, event)
}

// UpdateEvent 修改赛事
// PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, event)
}

// AdvanceStatus 推进赛事状态
// PUT /api/v1/events/:id/status
func (h *EventHandler) AdvanceStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.AdvanceEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	event, err := h.eventSvc.AdvanceStatus(c.Request.Context(), actor, c.Param("id"), model.EventStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, event)
}

// DeleteEvent 删除赛事
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, dto.BoolResponse{Success: true})
}

// Register 报名赛事
// POST /api/v1/events/:id/register
func (h *EventHandler) Register(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RegisterEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
	}

	event, err := h.eventSvc.Register(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, event)
}

// ListRegistrations 报名名单（组织者本人或管理员）
// GET /api/v1/events/:id/registrations
func (h *EventHandler) ListRegistrations(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	regs, err := h.eventSvc.Registrations(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": regs})
}

// ExportRegistrations 导出报名名单
// GET /api/v1/events/:id/registrations/export
func (h *EventHandler) ExportRegistrations(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	data, filename, err := h.eventSvc.ExportRegistrations(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentTypeXLSX, data)
}

// RecountParticipants 按报名记录校正报名人数
// POST /api/v1/events/:id/recount
func (h *EventHandler) RecountParticipants(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.RecountParticipants(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, event)
}

// Calendar 赛事日历订阅
// GET /api/v1/events/calendar.ics
func (h *EventHandler) Calendar(c *gin.Context) {
	data, err := h.eventSvc.Calendar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="events.ics"`)
	c.Data(http.StatusOK, contentTypeICS, data)
}
