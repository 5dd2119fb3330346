package handler

import (
	"github.com/gin-gonic/gin"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/service"
	"village-sports/backend/pkg/response"
)

// InteractionHandler 社区互动模块 HTTP 处理器
type InteractionHandler struct {
	interactionSvc service.InteractionService
}

// NewInteractionHandler 创建 InteractionHandler
func NewInteractionHandler(interactionSvc service.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactionSvc: interactionSvc}
}

// ListInteractions 互动列表，types 多值为 OR
// GET /api/v1/interactions?types=NOTICE,BOARD
func (h *InteractionHandler) ListInteractions(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.InteractionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, total, err := h.interactionSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateInteraction 发布公告、看板、咨询、评论或点赞
// POST /api/v1/interactions
func (h *InteractionHandler) CreateInteraction(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	item, err := h.interactionSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, item)
}

// EditInteraction 编辑内容
// PUT /api/v1/interactions/:id
func (h *InteractionHandler) EditInteraction(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.EditInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	item, err := h.interactionSvc.Edit(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, item)
}

// DeleteInteraction 删除内容
// DELETE /api/v1/interactions/:id
func (h *InteractionHandler) DeleteInteraction(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.interactionSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, dto.BoolResponse{Success: true})
}

// Reply 官方回复咨询
// POST /api/v1/interactions/:id/reply
func (h *InteractionHandler) Reply(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ReplyInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	item, err := h.interactionSvc.Reply(c.Request.Context(), actor, c.Param("id"), req.ReplyContent)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, item)
}
