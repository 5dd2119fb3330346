package handler

import (
	"github.com/gin-gonic/gin"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/service"
	"village-sports/backend/pkg/response"
)

// MaterialHandler 物资模块 HTTP 处理器
type MaterialHandler struct {
	materialSvc service.MaterialService
}

// NewMaterialHandler 创建 MaterialHandler
func NewMaterialHandler(materialSvc service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materialSvc: materialSvc}
}

// ListMaterials 物资列表
// GET /api/v1/materials
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.MaterialListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, total, err := h.materialSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetMaterial 物资详情
// GET /api/v1/materials/:id
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	m, err := h.materialSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, m)
}

// ListRecords 物资借还流水
// GET /api/v1/materials/:id/records
func (h *MaterialHandler) ListRecords(c *gin.Context) {
	records, err := h.materialSvc.Records(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// Donate 捐赠物资
// POST /api/v1/materials/donate
func (h *MaterialHandler) Donate(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.DonateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	m, err := h.materialSvc.Donate(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, m)
}

// Borrow 借用物资
// POST /api/v1/materials/:id/borrow
func (h *MaterialHandler) Borrow(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	// 请求体可省略，借期取默认值
	var req dto.BorrowMaterialRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
	}

	m, err := h.materialSvc.Borrow(c.Request.Context(), actor, c.Param("id"), req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, m)
}

// Return 归还物资
// POST /api/v1/materials/:id/return
func (h *MaterialHandler) Return(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	m, err := h.materialSvc.Return(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, m)
}

// UpdateStatus 管理端变更物资状态
// PUT /api/v1/materials/:id/status
func (h *MaterialHandler) UpdateStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateMaterialStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	m, err := h.materialSvc.UpdateStatus(c.Request.Context(), actor, c.Param("id"), model.MaterialStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, m)
}

// DeleteMaterial 删除物资
// DELETE /api/v1/materials/:id
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.materialSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, dto.BoolResponse{Success: true})
}
