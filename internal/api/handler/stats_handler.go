package handler

import (
	"github.com/gin-gonic/gin"

	"village-sports/backend/internal/service"
	"village-sports/backend/pkg/response"
)

// StatsHandler 统计模块 HTTP 处理器
type StatsHandler struct {
	statsSvc service.StatsService
}

// NewStatsHandler 创建 StatsHandler
func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// Participation 按主题统计参与人数
// GET /api/v1/stats/participation
func (h *StatsHandler) Participation(c *gin.Context) {
	items, err := h.statsSvc.Participation(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// Overview 平台概览
// GET /api/v1/stats/overview
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.statsSvc.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, overview)
}
