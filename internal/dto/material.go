package dto

import (
	"time"

	"village-sports/backend/internal/model"
)

// ── 物资模块 DTO ──

// DonateMaterialRequest 捐赠请求；捐赠人取当前登录用户
type DonateMaterialRequest struct {
	Name           string `json:"name"           binding:"required,max=100"`
	Type           string `json:"type"           binding:"required"`
	ConditionLevel int    `json:"conditionLevel" binding:"required,min=1,max=5"`
}

// BorrowMaterialRequest 借用请求；Duration 为借用天数，缺省使用配置默认值
type BorrowMaterialRequest struct {
	Duration int `json:"duration" binding:"omitempty,min=0"`
}

// UpdateMaterialStatusRequest 管理端状态变更请求
type UpdateMaterialStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING IN_STOCK BORROWED LOST"`
}

// MaterialListRequest 物资列表查询参数
type MaterialListRequest struct {
	PaginationRequest
	Status  string `form:"status"  binding:"omitempty,oneof=PENDING IN_STOCK BORROWED LOST"`
	Type    string `form:"type"    binding:"omitempty,oneof=EQUIPMENT CLOTHING OTHER"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
	Mine    bool   `form:"mine"` // 仅看本人捐赠
}

// MaterialResponse 物资响应
type MaterialResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	TypeLabel       string    `json:"typeLabel"`
	ConditionLevel  int       `json:"conditionLevel"`
	DonorID         *string   `json:"donorId"`
	DonorName       string    `json:"donorName"`
	Status          string    `json:"status"`
	CurrentHolderID *string   `json:"currentHolderId"`
	HolderName      string    `json:"holderName,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewMaterialResponse 由模型构造响应
func NewMaterialResponse(m *model.Material) MaterialResponse {
	return MaterialResponse{
		ID:              m.MaterialID,
		Name:            m.Name,
		Type:            string(m.Type),
		TypeLabel:       m.Type.Label(),
		ConditionLevel:  m.ConditionLevel,
		DonorID:         m.DonorID,
		DonorName:       m.DonorName(),
		Status:          string(m.Status),
		CurrentHolderID: m.CurrentHolderID,
		HolderName:      m.HolderName(),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// MaterialRecordResponse 物资流水响应
type MaterialRecordResponse struct {
	ID               string     `json:"id"`
	Action           string     `json:"action"`
	UserID           *string    `json:"userId"`
	UserName         string     `json:"userName"`
	ExpectedReturnAt *time.Time `json:"expectedReturnAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// NewMaterialRecordResponse 由模型构造响应
func NewMaterialRecordResponse(r *model.MaterialRecord) MaterialRecordResponse {
	return MaterialRecordResponse{
		ID:               r.RecordID,
		Action:           string(r.Action),
		UserID:           r.UserID,
		UserName:         r.UserName(),
		ExpectedReturnAt: r.ExpectedReturnAt,
		CreatedAt:        r.CreatedAt,
	}
}
