package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	pkgerrors "village-sports/backend/pkg/errors"
)

// MaterialType 物资类别
type MaterialType string

const (
	MaterialTypeEquipment MaterialType = "EQUIPMENT"
	MaterialTypeClothing  MaterialType = "CLOTHING"
	MaterialTypeOther     MaterialType = "OTHER"
)

// ParseMaterialType 解析物资类别，兼容中文名称
func ParseMaterialType(s string) (MaterialType, error) {
	switch s {
	case string(MaterialTypeEquipment), "器材":
		return MaterialTypeEquipment, nil
	case string(MaterialTypeClothing), "服装":
		return MaterialTypeClothing, nil
	case string(MaterialTypeOther), "其他":
		return MaterialTypeOther, nil
	}
	return "", fmt.Errorf("未知物资类别: %q", s)
}

// Label 中文名称
func (t MaterialType) Label() string {
	switch t {
	case MaterialTypeEquipment:
		return "器材"
	case MaterialTypeClothing:
		return "服装"
	case MaterialTypeOther:
		return "其他"
	}
	return string(t)
}

// MaterialStatus 物资状态
type MaterialStatus string

const (
	MaterialStatusPending  MaterialStatus = "PENDING"
	MaterialStatusInStock  MaterialStatus = "IN_STOCK"
	MaterialStatusBorrowed MaterialStatus = "BORROWED"
	MaterialStatusLost     MaterialStatus = "LOST"
)

// ParseMaterialStatus 解析物资状态字符串
func ParseMaterialStatus(s string) (MaterialStatus, error) {
	st := MaterialStatus(s)
	switch st {
	case MaterialStatusPending, MaterialStatusInStock, MaterialStatusBorrowed, MaterialStatusLost:
		return st, nil
	}
	return "", fmt.Errorf("未知物资状态: %q", s)
}

// Material 物资表 对应 materials
// 不变量：CurrentHolderID 非空当且仅当 Status == BORROWED
type Material struct {
	MaterialID      string         `gorm:"type:varchar(36);primaryKey"                  json:"materialId"`
	Name            string         `gorm:"type:varchar(100);not null"                   json:"name"`
	Type            MaterialType   `gorm:"type:varchar(20);not null"                    json:"type"`
	ConditionLevel  int            `gorm:"type:smallint;not null"                       json:"conditionLevel"`
	DonorID         *string        `gorm:"type:varchar(36);index"                       json:"donorId,omitempty"`
	Status          MaterialStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CurrentHolderID *string        `gorm:"type:varchar(36);index"                       json:"currentHolderId,omitempty"`
	BaseModel

	// 关联
	Donor  *User `gorm:"foreignKey:DonorID;references:UserID;constraint:OnDelete:SET NULL"         json:"-"`
	Holder *User `gorm:"foreignKey:CurrentHolderID;references:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Material) TableName() string { return "materials" }

func (m *Material) BeforeCreate(_ *gorm.DB) error {
	newID(&m.MaterialID)
	return nil
}

// DonorName 捐赠人展示名
func (m *Material) DonorName() string { return displayName(m.Donor) }

// HolderName 借用人展示名；未借出时为空
func (m *Material) HolderName() string {
	if m.CurrentHolderID == nil {
		return ""
	}
	return displayName(m.Holder)
}

// ── 状态机 ──
// 以下方法只校验并修改内存中的实体，持久化由仓储层按期望状态做条件更新

// Approve PENDING → IN_STOCK
func (m *Material) Approve() error {
	if m.Status != MaterialStatusPending {
		return pkgerrors.ErrInvalidTransition
	}
	m.Status = MaterialStatusInStock
	return nil
}

// Borrow IN_STOCK → BORROWED，记录借用人
func (m *Material) Borrow(userID string) error {
	if m.Status != MaterialStatusInStock {
		return pkgerrors.ErrNotAvailable
	}
	m.Status = MaterialStatusBorrowed
	m.CurrentHolderID = &userID
	return nil
}

// Return BORROWED → IN_STOCK，清空借用人
func (m *Material) Return() error {
	if m.Status != MaterialStatusBorrowed {
		return pkgerrors.ErrNotBorrowed
	}
	m.Status = MaterialStatusInStock
	m.CurrentHolderID = nil
	return nil
}

// MarkLost BORROWED → LOST（终态）
func (m *Material) MarkLost() error {
	if m.Status != MaterialStatusBorrowed {
		return pkgerrors.ErrInvalidTransition
	}
	m.Status = MaterialStatusLost
	m.CurrentHolderID = nil
	return nil
}

// CheckDeletable 借出中的物资不可删除
func (m *Material) CheckDeletable() error {
	switch m.Status {
	case MaterialStatusPending, MaterialStatusInStock, MaterialStatusLost:
		return nil
	case MaterialStatusBorrowed:
		return pkgerrors.ErrMaterialInUse
	}
	return pkgerrors.ErrInvalidTransition
}

// HolderInvariantHolds 借用人字段与状态一致
func (m *Material) HolderInvariantHolds() bool {
	return (m.CurrentHolderID != nil) == (m.Status == MaterialStatusBorrowed)
}

// RecordAction 物资流水动作
type RecordAction string

const (
	RecordActionDonate  RecordAction = "DONATE"
	RecordActionApprove RecordAction = "APPROVE"
	RecordActionBorrow  RecordAction = "BORROW"
	RecordActionReturn  RecordAction = "RETURN"
	RecordActionLost    RecordAction = "LOST"
)

// MaterialRecord 物资流水表 对应 material_records
// 仅保留驱动借还所需的最小记录
type MaterialRecord struct {
	RecordID         string       `gorm:"type:varchar(36);primaryKey"   json:"recordId"`
	MaterialID       string       `gorm:"type:varchar(36);not null;index" json:"materialId"`
	UserID           *string      `gorm:"type:varchar(36);index"        json:"userId,omitempty"`
	Action           RecordAction `gorm:"type:varchar(20);not null"     json:"action"`
	ExpectedReturnAt *time.Time   `json:"expectedReturnAt,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`

	// 关联
	User     *User     `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:SET NULL"         json:"-"`
	Material *Material `gorm:"foreignKey:MaterialID;references:MaterialID;constraint:OnDelete:CASCADE" json:"-"`
}

func (MaterialRecord) TableName() string { return "material_records" }

func (r *MaterialRecord) BeforeCreate(_ *gorm.DB) error {
	newID(&r.RecordID)
	return nil
}

// UserName 经手人展示名
func (r *MaterialRecord) UserName() string { return displayName(r.User) }
