package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"village-sports/backend/internal/model"
)

// MaterialFilter 物资列表筛选条件
type MaterialFilter struct {
	Status  model.MaterialStatus
	Type    model.MaterialType
	DonorID string
	Keyword string
}

// MaterialRepository 物资数据访问接口
type MaterialRepository interface {
	Create(ctx context.Context, material *model.Material) error
	GetByID(ctx context.Context, id string) (*model.Material, error)
	List(ctx context.Context, filter MaterialFilter, offset, limit int) ([]model.Material, int64, error)
	// CompareAndSetStatus 仅当当前状态为 from 时写入 material 的新状态与借用人
	// 未命中返回 ErrStateChanged
	CompareAndSetStatus(ctx context.Context, material *model.Material, from model.MaterialStatus) error
	// DeleteIfStatus 仅当当前状态属于 allowed 时删除，未命中返回 ErrStateChanged
	DeleteIfStatus(ctx context.Context, id string, allowed ...model.MaterialStatus) error

	CreateRecord(ctx context.Context, record *model.MaterialRecord) error
	ListRecords(ctx context.Context, materialID string) ([]model.MaterialRecord, error)
}

type materialRepo struct {
	db *gorm.DB
}

// NewMaterialRepo 创建 MaterialRepository 实例
func NewMaterialRepo(db *gorm.DB) MaterialRepository {
	return &materialRepo{db: db}
}

func (r *materialRepo) Create(ctx context.Context, material *model.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *materialRepo) GetByID(ctx context.Context, id string) (*model.Material, error) {
	var material model.Material
	err := r.db.WithContext(ctx).
		Preload("Donor").
		Preload("Holder").
		Where("material_id = ?", id).
		First(&material).Error
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *materialRepo) List(ctx context.Context, filter MaterialFilter, offset, limit int) ([]model.Material, int64, error) {
	var materials []model.Material
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Material{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.DonorID != "" {
		db = db.Where("donor_id = ?", filter.DonorID)
	}
	if filter.Keyword != "" {
		db = db.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Donor").Preload("Holder").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&materials).Error; err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

func (r *materialRepo) CompareAndSetStatus(ctx context.Context, material *model.Material, from model.MaterialStatus) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Material{}).
		Where("material_id = ? AND status = ?", material.MaterialID, from).
		Updates(map[string]interface{}{
			"status":            material.Status,
			"current_holder_id": material.CurrentHolderID,
			"updated_at":        now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateChanged
	}
	material.UpdatedAt = now
	return nil
}

func (r *materialRepo) DeleteIfStatus(ctx context.Context, id string, allowed ...model.MaterialStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先删流水再按状态删物资；未命中时整体回滚
		if err := tx.Where("material_id = ?", id).Delete(&model.MaterialRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("material_id = ? AND status IN ?", id, allowed).
			Delete(&model.Material{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateChanged
		}
		return nil
	})
}

func (r *materialRepo) CreateRecord(ctx context.Context, record *model.MaterialRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *materialRepo) ListRecords(ctx context.Context, materialID string) ([]model.MaterialRecord, error) {
	var records []model.MaterialRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
