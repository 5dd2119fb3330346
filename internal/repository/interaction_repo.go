package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"village-sports/backend/internal/model"
)

// InteractionFilter 社区互动列表筛选条件
// Types 为 OR 语义；为空表示不过滤
type InteractionFilter struct {
	Types    []model.InteractionType
	TargetID string
	UserID   string
}

// InteractionRepository 社区互动数据访问接口
type InteractionRepository interface {
	Create(ctx context.Context, it *model.Interaction) error
	GetByID(ctx context.Context, id string) (*model.Interaction, error)
	List(ctx context.Context, filter InteractionFilter, offset, limit int) ([]model.Interaction, int64, error)
	UpdateContent(ctx context.Context, id string, title *string, content string) error
	// SetReplyIfEmpty 仅当咨询尚无回复时写入，未命中返回 ErrStateChanged
	SetReplyIfEmpty(ctx context.Context, id, content, repliedBy string) error
	Delete(ctx context.Context, id string) error
}

type interactionRepo struct {
	db *gorm.DB
}

// NewInteractionRepo 创建 InteractionRepository 实例
func NewInteractionRepo(db *gorm.DB) InteractionRepository {
	return &interactionRepo{db: db}
}

func (r *interactionRepo) Create(ctx context.Context, it *model.Interaction) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *interactionRepo) GetByID(ctx context.Context, id string) (*model.Interaction, error) {
	var it model.Interaction
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("interaction_id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *interactionRepo) List(ctx context.Context, filter InteractionFilter, offset, limit int) ([]model.Interaction, int64, error) {
	var items []model.Interaction
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Interaction{})
	if len(filter.Types) > 0 {
		db = db.Where("type IN ?", filter.Types)
	}
	if filter.TargetID != "" {
		db = db.Where("target_id = ?", filter.TargetID)
	}
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Author").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *interactionRepo) UpdateContent(ctx context.Context, id string, title *string, content string) error {
	updates := map[string]interface{}{
		"content":    content,
		"updated_at": time.Now(),
	}
	if title != nil {
		updates["title"] = *title
	}

	result := r.db.WithContext(ctx).
		Model(&model.Interaction{}).
		Where("interaction_id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *interactionRepo) SetReplyIfEmpty(ctx context.Context, id, content, repliedBy string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Interaction{}).
		Where("interaction_id = ? AND type = ? AND reply_content IS NULL", id, model.InteractionConsult).
		Updates(map[string]interface{}{
			"reply_content": content,
			"replied_by":    repliedBy,
			"replied_at":    now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}

// Delete 删除内容及挂在其下的评论、点赞
func (r *interactionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("interaction_id = ?", id).Delete(&model.Interaction{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("target_id = ?", id).Delete(&model.Interaction{}).Error
	})
}
