package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"village-sports/backend/internal/model"
	pkgerrors "village-sports/backend/pkg/errors"
)

// EventFilter 赛事列表筛选条件
type EventFilter struct {
	Status  model.EventStatus
	Theme   string
	Keyword string
	// ExcludeOrganizerID 非空时排除该用户组织的赛事（推荐列表）
	ExcludeOrganizerID string
}

// EventRepository 赛事与报名数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, filter EventFilter, offset, limit int) ([]model.Event, int64, error)
	ListAll(ctx context.Context) ([]model.Event, error)
	// Update 乐观锁更新可编辑字段，版本不符返回 ErrOptimisticLock
	Update(ctx context.Context, event *model.Event) error
	// CompareAndSetStatus 仅当当前状态为 from 时推进，未命中返回 ErrStateChanged
	CompareAndSetStatus(ctx context.Context, id string, from, to model.EventStatus) error
	// Delete 删除赛事并级联删除其报名记录
	Delete(ctx context.Context, id string) error

	// IncrementIfOpen 仅当赛事处于报名阶段时报名人数 +1，未命中返回 ErrStateChanged
	IncrementIfOpen(ctx context.Context, id string) error
	// CreateRegistration 写入报名记录，(event_id, user_id) 冲突返回 ErrAlreadyRegistered
	CreateRegistration(ctx context.Context, reg *model.EventRegistration) error
	ExistsRegistration(ctx context.Context, eventID, userID string) (bool, error)
	ListRegistrations(ctx context.Context, eventID string) ([]model.EventRegistration, error)
	ListRegisteredEventIDs(ctx context.Context, userID string) ([]string, error)
	// RecountParticipants 按报名记录重算报名人数并返回结果
	RecountParticipants(ctx context.Context, id string) (int, error)
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Preload("Organizer").
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context, filter EventFilter, offset, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Theme != "" {
		db = db.Where("theme = ?", filter.Theme)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("title LIKE ? OR location LIKE ?", like, like)
	}
	if filter.ExcludeOrganizerID != "" {
		db = db.Where("organizer_id IS NULL OR organizer_id <> ?", filter.ExcludeOrganizerID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 报名中优先，其次进行中，已结束靠后
	if err := db.Preload("Organizer").
		Offset(offset).Limit(limit).
		Order("CASE status WHEN 'OPEN' THEN 0 WHEN 'IN_PROGRESS' THEN 1 ELSE 2 END").
		Order("event_time ASC").
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *eventRepo) ListAll(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Preload("Organizer").
		Order("event_time ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	oldVersion := event.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ? AND version = ?", event.EventID, oldVersion).
		Updates(map[string]interface{}{
			"title":      event.Title,
			"event_time": event.StartTime,
			"location":   event.Location,
			"theme":      event.Theme,
			"rule":       event.Rule,
			"img_url":    event.ImgURL,
			"version":    oldVersion + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	event.Version = oldVersion + 1
	event.UpdatedAt = now
	return nil
}

func (r *eventRepo) CompareAndSetStatus(ctx context.Context, id string, from, to model.EventStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.EventRegistration{}).Error; err != nil {
			return err
		}
		result := tx.Where("event_id = ?", id).Delete(&model.Event{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ── 报名 ──

func (r *eventRepo) IncrementIfOpen(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ? AND status = ?", id, model.EventStatusOpen).
		UpdateColumn("participants_count", gorm.Expr("participants_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}

func (r *eventRepo) CreateRegistration(ctx context.Context, reg *model.EventRegistration) error {
	if err := r.db.WithContext(ctx).Create(reg).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgerrors.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *eventRepo) ExistsRegistration(ctx context.Context, eventID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.EventRegistration{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *eventRepo) ListRegistrations(ctx context.Context, eventID string) ([]model.EventRegistration, error) {
	var regs []model.EventRegistration
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&regs).Error
	return regs, err
}

func (r *eventRepo) ListRegisteredEventIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.EventRegistration{}).
		Where("user_id = ?", userID).
		Pluck("event_id", &ids).Error
	return ids, err
}

func (r *eventRepo) RecountParticipants(ctx context.Context, id string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_id = ?", id).
			First(&event).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.EventRegistration{}).
			Where("event_id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&model.Event{}).
			Where("event_id = ?", id).
			UpdateColumn("participants_count", count).Error
	})
	return int(count), err
}
