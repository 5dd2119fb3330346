package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"village-sports/backend/internal/model"
	pkgerrors "village-sports/backend/pkg/errors"
)

// UserFilter 用户列表筛选条件
type UserFilter struct {
	Role    model.Role
	Status  model.UserStatus
	Keyword string
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
	UpdateStatus(ctx context.Context, id string, status model.UserStatus) error
	// Delete 删除用户并将历史记录中的外键置空；持有借出物资时返回 ErrMaterialInUse
	Delete(ctx context.Context, id string) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return pkgerrors.ErrUsernameExists
		}
		return err
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("username LIKE ? OR real_name LIKE ? OR village_name LIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", id).
			First(&user).Error; err != nil {
			return err
		}

		var holding int64
		if err := tx.Model(&model.Material{}).
			Where("current_holder_id = ? AND status = ?", id, model.MaterialStatusBorrowed).
			Count(&holding).Error; err != nil {
			return err
		}
		if holding > 0 {
			return pkgerrors.ErrMaterialInUse
		}

		// 保留历史记录，外键置空
		nullify := []struct {
			model  interface{}
			column string
		}{
			{&model.Material{}, "donor_id"},
			{&model.MaterialRecord{}, "user_id"},
			{&model.Event{}, "organizer_id"},
			{&model.EventRegistration{}, "user_id"},
			{&model.Interaction{}, "user_id"},
			{&model.Interaction{}, "replied_by"},
		}
		for _, n := range nullify {
			if err := tx.Model(n.model).
				Where(n.column+" = ?", id).
				Update(n.column, nil).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ?", id).Delete(&model.User{}).Error
	})
}
