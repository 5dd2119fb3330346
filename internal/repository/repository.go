package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrStateChanged 条件更新未命中：记录不存在或已不处于期望状态
// 由服务层重新读取后映射为具体业务错误
var ErrStateChanged = errors.New("记录状态已变更")

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User        UserRepository
	Material    MaterialRepository
	Event       EventRepository
	Interaction InteractionRepository
	Stats       StatsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		User:        NewUserRepo(db),
		Material:    NewMaterialRepo(db),
		Event:       NewEventRepo(db),
		Interaction: NewInteractionRepo(db),
		Stats:       NewStatsRepo(db),
	}
}

// WithTx 返回绑定到事务连接的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个数据库事务内执行 fn；fn 返回错误时整体回滚
// fn 内只能使用参数 tx 上的仓储，否则会脱离事务
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// isDuplicateKey 唯一约束冲突
// 未启用 TranslateError 的驱动按错误文本兜底识别
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
