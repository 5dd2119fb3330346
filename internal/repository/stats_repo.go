package repository

import (
	"context"

	"gorm.io/gorm"

	"village-sports/backend/internal/model"
)

// ThemeParticipation 按赛事主题汇总的参与人数
type ThemeParticipation struct {
	Theme        string `json:"theme"`
	Events       int64  `json:"events"`
	Participants int64  `json:"participants"`
}

// StatusCount 按状态分组的数量
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// StatsRepository 统计查询接口
type StatsRepository interface {
	ParticipationByTheme(ctx context.Context) ([]ThemeParticipation, error)
	MaterialsByStatus(ctx context.Context) ([]StatusCount, error)
	EventsByStatus(ctx context.Context) ([]StatusCount, error)
	UsersByStatus(ctx context.Context) ([]StatusCount, error)
}

type statsRepo struct {
	db *gorm.DB
}

// NewStatsRepo 创建 StatsRepository 实例
func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) ParticipationByTheme(ctx context.Context) ([]ThemeParticipation, error) {
	var rows []ThemeParticipation
	err := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Select("theme, COUNT(*) AS events, COALESCE(SUM(participants_count), 0) AS participants").
		Group("theme").
		Order("participants DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *statsRepo) MaterialsByStatus(ctx context.Context) ([]StatusCount, error) {
	return r.countByStatus(ctx, &model.Material{})
}

func (r *statsRepo) EventsByStatus(ctx context.Context) ([]StatusCount, error) {
	return r.countByStatus(ctx, &model.Event{})
}

func (r *statsRepo) UsersByStatus(ctx context.Context) ([]StatusCount, error) {
	return r.countByStatus(ctx, &model.User{})
}

func (r *statsRepo) countByStatus(ctx context.Context, m interface{}) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(m).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}
