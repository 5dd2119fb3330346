package service

import (
	"context"

	"go.uber.org/zap"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/repository"
)

// StatsService 统计业务接口
type StatsService interface {
	// Participation 按赛事主题汇总报名人数，人数多者在前
	Participation(ctx context.Context) ([]dto.ParticipationItem, error)
	Overview(ctx context.Context) (*dto.OverviewResponse, error)
}

type statsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(repo *repository.Repository, logger *zap.Logger) StatsService {
	return &statsService{repo: repo, logger: logger}
}

func (s *statsService) Participation(ctx context.Context) ([]dto.ParticipationItem, error) {
	rows, err := s.repo.Stats.ParticipationByTheme(ctx)
	if err != nil {
		s.logger.Error("统计主题参与人数失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.ParticipationItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.ParticipationItem{
			Theme:        r.Theme,
			Events:       r.Events,
			Participants: r.Participants,
		})
	}
	return items, nil
}

func (s *statsService) Overview(ctx context.Context) (*dto.OverviewResponse, error) {
	materials, err := s.repo.Stats.MaterialsByStatus(ctx)
	if err != nil {
		s.logger.Error("统计物资状态失败", zap.Error(err))
		return nil, err
	}
	events, err := s.repo.Stats.EventsByStatus(ctx)
	if err != nil {
		s.logger.Error("统计赛事状态失败", zap.Error(err))
		return nil, err
	}
	users, err := s.repo.Stats.UsersByStatus(ctx)
	if err != nil {
		s.logger.Error("统计用户状态失败", zap.Error(err))
		return nil, err
	}

	return &dto.OverviewResponse{
		Materials: countMap(materials,
			string(model.MaterialStatusPending), string(model.MaterialStatusInStock),
			string(model.MaterialStatusBorrowed), string(model.MaterialStatusLost)),
		Events: countMap(events,
			string(model.EventStatusOpen), string(model.EventStatusInProgress), string(model.EventStatusEnded)),
		Users: countMap(users,
			string(model.UserStatusPending), string(model.UserStatusActive), string(model.UserStatusBanned)),
	}, nil
}

// countMap 每个已知状态都有键，没有记录的计 0
func countMap(rows []repository.StatusCount, keys ...string) map[string]int64 {
	m := make(map[string]int64, len(keys))
	for _, k := range keys {
		m[k] = 0
	}
	for _, r := range rows {
		m[r.Status] = r.Count
	}
	return m
}
