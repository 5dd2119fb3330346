package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"village-sports/backend/config"
	"village-sports/backend/internal/repository"
	"village-sports/backend/pkg/jwt"
	"village-sports/backend/pkg/metrics"
)

// TokenBlacklist Token 黑名单存储，由 Redis 实现
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Material    MaterialService
	Event       EventService
	Interaction InteractionService
	Stats       StatsService
}

// Deps 构造 Service 所需的依赖；Blacklist 与 Metrics 可为 nil
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	return &Service{
		Auth:        NewAuthService(d.Config, d.Repo, d.JWT, d.Blacklist, d.Logger),
		User:        NewUserService(d.Repo, d.Logger),
		Material:    NewMaterialService(d.Config.Loan, d.Repo, d.Metrics, d.Logger),
		Event:       NewEventService(d.Config.Server.BaseURL, d.Repo, d.Metrics, d.Logger),
		Interaction: NewInteractionService(d.Repo, d.Metrics, d.Logger),
		Stats:       NewStatsService(d.Repo, d.Logger),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
