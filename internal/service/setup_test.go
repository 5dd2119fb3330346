package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"village-sports/backend/config"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
	"village-sports/backend/internal/repository"
	"village-sports/backend/internal/testutils"
	"village-sports/backend/pkg/jwt"
	"village-sports/backend/pkg/metrics"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, BaseURL: "http://localhost:8080"},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Loan: config.LoanConfig{DefaultDays: 7, MaxDays: 30},
	}
}

type testEnv struct {
	db        *gorm.DB
	svc       *Service
	metrics   *metrics.Metrics
	blacklist *memBlacklist
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()

	db := testutils.SetupDB(t)
	cfg := testConfig()
	m := metrics.New()
	bl := newMemBlacklist()
	svc := NewService(Deps{
		Config:    cfg,
		Repo:      repository.NewRepository(db),
		JWT:       jwt.NewManager(&cfg.Auth),
		Blacklist: bl,
		Metrics:   m,
		Logger:    zap.NewNop(),
	})
	return &testEnv{db: db, svc: svc, metrics: m, blacklist: bl}
}

// actor 写入一个用户并返回对应的调用者
func (e *testEnv) actor(t *testing.T, username string, role model.Role, status model.UserStatus) policy.Actor {
	t.Helper()
	u := testutils.CreateUser(t, e.db, username, role, status)
	return policy.Actor{ID: u.UserID, Role: u.Role, Status: u.Status}
}

func (e *testEnv) active(t *testing.T, username string, role model.Role) policy.Actor {
	return e.actor(t, username, role, model.UserStatusActive)
}

// memBlacklist 内存版 Token 黑名单
type memBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Time
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{jtis: make(map[string]time.Time)}
}

func (b *memBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = time.Now().Add(ttl)
	return nil
}

func (b *memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.jtis[jti]
	return ok && time.Now().Before(exp), nil
}
