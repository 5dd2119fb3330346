package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	pkgerrors "village-sports/backend/pkg/errors"
	"village-sports/backend/pkg/jwt"
)

func registerUser(t *testing.T, e *testEnv, username string) *dto.UserResponse {
	t.Helper()
	u, err := e.svc.User.Register(context.Background(), &dto.RegisterRequest{
		Username:    username,
		Password:    "password123",
		RealName:    "张三",
		VillageName: "东村",
	})
	require.NoError(t, err)
	return u
}

// 注册 → 待审核可登录但不能写 → 管理员激活 → 可写
func TestAuthService_PendingToActiveFlow(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	admin := e.active(t, "admin", model.RoleAdmin)

	u := registerUser(t, e, "zhangsan")
	assert.Equal(t, string(model.UserStatusPending), u.Status)
	assert.Equal(t, string(model.RoleVillager), u.Role)

	tokens, err := e.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "zhangsan", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, 3600, tokens.ExpiresIn)

	actor, err := e.svc.User.LoadActor(ctx, u.ID)
	require.NoError(t, err)
	_, err = e.svc.Material.Donate(ctx, actor, &dto.DonateMaterialRequest{Name: "球", Type: "OTHER", ConditionLevel: 3})
	assert.ErrorIs(t, err, pkgerrors.ErrAccountNotActive)

	_, err = e.svc.User.UpdateStatus(ctx, admin, u.ID, model.UserStatusActive)
	require.NoError(t, err)

	actor, err = e.svc.User.LoadActor(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, actor.Status)
	_, err = e.svc.Material.Donate(ctx, actor, &dto.DonateMaterialRequest{Name: "球", Type: "OTHER", ConditionLevel: 3})
	assert.NoError(t, err)
}

func TestAuthService_LoginFailures(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	admin := e.active(t, "admin", model.RoleAdmin)
	u := registerUser(t, e, "lisi")

	_, err := e.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "lisi", Password: "wrong"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials)

	_, err = e.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials)

	_, err = e.svc.User.UpdateStatus(ctx, admin, u.ID, model.UserStatusBanned)
	require.NoError(t, err)
	_, err = e.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "lisi", Password: "password123"})
	assert.ErrorIs(t, err, pkgerrors.ErrAccountNotActive)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	registerUser(t, e, "wangwu")

	tokens, err := e.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "wangwu", Password: "password123"})
	require.NoError(t, err)

	// Access Token 不能用于刷新
	_, err = e.svc.Auth.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, pkgerrors.ErrTokenInvalid)

	next, err := e.svc.Auth.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, next.RefreshToken)

	// 旧 Refresh Token 已作废
	_, err = e.svc.Auth.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, pkgerrors.ErrTokenInvalid)
}

func TestAuthService_Logout(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	registerUser(t, e, "zhaoliu")

	tokens, err := e.svc.Auth.Login(ctx, &dto.LoginRequest{Username: "zhaoliu", Password: "password123"})
	require.NoError(t, err)

	claims, err := jwt.NewManager(&testConfig().Auth).ParseToken(tokens.AccessToken)
	require.NoError(t, err)
	require.NoError(t, e.svc.Auth.Logout(ctx, claims.ID, claims.ExpiresAt.Time))

	revoked, err := e.blacklist.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_LogoutWithoutBlacklist(t *testing.T) {
	svc := NewAuthService(testConfig(), nil, nil, nil, zap.NewNop())
	assert.NoError(t, svc.Logout(context.Background(), "jti", time.Now().Add(time.Hour)))
}
