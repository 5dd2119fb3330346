package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"village-sports/backend/internal/policy"
	pkgerrors "village-sports/backend/pkg/errors"
	"village-sports/backend/pkg/jwt"
	"village-sports/backend/pkg/response"
)

// 上下文键
const (
	ContextActor  = "actor"
	ContextClaims = "claims"
)

// ActorLoader 按用户 ID 读取最新的调用者信息
type ActorLoader interface {
	LoadActor(ctx context.Context, id string) (policy.Actor, error)
}

// RevocationChecker Token 黑名单查询
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 再按用户 ID 读取最新账号状态，封禁或审核结果即时生效
// revoked 为 nil 时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, revoked RevocationChecker, actors ActorLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if revoked != nil {
			// Redis 不可用时降级放行
			if hit, err := revoked.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && hit {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		actor, err := actors.LoadActor(c.Request.Context(), claims.UserID)
		if err != nil {
			if pkgerrors.KindOf(err) == pkgerrors.KindUnauthenticated {
				response.Unauthorized(c, 10002, err.Error())
			} else {
				_ = c.Error(err)
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		c.Set(ContextActor, actor)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}
