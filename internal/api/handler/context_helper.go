package handler

import (
	"github.com/gin-gonic/gin"

	"village-sports/backend/internal/api/middleware"
	"village-sports/backend/internal/policy"
	"village-sports/backend/pkg/jwt"
	"village-sports/backend/pkg/response"
)

// MustGetActor 从 Gin 上下文中安全提取调用者。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActor(c *gin.Context) (policy.Actor, bool) {
	v, exists := c.Get(middleware.ContextActor)
	if !exists {
		response.Unauthorized(c, codeUnauthenticated, "未认证")
		return policy.Actor{}, false
	}
	actor, ok := v.(policy.Actor)
	if !ok || actor.ID == "" {
		response.Unauthorized(c, codeUnauthenticated, "未认证")
		return policy.Actor{}, false
	}
	return actor, true
}

// MustGetClaims 提取当前 Access Token 的声明
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ContextClaims)
	if !exists {
		response.Unauthorized(c, codeUnauthenticated, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, codeUnauthenticated, "未认证")
		return nil, false
	}
	return claims, true
}
