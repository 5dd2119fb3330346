package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"village-sports/backend/config"
	"village-sports/backend/internal/api/handler"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/repository"
	"village-sports/backend/internal/service"
	"village-sports/backend/internal/testutils"
	"village-sports/backend/pkg/jwt"
	"village-sports/backend/pkg/metrics"
)

type apiEnv struct {
	engine *gin.Engine
	jwt    *jwt.Manager
	admin  string // 管理员 Access Token
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, BaseURL: "http://localhost:8080", MaxBodyBytes: 1 << 20},
		Auth: config.AuthConfig{
			JWTSecret:       "router-test-secret-key",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Loan: config.LoanConfig{DefaultDays: 7, MaxDays: 30},
	}

	db := testutils.SetupDB(t)
	jwtMgr := jwt.NewManager(&cfg.Auth)
	m := metrics.New()
	svc := service.NewService(service.Deps{
		Config:  cfg,
		Repo:    repository.NewRepository(db),
		JWT:     jwtMgr,
		Metrics: m,
		Logger:  zap.NewNop(),
	})
	engine := Setup(cfg, handler.NewHandler(svc), jwtMgr, nil, svc.User, nil, m, zap.NewNop())

	admin := testutils.CreateUser(t, db, "admin", model.RoleAdmin, model.UserStatusActive)
	token, err := jwtMgr.GenerateAccessToken(admin.UserID, string(admin.Role))
	require.NoError(t, err)

	return &apiEnv{engine: engine, jwt: jwtMgr, admin: token}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func dataField(t *testing.T, env envelope, key string) string {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &m))
	v, _ := m[key].(string)
	return v
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := setupAPI(t)

	w, _ := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = e.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vsports_http_requests_total")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	e := setupAPI(t)

	w, env := e.do(t, http.MethodGet, "/api/v1/materials", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 10002, env.Code)
}

func TestRouter_CalendarIsPublic(t *testing.T) {
	e := setupAPI(t)

	w, _ := e.do(t, http.MethodPost, "/api/v1/events", e.admin, map[string]interface{}{
		"title": "村BA揭幕战", "time": time.Now().Add(48 * time.Hour), "location": "村文化广场", "theme": "篮球",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/events/calendar.ics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, w.Body.String(), "村BA揭幕战")
}

// 注册后待审核不可捐赠，激活后捐赠、审核入库、借用
func TestRouter_MaterialFlow(t *testing.T) {
	e := setupAPI(t)

	w, env := e.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "lisi", "password": "password123", "realName": "李四", "villageName": "西村",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	userID := dataField(t, env, "id")

	w, env = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "lisi", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := dataField(t, env, "accessToken")
	require.NotEmpty(t, token)

	donation := map[string]interface{}{"name": "篮球", "type": "EQUIPMENT", "conditionLevel": 4}
	w, env = e.do(t, http.MethodPost, "/api/v1/materials/donate", token, donation)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 10006, env.Code)

	w, _ = e.do(t, http.MethodPut, "/api/v1/users/"+userID+"/status", e.admin, map[string]string{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, w.Code)

	// 同一 Token 立即获得写权限
	w, env = e.do(t, http.MethodPost, "/api/v1/materials/donate", token, donation)
	require.Equal(t, http.StatusCreated, w.Code)
	materialID := dataField(t, env, "id")
	assert.Equal(t, "PENDING", dataField(t, env, "status"))

	w, env = e.do(t, http.MethodPost, "/api/v1/materials/"+materialID+"/borrow", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 31001, env.Code)

	w, _ = e.do(t, http.MethodPut, "/api/v1/materials/"+materialID+"/status", token, map[string]string{"status": "IN_STOCK"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = e.do(t, http.MethodPut, "/api/v1/materials/"+materialID+"/status", e.admin, map[string]string{"status": "IN_STOCK"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = e.do(t, http.MethodPost, "/api/v1/materials/"+materialID+"/borrow", token, map[string]int{"duration": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BORROWED", dataField(t, env, "status"))

	w, env = e.do(t, http.MethodPost, "/api/v1/materials/"+materialID+"/borrow", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 31001, env.Code)

	// 仅村民可借用
	w, _ = e.do(t, http.MethodPost, "/api/v1/materials/"+materialID+"/borrow", e.admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/v1/materials/"+materialID+"/records", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records struct {
		List []struct {
			Action string `json:"action"`
		} `json:"list"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records.List, 3)
}

func TestRouter_BannedUserLosesAccess(t *testing.T) {
	e := setupAPI(t)

	w, env := e.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "wangwu", "password": "password123", "realName": "王五", "villageName": "南村",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	userID := dataField(t, env, "id")

	token, err := e.jwt.GenerateAccessToken(userID, "VILLAGER")
	require.NoError(t, err)

	w, _ = e.do(t, http.MethodPut, "/api/v1/users/"+userID+"/status", e.admin, map[string]string{"status": "BANNED"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/v1/interactions", token, map[string]string{"type": "BOARD", "content": "约球"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
