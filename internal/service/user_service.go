package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
	"village-sports/backend/internal/repository"
	pkgerrors "village-sports/backend/pkg/errors"
)

// UserService 用户业务接口
type UserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	// LoadActor 按 ID 读取最新的用户信息，供认证中间件构造调用者
	LoadActor(ctx context.Context, id string) (policy.Actor, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, actor policy.Actor, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	UpdateStatus(ctx context.Context, actor policy.Actor, id string, status model.UserStatus) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Register ──────────────────────

func (s *userService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := policy.Authorize(policy.Actor{}, policy.ActionUserRegister, policy.Target{}); err != nil {
		return nil, err
	}

	role := model.RoleVillager
	if req.Role != "" {
		r, err := model.ParseRole(req.Role)
		if err != nil || r == model.RoleAdmin {
			return nil, pkgerrors.Validation("注册角色仅限村民或组织者")
		}
		role = r
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		RealName:     req.RealName,
		Role:         role,
		VillageName:  req.VillageName,
		Phone:        req.Phone,
		ExercisePref: req.ExercisePref,
		Status:       model.UserStatusPending,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("创建用户失败", zap.String("username", req.Username), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("新用户注册", zap.String("user_id", user.UserID), zap.String("role", string(role)))
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *userService) LoadActor(ctx context.Context, id string) (policy.Actor, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return policy.Actor{}, pkgerrors.ErrTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return policy.Actor{}, err
	}
	return policy.Actor{ID: user.UserID, Role: user.Role, Status: user.Status}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, actor policy.Actor, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	if err := policy.Authorize(actor, policy.ActionUserList, policy.Target{}); err != nil {
		return nil, 0, err
	}

	users, total, err := s.repo.User.List(ctx, repository.UserFilter{
		Role:    model.Role(req.Role),
		Status:  model.UserStatus(req.Status),
		Keyword: req.Keyword,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, dto.NewUserResponse(&users[i]))
	}
	return list, total, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *userService) UpdateStatus(ctx context.Context, actor policy.Actor, id string, status model.UserStatus) (*dto.UserResponse, error) {
	if err := policy.Authorize(actor, policy.ActionUserUpdateStatus, policy.Target{}); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, pkgerrors.Validation("未知账号状态")
	}
	if actor.ID == id {
		return nil, pkgerrors.ErrSelfOperation
	}

	if err := s.repo.User.UpdateStatus(ctx, id, status); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.ErrUserNotFound
		}
		s.logger.Error("更新用户状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户状态变更",
		zap.String("operator", actor.ID),
		zap.String("user_id", id),
		zap.String("status", string(status)),
	)
	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Authorize(actor, policy.ActionUserDelete, policy.Target{}); err != nil {
		return err
	}
	if actor.ID == id {
		return pkgerrors.ErrSelfOperation
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return pkgerrors.ErrUserNotFound
		}
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("用户已删除", zap.String("operator", actor.ID), zap.String("user_id", id))
	return nil
}
