package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
	"village-sports/backend/internal/repository"
	pkgerrors "village-sports/backend/pkg/errors"
	"village-sports/backend/pkg/metrics"
)

// InteractionService 社区互动业务接口
type InteractionService interface {
	List(ctx context.Context, actor policy.Actor, req *dto.InteractionListRequest) ([]dto.InteractionResponse, int64, error)
	Create(ctx context.Context, actor policy.Actor, req *dto.CreateInteractionRequest) (*dto.InteractionResponse, error)
	Edit(ctx context.Context, actor policy.Actor, id string, req *dto.EditInteractionRequest) (*dto.InteractionResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
	// Reply 官方回复咨询，每条咨询仅可回复一次
	Reply(ctx context.Context, actor policy.Actor, id string, content string) (*dto.InteractionResponse, error)
}

type interactionService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewInteractionService 创建 InteractionService 实例
func NewInteractionService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) InteractionService {
	return &interactionService{repo: repo, metrics: m, logger: logger}
}

func (s *interactionService) List(ctx context.Context, actor policy.Actor, req *dto.InteractionListRequest) ([]dto.InteractionResponse, int64, error) {
	types, err := parseTypes(req.Types)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.InteractionFilter{Types: types, TargetID: req.TargetID}
	if req.Mine {
		filter.UserID = actor.ID
	}
	items, total, err := s.repo.Interaction.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询互动列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.InteractionResponse, 0, len(items))
	for i := range items {
		list = append(list, dto.NewInteractionResponse(&items[i]))
	}
	return list, total, nil
}

// parseTypes 解析逗号分隔的类别列表，空串表示不过滤
func parseTypes(raw string) ([]model.InteractionType, error) {
	var types []model.InteractionType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := model.ParseInteractionType(strings.ToUpper(part))
		if err != nil {
			return nil, pkgerrors.Validation("未知互动类别: " + part)
		}
		types = append(types, t)
	}
	return types, nil
}

// ────────────────────── Create ──────────────────────

func (s *interactionService) Create(ctx context.Context, actor policy.Actor, req *dto.CreateInteractionRequest) (*dto.InteractionResponse, error) {
	typ, err := model.ParseInteractionType(req.Type)
	if err != nil {
		return nil, pkgerrors.Validation("未知互动类别")
	}
	if err := policy.Authorize(actor, policy.ActionInteractionCreate, policy.Target{InteractionType: typ}); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	switch typ {
	case model.InteractionComment, model.InteractionLike:
		if req.TargetID == nil || *req.TargetID == "" {
			return nil, pkgerrors.Validation("评论与点赞须指定目标内容")
		}
		if _, err := s.load(ctx, *req.TargetID); err != nil {
			return nil, err
		}
	}
	if typ != model.InteractionLike && content == "" {
		return nil, pkgerrors.Validation("内容不能为空")
	}

	userID := actor.ID
	item := &model.Interaction{
		UserID:   &userID,
		UserRole: actor.Role,
		Type:     typ,
		Title:    req.Title,
		Content:  content,
	}
	if typ == model.InteractionComment || typ == model.InteractionLike {
		item.TargetID = req.TargetID
	}

	if err := s.repo.Interaction.Create(ctx, item); err != nil {
		s.logger.Error("发布互动内容失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return s.get(ctx, item.InteractionID)
}

// ────────────────────── Edit / Delete ──────────────────────

func (s *interactionService) Edit(ctx context.Context, actor policy.Actor, id string, req *dto.EditInteractionRequest) (*dto.InteractionResponse, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionInteractionEdit, policy.Target{Interaction: item}); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.Validation("内容不能为空")
	}

	if err := s.repo.Interaction.UpdateContent(ctx, id, req.Title, content); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.ErrInteractionNotFound
		}
		s.logger.Error("编辑互动内容失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.get(ctx, id)
}

func (s *interactionService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionInteractionDelete, policy.Target{Interaction: item}); err != nil {
		return err
	}

	if err := s.repo.Interaction.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return pkgerrors.ErrInteractionNotFound
		}
		s.logger.Error("删除互动内容失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("互动内容已删除",
		zap.String("operator", actor.ID),
		zap.String("interaction_id", id),
		zap.String("type", string(item.Type)),
	)
	return nil
}

// ────────────────────── Reply ──────────────────────

func (s *interactionService) Reply(ctx context.Context, actor policy.Actor, id string, content string) (*dto.InteractionResponse, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.reply(ctx, actor, item, strings.TrimSpace(content))
	s.metrics.ObserveTransition("interaction", "reply", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("咨询已回复", zap.String("operator", actor.ID), zap.String("interaction_id", id))
	return s.get(ctx, id)
}

func (s *interactionService) reply(ctx context.Context, actor policy.Actor, item *model.Interaction, content string) error {
	if err := policy.Authorize(actor, policy.ActionInteractionReply, policy.Target{Interaction: item}); err != nil {
		return err
	}
	if content == "" {
		return pkgerrors.Validation("回复内容不能为空")
	}

	err := s.repo.Interaction.SetReplyIfEmpty(ctx, item.InteractionID, content, actor.ID)
	if errors.Is(err, repository.ErrStateChanged) {
		// 并发回复或内容已被删除
		if _, err := s.load(ctx, item.InteractionID); err != nil {
			return err
		}
		return pkgerrors.ErrAlreadyReplied
	}
	if err != nil {
		s.logger.Error("写入回复失败", zap.String("id", item.InteractionID), zap.Error(err))
	}
	return err
}

func (s *interactionService) get(ctx context.Context, id string) (*dto.InteractionResponse, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewInteractionResponse(item)
	return &resp, nil
}

func (s *interactionService) load(ctx context.Context, id string) (*model.Interaction, error) {
	item, err := s.repo.Interaction.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.ErrInteractionNotFound
		}
		s.logger.Error("查询互动内容失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return item, nil
}
