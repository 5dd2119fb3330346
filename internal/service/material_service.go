package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"village-sports/backend/config"
	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
	"village-sports/backend/internal/repository"
	pkgerrors "village-sports/backend/pkg/errors"
	"village-sports/backend/pkg/metrics"
)

// MaterialService 物资生命周期业务接口
type MaterialService interface {
	Donate(ctx context.Context, actor policy.Actor, req *dto.DonateMaterialRequest) (*dto.MaterialResponse, error)
	Get(ctx context.Context, id string) (*dto.MaterialResponse, error)
	List(ctx context.Context, actor policy.Actor, req *dto.MaterialListRequest) ([]dto.MaterialResponse, int64, error)
	Records(ctx context.Context, id string) ([]dto.MaterialRecordResponse, error)

	Borrow(ctx context.Context, actor policy.Actor, id string, durationDays int) (*dto.MaterialResponse, error)
	Return(ctx context.Context, actor policy.Actor, id string) (*dto.MaterialResponse, error)
	// UpdateStatus 管理端按目标状态分派：审核通过、强制归还或标记遗失
	UpdateStatus(ctx context.Context, actor policy.Actor, id string, target model.MaterialStatus) (*dto.MaterialResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type materialService struct {
	loan    config.LoanConfig
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewMaterialService 创建 MaterialService 实例
func NewMaterialService(loan config.LoanConfig, repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) MaterialService {
	return &materialService{loan: loan, repo: repo, metrics: m, logger: logger}
}

// ────────────────────── Donate ──────────────────────

func (s *materialService) Donate(ctx context.Context, actor policy.Actor, req *dto.DonateMaterialRequest) (*dto.MaterialResponse, error) {
	if err := policy.Authorize(actor, policy.ActionMaterialDonate, policy.Target{}); err != nil {
		return nil, err
	}

	typ, err := model.ParseMaterialType(req.Type)
	if err != nil {
		return nil, pkgerrors.Validation("物资类别仅限 器材/服装/其他")
	}
	if req.ConditionLevel < 1 || req.ConditionLevel > 5 {
		return nil, pkgerrors.Validation("新旧程度须在 1-5 之间")
	}

	donorID := actor.ID
	material := &model.Material{
		Name:           req.Name,
		Type:           typ,
		ConditionLevel: req.ConditionLevel,
		DonorID:        &donorID,
		Status:         model.MaterialStatusPending,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Material.Create(ctx, material); err != nil {
			return err
		}
		return tx.Material.CreateRecord(ctx, &model.MaterialRecord{
			MaterialID: material.MaterialID,
			UserID:     &donorID,
			Action:     model.RecordActionDonate,
		})
	})
	s.metrics.ObserveTransition("material", "donate", err)
	if err != nil {
		s.logger.Error("创建捐赠物资失败", zap.String("donor_id", donorID), zap.Error(err))
		return nil, err
	}

	return s.Get(ctx, material.MaterialID)
}

// ────────────────────── Query ──────────────────────

func (s *materialService) Get(ctx context.Context, id string) (*dto.MaterialResponse, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewMaterialResponse(m)
	return &resp, nil
}

func (s *materialService) List(ctx context.Context, actor policy.Actor, req *dto.MaterialListRequest) ([]dto.MaterialResponse, int64, error) {
	filter := repository.MaterialFilter{
		Status:  model.MaterialStatus(req.Status),
		Type:    model.MaterialType(req.Type),
		Keyword: req.Keyword,
	}
	if req.Mine {
		filter.DonorID = actor.ID
	}

	materials, total, err := s.repo.Material.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询物资列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.MaterialResponse, 0, len(materials))
	for i := range materials {
		list = append(list, dto.NewMaterialResponse(&materials[i]))
	}
	return list, total, nil
}

func (s *materialService) Records(ctx context.Context, id string) ([]dto.MaterialRecordResponse, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	records, err := s.repo.Material.ListRecords(ctx, id)
	if err != nil {
		s.logger.Error("查询物资流水失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	list := make([]dto.MaterialRecordResponse, 0, len(records))
	for i := range records {
		list = append(list, dto.NewMaterialRecordResponse(&records[i]))
	}
	return list, nil
}

// ────────────────────── Lifecycle ──────────────────────

func (s *materialService) Borrow(ctx context.Context, actor policy.Actor, id string, durationDays int) (*dto.MaterialResponse, error) {
	due := time.Now().AddDate(0, 0, s.clampDuration(durationDays))
	return s.transition(ctx, actor, id, transitionSpec{
		action: policy.ActionMaterialBorrow,
		apply:  func(m *model.Material) error { return m.Borrow(actor.ID) },
		record: model.RecordActionBorrow,
		due:    &due,
	})
}

func (s *materialService) Return(ctx context.Context, actor policy.Actor, id string) (*dto.MaterialResponse, error) {
	return s.transition(ctx, actor, id, transitionSpec{
		action: policy.ActionMaterialReturn,
		apply:  (*model.Material).Return,
		record: model.RecordActionReturn,
	})
}

func (s *materialService) UpdateStatus(ctx context.Context, actor policy.Actor, id string, target model.MaterialStatus) (*dto.MaterialResponse, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionMaterialSetStatus, policy.Target{Material: m}); err != nil {
		return nil, err
	}

	switch {
	case m.Status == model.MaterialStatusPending && target == model.MaterialStatusInStock:
		return s.transition(ctx, actor, id, transitionSpec{
			action: policy.ActionMaterialApprove,
			apply:  (*model.Material).Approve,
			record: model.RecordActionApprove,
		})
	case m.Status == model.MaterialStatusBorrowed && target == model.MaterialStatusInStock:
		return s.transition(ctx, actor, id, transitionSpec{
			action: policy.ActionMaterialForceReturn,
			apply:  (*model.Material).Return,
			record: model.RecordActionReturn,
		})
	case m.Status == model.MaterialStatusBorrowed && target == model.MaterialStatusLost:
		return s.transition(ctx, actor, id, transitionSpec{
			action: policy.ActionMaterialMarkLost,
			apply:  (*model.Material).MarkLost,
			record: model.RecordActionLost,
		})
	}

	s.metrics.ObserveTransition("material", "set_status", pkgerrors.ErrInvalidTransition)
	return nil, pkgerrors.ErrInvalidTransition
}

func (s *materialService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionMaterialDelete, policy.Target{Material: m}); err != nil {
		return err
	}
	if err := m.CheckDeletable(); err != nil {
		s.metrics.ObserveTransition("material", "delete", err)
		return err
	}

	err = s.repo.Material.DeleteIfStatus(ctx, id,
		model.MaterialStatusPending, model.MaterialStatusInStock, model.MaterialStatusLost)
	if errors.Is(err, repository.ErrStateChanged) {
		// 并发借出或已被删除
		err = s.resolveStale(ctx, id, (*model.Material).CheckDeletable)
	}
	s.metrics.ObserveTransition("material", "delete", err)
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("删除物资失败", zap.String("id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("物资已删除", zap.String("operator", actor.ID), zap.String("material_id", id))
	return nil
}

// transitionSpec 一次状态流转的描述
type transitionSpec struct {
	action policy.Action
	apply  func(m *model.Material) error
	record model.RecordAction
	due    *time.Time
}

// transition 鉴权 → 内存校验 → 以原状态为条件写库并记流水
// 条件更新未命中说明期间状态被并发修改，按最新快照重新判定错误
func (s *materialService) transition(ctx context.Context, actor policy.Actor, id string, spec transitionSpec) (*dto.MaterialResponse, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.applyTransition(ctx, actor, m, spec)
	s.metrics.ObserveTransition("material", string(spec.action), err)
	if err != nil {
		if pkgerrors.KindOf(err) == "" {
			s.logger.Error("物资状态流转失败",
				zap.String("id", id),
				zap.String("action", string(spec.action)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("物资状态流转",
		zap.String("operator", actor.ID),
		zap.String("material_id", id),
		zap.String("action", string(spec.action)),
		zap.String("status", string(m.Status)),
	)
	return s.Get(ctx, id)
}

func (s *materialService) applyTransition(ctx context.Context, actor policy.Actor, m *model.Material, spec transitionSpec) error {
	if err := policy.Authorize(actor, spec.action, policy.Target{Material: m}); err != nil {
		return err
	}

	from := m.Status
	if err := spec.apply(m); err != nil {
		return err
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Material.CompareAndSetStatus(ctx, m, from); err != nil {
			return err
		}
		operator := actor.ID
		return tx.Material.CreateRecord(ctx, &model.MaterialRecord{
			MaterialID:       m.MaterialID,
			UserID:           &operator,
			Action:           spec.record,
			ExpectedReturnAt: spec.due,
		})
	})
	if errors.Is(err, repository.ErrStateChanged) {
		return s.resolveStale(ctx, m.MaterialID, spec.apply)
	}
	return err
}

// resolveStale 条件更新未命中后，用最新快照重放校验得到准确的业务错误
func (s *materialService) resolveStale(ctx context.Context, id string, check func(m *model.Material) error) error {
	fresh, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := check(fresh); err != nil {
		return err
	}
	// 状态在两次读取之间又变回了可操作状态
	return pkgerrors.ErrOptimisticLock
}

func (s *materialService) load(ctx context.Context, id string) (*model.Material, error) {
	m, err := s.repo.Material.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.ErrMaterialNotFound
		}
		s.logger.Error("查询物资失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return m, nil
}

// clampDuration 借用天数落在 [1, MaxDays]，未指定时取默认值
func (s *materialService) clampDuration(days int) int {
	if days <= 0 {
		return s.loan.DefaultDays
	}
	if days > s.loan.MaxDays {
		return s.loan.MaxDays
	}
	return days
}
