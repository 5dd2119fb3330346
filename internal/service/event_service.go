package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
	"village-sports/backend/internal/repository"
	pkgerrors "village-sports/backend/pkg/errors"
	"village-sports/backend/pkg/metrics"
)

// EventService 赛事与报名业务接口
type EventService interface {
	Create(ctx context.Context, actor policy.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*dto.EventResponse, error)
	List(ctx context.Context, actor policy.Actor, req *dto.EventListRequest) ([]dto.EventResponse, int64, error)
	// Recommended 推荐调用者未组织的赛事，报名中优先
	Recommended(ctx context.Context, actor policy.Actor, req *dto.EventListRequest) ([]dto.EventResponse, int64, error)
	Update(ctx context.Context, actor policy.Actor, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	AdvanceStatus(ctx context.Context, actor policy.Actor, id string, target model.EventStatus) (*dto.EventResponse, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error

	Register(ctx context.Context, actor policy.Actor, id string, req *dto.RegisterEventRequest) (*dto.EventResponse, error)
	Registrations(ctx context.Context, actor policy.Actor, id string) ([]dto.RegistrationResponse, error)
	// ExportRegistrations 导出报名名单为 Excel，返回内容与建议文件名
	ExportRegistrations(ctx context.Context, actor policy.Actor, id string) ([]byte, string, error)
	// RecountParticipants 按报名记录校正报名人数
	RecountParticipants(ctx context.Context, actor policy.Actor, id string) (*dto.EventResponse, error)

	// Calendar 生成全部赛事的 iCalendar 订阅内容
	Calendar(ctx context.Context) ([]byte, error)
}

type eventService struct {
	baseURL string
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(baseURL string, repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) EventService {
	return &eventService{baseURL: baseURL, repo: repo, metrics: m, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, actor policy.Actor, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	if err := policy.Authorize(actor, policy.ActionEventCreate, policy.Target{}); err != nil {
		return nil, err
	}

	organizerID := actor.ID
	event := &model.Event{
		Title:       req.Title,
		OrganizerID: &organizerID,
		StartTime:   req.Time,
		Location:    req.Location,
		Theme:       req.Theme,
		Rule:        req.Rule,
		ImgURL:      req.ImgURL,
		Status:      model.EventStatusOpen,
	}
	event.Version = 1

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建赛事失败", zap.String("organizer_id", organizerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("赛事已创建",
		zap.String("event_id", event.EventID),
		zap.String("organizer_id", organizerID),
	)
	return s.Get(ctx, actor, event.EventID)
}

// ────────────────────── Query ──────────────────────

func (s *eventService) Get(ctx context.Context, actor policy.Actor, id string) (*dto.EventResponse, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.NewEventResponse(event)
	if actor.ID != "" {
		registered, err := s.repo.Event.ExistsRegistration(ctx, id, actor.ID)
		if err != nil {
			s.logger.Error("查询报名状态失败", zap.String("event_id", id), zap.Error(err))
			return nil, err
		}
		resp.Registered = registered
	}
	return &resp, nil
}

func (s *eventService) List(ctx context.Context, actor policy.Actor, req *dto.EventListRequest) ([]dto.EventResponse, int64, error) {
	return s.list(ctx, actor, req, "")
}

func (s *eventService) Recommended(ctx context.Context, actor policy.Actor, req *dto.EventListRequest) ([]dto.EventResponse, int64, error) {
	return s.list(ctx, actor, req, actor.ID)
}

func (s *eventService) list(ctx context.Context, actor policy.Actor, req *dto.EventListRequest, excludeOrganizer string) ([]dto.EventResponse, int64, error) {
	filter := repository.EventFilter{
		Status:             model.EventStatus(req.Status),
		Theme:              req.Theme,
		Keyword:            req.Keyword,
		ExcludeOrganizerID: excludeOrganizer,
	}

	events, total, err := s.repo.Event.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询赛事列表失败", zap.Error(err))
		return nil, 0, err
	}

	registered := make(map[string]bool)
	if actor.ID != "" {
		ids, err := s.repo.Event.ListRegisteredEventIDs(ctx, actor.ID)
		if err != nil {
			s.logger.Error("查询报名记录失败", zap.String("user_id", actor.ID), zap.Error(err))
			return nil, 0, err
		}
		for _, id := range ids {
			registered[id] = true
		}
	}

	list := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp := dto.NewEventResponse(&events[i])
		resp.Registered = registered[events[i].EventID]
		list = append(list, resp)
	}
	return list, total, nil
}

// ────────────────────── Update / Advance / Delete ──────────────────────

func (s *eventService) Update(ctx context.Context, actor policy.Actor, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionEventUpdate, policy.Target{Event: event}); err != nil {
		return nil, err
	}
	if event.Version != req.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Time != nil {
		event.StartTime = *req.Time
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Theme != nil {
		event.Theme = *req.Theme
	}
	if req.Rule != nil {
		event.Rule = *req.Rule
	}
	if req.ImgURL != nil {
		event.ImgURL = *req.ImgURL
	}

	if err := s.repo.Event.Update(ctx, event); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新赛事失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.Get(ctx, actor, id)
}

func (s *eventService) AdvanceStatus(ctx context.Context, actor policy.Actor, id string, target model.EventStatus) (*dto.EventResponse, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.advance(ctx, actor, event, target)
	s.metrics.ObserveTransition("event", "advance", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("赛事状态推进",
		zap.String("operator", actor.ID),
		zap.String("event_id", id),
		zap.String("status", string(target)),
	)
	return s.Get(ctx, actor, id)
}

func (s *eventService) advance(ctx context.Context, actor policy.Actor, event *model.Event, target model.EventStatus) error {
	if err := policy.Authorize(actor, policy.ActionEventAdvance, policy.Target{Event: event}); err != nil {
		return err
	}

	from := event.Status
	if err := event.Advance(target); err != nil {
		return err
	}

	err := s.repo.Event.CompareAndSetStatus(ctx, event.EventID, from, target)
	if errors.Is(err, repository.ErrStateChanged) {
		fresh, err := s.load(ctx, event.EventID)
		if err != nil {
			return err
		}
		if err := fresh.Advance(target); err != nil {
			return err
		}
		return pkgerrors.ErrOptimisticLock
	}
	if err != nil {
		s.logger.Error("推进赛事状态失败", zap.String("id", event.EventID), zap.Error(err))
	}
	return err
}

func (s *eventService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	event, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionEventDelete, policy.Target{Event: event}); err != nil {
		return err
	}

	if err := s.repo.Event.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return pkgerrors.ErrEventNotFound
		}
		s.logger.Error("删除赛事失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("赛事已删除", zap.String("operator", actor.ID), zap.String("event_id", id))
	return nil
}

// ────────────────────── Registration ──────────────────────

func (s *eventService) Register(ctx context.Context, actor policy.Actor, id string, req *dto.RegisterEventRequest) (*dto.EventResponse, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.register(ctx, actor, event, req.HealthCondition)
	s.metrics.ObserveTransition("event", "register", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("赛事报名成功", zap.String("event_id", id), zap.String("user_id", actor.ID))
	return s.Get(ctx, actor, id)
}

// register 先以报名阶段为条件累加人数（锁住赛事行），再写报名记录
// 唯一索引冲突会回滚计数
func (s *eventService) register(ctx context.Context, actor policy.Actor, event *model.Event, healthDeclare string) error {
	if err := policy.Authorize(actor, policy.ActionEventRegister, policy.Target{Event: event}); err != nil {
		return err
	}

	exists, err := s.repo.Event.ExistsRegistration(ctx, event.EventID, actor.ID)
	if err != nil {
		s.logger.Error("查询报名记录失败", zap.String("event_id", event.EventID), zap.Error(err))
		return err
	}
	if exists {
		return pkgerrors.ErrAlreadyRegistered
	}

	userID := actor.ID
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Event.IncrementIfOpen(ctx, event.EventID); err != nil {
			return err
		}
		return tx.Event.CreateRegistration(ctx, &model.EventRegistration{
			EventID:       event.EventID,
			UserID:        &userID,
			HealthDeclare: healthDeclare,
		})
	})
	if errors.Is(err, repository.ErrStateChanged) {
		if _, err := s.load(ctx, event.EventID); err != nil {
			return err
		}
		return pkgerrors.ErrEventNotOpen
	}
	if err != nil && pkgerrors.KindOf(err) == "" {
		s.logger.Error("写入报名记录失败", zap.String("event_id", event.EventID), zap.Error(err))
	}
	return err
}

func (s *eventService) Registrations(ctx context.Context, actor policy.Actor, id string) ([]dto.RegistrationResponse, error) {
	_, regs, err := s.roster(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	list := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		list = append(list, dto.NewRegistrationResponse(&regs[i]))
	}
	return list, nil
}

func (s *eventService) RecountParticipants(ctx context.Context, actor policy.Actor, id string) (*dto.EventResponse, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionEventUpdate, policy.Target{Event: event}); err != nil {
		return nil, err
	}

	count, err := s.repo.Event.RecountParticipants(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.ErrEventNotFound
		}
		s.logger.Error("校正报名人数失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if count != event.ParticipantsCount {
		s.logger.Warn("报名人数与报名记录不一致，已校正",
			zap.String("event_id", id),
			zap.Int("before", event.ParticipantsCount),
			zap.Int("after", count),
		)
	}
	return s.Get(ctx, actor, id)
}

// roster 鉴权后读取报名名单
func (s *eventService) roster(ctx context.Context, actor policy.Actor, id string) (*model.Event, []model.EventRegistration, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.Authorize(actor, policy.ActionEventRoster, policy.Target{Event: event}); err != nil {
		return nil, nil, err
	}

	regs, err := s.repo.Event.ListRegistrations(ctx, id)
	if err != nil {
		s.logger.Error("查询报名名单失败", zap.String("event_id", id), zap.Error(err))
		return nil, nil, err
	}
	return event, regs, nil
}

func (s *eventService) load(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.ErrEventNotFound
		}
		s.logger.Error("查询赛事失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return event, nil
}

// 赛事默认时长，日历条目的结束时间据此推算
const defaultEventDuration = 2 * time.Hour
