package handler

import "village-sports/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Material    *MaterialHandler
	Event       *EventHandler
	Interaction *InteractionHandler
	Stats       *StatsHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		User:        NewUserHandler(svc.User),
		Material:    NewMaterialHandler(svc.Material),
		Event:       NewEventHandler(svc.Event),
		Interaction: NewInteractionHandler(svc.Interaction),
		Stats:       NewStatsHandler(svc.Stats),
	}
}
