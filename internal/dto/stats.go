package dto

// ── 统计模块 DTO ──

// ParticipationItem 按主题汇总的参与人数
type ParticipationItem struct {
	Theme        string `json:"theme"`
	Events       int64  `json:"events"`
	Participants int64  `json:"participants"`
}

// OverviewResponse 平台概览
type OverviewResponse struct {
	Materials map[string]int64 `json:"materials"`
	Events    map[string]int64 `json:"events"`
	Users     map[string]int64 `json:"users"`
}
