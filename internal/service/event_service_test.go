package service

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"village-sports/backend/internal/dto"
	"village-sports/backend/internal/model"
	"village-sports/backend/internal/policy"
	pkgerrors "village-sports/backend/pkg/errors"
)

func createEvent(t *testing.T, e *testEnv, organizer policy.Actor, title string) *dto.EventResponse {
	t.Helper()
	ev, err := e.svc.Event.Create(context.Background(), organizer, &dto.CreateEventRequest{
		Title:    title,
		Time:     time.Date(2026, 11, 1, 9, 0, 0, 0, time.Local),
		Location: "村文化广场",
		Theme:    "篮球",
		Rule:     "三人制",
	})
	require.NoError(t, err)
	return ev
}

// 村杯：报名一次成功，重复报名被拒且人数不变
func TestEventService_VillageCup(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "organizer_o", model.RoleOrganizer)
	a := e.active(t, "villager_a", model.RoleVillager)

	ev := createEvent(t, e, o, "Village Cup")
	assert.Equal(t, string(model.EventStatusOpen), ev.Status)
	assert.Equal(t, 0, ev.ParticipantsCount)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, "organizer_o", ev.OrganizerName)

	got, err := e.svc.Event.Register(ctx, a, ev.ID, &dto.RegisterEventRequest{HealthCondition: "健康"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantsCount)
	assert.True(t, got.Registered)

	_, err = e.svc.Event.Register(ctx, a, ev.ID, &dto.RegisterEventRequest{HealthCondition: "健康"})
	assert.ErrorIs(t, err, pkgerrors.ErrAlreadyRegistered)

	got, err = e.svc.Event.Get(ctx, a, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantsCount)

	regs, err := e.svc.Event.Registrations(ctx, o, ev.ID)
	require.NoError(t, err)
	assert.Len(t, regs, got.ParticipantsCount, "报名人数应等于报名记录数")
	assert.Equal(t, "健康", regs[0].HealthDeclare)
	assert.Equal(t, "测试村", regs[0].VillageName)
}

// 同一村民并发报名：仅一次成功，人数与报名记录一致
func TestEventService_ConcurrentRegister(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "organizer_o", model.RoleOrganizer)
	a := e.active(t, "villager_a", model.RoleVillager)
	ev := createEvent(t, e, o, "Village Cup")

	const n = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.Event.Register(ctx, a, ev.ID, &dto.RegisterEventRequest{HealthCondition: "健康"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "重复报名只能成功一次")
	for _, err := range failures {
		assert.ErrorIs(t, err, pkgerrors.ErrAlreadyRegistered)
	}

	got, err := e.svc.Event.Get(ctx, a, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantsCount)
}

func TestEventService_RegisterNotOpen(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "o", model.RoleOrganizer)
	a := e.active(t, "a", model.RoleVillager)

	ev := createEvent(t, e, o, "村运会")
	_, err := e.svc.Event.AdvanceStatus(ctx, o, ev.ID, model.EventStatusInProgress)
	require.NoError(t, err)

	_, err = e.svc.Event.Register(ctx, a, ev.ID, &dto.RegisterEventRequest{})
	assert.ErrorIs(t, err, pkgerrors.ErrEventNotOpen)

	got, err := e.svc.Event.Get(ctx, a, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ParticipantsCount)
	assert.False(t, got.Registered)
}

func TestEventService_RegisterPendingUser(t *testing.T) {
	e := setupTestService(t)
	o := e.active(t, "o", model.RoleOrganizer)
	p := e.actor(t, "p", model.RoleVillager, model.UserStatusPending)

	ev := createEvent(t, e, o, "拔河赛")
	_, err := e.svc.Event.Register(context.Background(), p, ev.ID, &dto.RegisterEventRequest{})
	assert.ErrorIs(t, err, pkgerrors.ErrAccountNotActive)
}

func TestEventService_AdvanceStatus(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "o", model.RoleOrganizer)
	other := e.active(t, "o2", model.RoleOrganizer)
	admin := e.active(t, "admin", model.RoleAdmin)

	ev := createEvent(t, e, o, "广场舞比赛")

	// 非组织者本人
	_, err := e.svc.Event.AdvanceStatus(ctx, other, ev.ID, model.EventStatusInProgress)
	assert.Equal(t, pkgerrors.KindUnauthorized, pkgerrors.KindOf(err))

	// 不允许跳跃
	_, err = e.svc.Event.AdvanceStatus(ctx, o, ev.ID, model.EventStatusEnded)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransition)

	got, err := e.svc.Event.AdvanceStatus(ctx, o, ev.ID, model.EventStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, string(model.EventStatusInProgress), got.Status)

	got, err = e.svc.Event.AdvanceStatus(ctx, admin, ev.ID, model.EventStatusEnded)
	require.NoError(t, err)
	assert.Equal(t, string(model.EventStatusEnded), got.Status)

	// 不允许回退
	_, err = e.svc.Event.AdvanceStatus(ctx, admin, ev.ID, model.EventStatusOpen)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransition)
}

func TestEventService_UpdateOptimisticLock(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "o", model.RoleOrganizer)

	ev := createEvent(t, e, o, "象棋赛")
	title := "象棋公开赛"
	got, err := e.svc.Event.Update(ctx, o, ev.ID, &dto.UpdateEventRequest{Title: &title, Version: ev.Version})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, ev.Version+1, got.Version)
	assert.Equal(t, ev.Location, got.Location)

	// 旧版本号
	_, err = e.svc.Event.Update(ctx, o, ev.ID, &dto.UpdateEventRequest{Title: &title, Version: ev.Version})
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
}

func TestEventService_DeleteCascades(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "o", model.RoleOrganizer)
	a := e.active(t, "a", model.RoleVillager)
	v := e.active(t, "v", model.RoleVillager)

	ev := createEvent(t, e, o, "跳绳赛")
	_, err := e.svc.Event.Register(ctx, a, ev.ID, &dto.RegisterEventRequest{})
	require.NoError(t, err)

	err = e.svc.Event.Delete(ctx, v, ev.ID)
	assert.Equal(t, pkgerrors.KindUnauthorized, pkgerrors.KindOf(err))

	require.NoError(t, e.svc.Event.Delete(ctx, o, ev.ID))
	_, err = e.svc.Event.Get(ctx, a, ev.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrEventNotFound)

	var n int64
	require.NoError(t, e.db.Model(&model.EventRegistration{}).Where("event_id = ?", ev.ID).Count(&n).Error)
	assert.Zero(t, n, "删除赛事应级联删除报名记录")
}

func TestEventService_Recommended(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "o", model.RoleOrganizer)
	o2 := e.active(t, "o2", model.RoleOrganizer)

	createEvent(t, e, o, "自己的赛事")
	theirs := createEvent(t, e, o2, "别人的赛事")

	list, total, err := e.svc.Event.Recommended(ctx, o, &dto.EventListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, theirs.ID, list[0].ID)

	_, total, err = e.svc.Event.List(ctx, o, &dto.EventListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestEventService_RecountParticipants(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "o", model.RoleOrganizer)
	a := e.active(t, "a", model.RoleVillager)

	ev := createEvent(t, e, o, "长跑")
	_, err := e.svc.Event.Register(ctx, a, ev.ID, &dto.RegisterEventRequest{})
	require.NoError(t, err)

	// 人为制造计数漂移
	require.NoError(t, e.db.Model(&model.Event{}).Where("event_id = ?", ev.ID).
		UpdateColumn("participants_count", 5).Error)

	got, err := e.svc.Event.RecountParticipants(ctx, o, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ParticipantsCount)
}

func TestEventService_ExportRegistrations(t *testing.T) {
	e := setupTestService(t)
	ctx := context.Background()
	o := e.active(t, "o", model.RoleOrganizer)
	a := e.active(t, "a", model.RoleVillager)
	b := e.active(t, "b", model.RoleVillager)

	ev := createEvent(t, e, o, "篮球赛")
	_, err := e.svc.Event.Register(ctx, a, ev.ID, &dto.RegisterEventRequest{HealthCondition: "良好"})
	require.NoError(t, err)

	_, _, err = e.svc.Event.ExportRegistrations(ctx, b, ev.ID)
	assert.Equal(t, pkgerrors.KindUnauthorized, pkgerrors.KindOf(err))

	data, filename, err := e.svc.Event.ExportRegistrations(ctx, o, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "报名名单_篮球赛.xlsx", filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(rosterSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "姓名", header)

	name, err := f.GetCellValue(rosterSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "a", name)

	health, err := f.GetCellValue(rosterSheet, "E3")
	require.NoError(t, err)
	assert.Equal(t, "良好", health)
}

func TestEventService_Calendar(t *testing.T) {
	e := setupTestService(t)
	o := e.active(t, "o", model.RoleOrganizer)
	ev := createEvent(t, e, o, "中秋趣味运动会")

	data, err := e.svc.Event.Calendar(context.Background())
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	require.NotNil(t, summary)
	assert.Equal(t, "中秋趣味运动会", summary.Value)
	assert.True(t, strings.HasPrefix(events[0].Id(), ev.ID))

	loc := events[0].GetProperty(ics.ComponentPropertyLocation)
	require.NotNil(t, loc)
	assert.Equal(t, "村文化广场", loc.Value)
}
