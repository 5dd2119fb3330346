package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"village-sports/backend/internal/model"
	pkgerrors "village-sports/backend/pkg/errors"
)

var (
	admin     = Actor{ID: "admin", Role: model.RoleAdmin, Status: model.UserStatusActive}
	organizer = Actor{ID: "org", Role: model.RoleOrganizer, Status: model.UserStatusActive}
	otherOrg  = Actor{ID: "org2", Role: model.RoleOrganizer, Status: model.UserStatusActive}
	villager  = Actor{ID: "v", Role: model.RoleVillager, Status: model.UserStatusActive}
	holder    = Actor{ID: "w", Role: model.RoleVillager, Status: model.UserStatusActive}
	pending   = Actor{ID: "p", Role: model.RoleVillager, Status: model.UserStatusPending}
	banned    = Actor{ID: "b", Role: model.RoleAdmin, Status: model.UserStatusBanned}
)

func strPtr(s string) *string { return &s }

func material(status model.MaterialStatus, holderID *string) *model.Material {
	return &model.Material{MaterialID: "m", Status: status, CurrentHolderID: holderID}
}

func event(status model.EventStatus) *model.Event {
	return &model.Event{EventID: "e", OrganizerID: strPtr("org"), Status: status}
}

func interaction(typ model.InteractionType, author string, reply *string) *model.Interaction {
	return &model.Interaction{InteractionID: "i", Type: typ, UserID: strPtr(author), ReplyContent: reply}
}

func TestAuthorize_TruthTable(t *testing.T) {
	borrowed := material(model.MaterialStatusBorrowed, strPtr("w"))

	tests := []struct {
		name   string
		actor  Actor
		action Action
		target Target
		want   pkgerrors.Kind // 空串表示放行
	}{
		// ── 账号状态 ──
		{"注册无需登录", Actor{}, ActionUserRegister, Target{}, ""},
		{"匿名调用被拒", Actor{}, ActionMaterialDonate, Target{}, pkgerrors.KindUnauthorized},
		{"待审核用户捐赠", pending, ActionMaterialDonate, Target{}, pkgerrors.KindAccountNotActive},
		{"封禁管理员审核", banned, ActionMaterialApprove, Target{}, pkgerrors.KindAccountNotActive},

		// ── 用户管理 ──
		{"管理员查看用户", admin, ActionUserList, Target{}, ""},
		{"组织者查看用户", organizer, ActionUserList, Target{}, pkgerrors.KindUnauthorized},
		{"管理员修改状态", admin, ActionUserUpdateStatus, Target{}, ""},
		{"村民删除用户", villager, ActionUserDelete, Target{}, pkgerrors.KindUnauthorized},

		// ── 物资 ──
		{"村民捐赠", villager, ActionMaterialDonate, Target{}, ""},
		{"组织者审核", organizer, ActionMaterialApprove, Target{}, ""},
		{"村民审核", villager, ActionMaterialApprove, Target{}, pkgerrors.KindUnauthorized},
		{"村民借用在库", villager, ActionMaterialBorrow, Target{Material: material(model.MaterialStatusInStock, nil)}, ""},
		{"组织者借用", organizer, ActionMaterialBorrow, Target{Material: material(model.MaterialStatusInStock, nil)}, pkgerrors.KindUnauthorized},
		{"借用待审核", villager, ActionMaterialBorrow, Target{Material: material(model.MaterialStatusPending, nil)}, pkgerrors.KindNotAvailable},
		{"借用已借出", villager, ActionMaterialBorrow, Target{Material: borrowed}, pkgerrors.KindNotAvailable},
		{"借用人归还", holder, ActionMaterialReturn, Target{Material: borrowed}, ""},
		{"非借用人归还", villager, ActionMaterialReturn, Target{Material: borrowed}, pkgerrors.KindUnauthorized},
		{"组织者强制归还", organizer, ActionMaterialReturn, Target{Material: borrowed}, ""},
		{"归还未借出交由生命周期判定", villager, ActionMaterialReturn, Target{Material: material(model.MaterialStatusInStock, nil)}, ""},
		{"组织者标记遗失", organizer, ActionMaterialMarkLost, Target{}, ""},
		{"组织者强制改状态", organizer, ActionMaterialSetStatus, Target{}, ""},
		{"村民强制改状态", villager, ActionMaterialSetStatus, Target{}, pkgerrors.KindUnauthorized},
		{"借用人不能走强制归还", holder, ActionMaterialForceReturn, Target{Material: borrowed}, pkgerrors.KindUnauthorized},
		{"管理员删除物资", admin, ActionMaterialDelete, Target{}, ""},
		{"村民删除物资", villager, ActionMaterialDelete, Target{}, pkgerrors.KindUnauthorized},

		// ── 赛事 ──
		{"组织者创建赛事", organizer, ActionEventCreate, Target{}, ""},
		{"村民创建赛事", villager, ActionEventCreate, Target{}, pkgerrors.KindUnauthorized},
		{"组织者修改本人赛事", organizer, ActionEventUpdate, Target{Event: event(model.EventStatusOpen)}, ""},
		{"组织者修改他人赛事", otherOrg, ActionEventUpdate, Target{Event: event(model.EventStatusOpen)}, pkgerrors.KindUnauthorized},
		{"管理员删除赛事", admin, ActionEventDelete, Target{Event: event(model.EventStatusEnded)}, ""},
		{"组织者推进本人赛事", organizer, ActionEventAdvance, Target{Event: event(model.EventStatusOpen)}, ""},
		{"村民报名开放赛事", villager, ActionEventRegister, Target{Event: event(model.EventStatusOpen)}, ""},
		{"报名进行中赛事", villager, ActionEventRegister, Target{Event: event(model.EventStatusInProgress)}, pkgerrors.KindEventNotOpen},
		{"报名已结束赛事", admin, ActionEventRegister, Target{Event: event(model.EventStatusEnded)}, pkgerrors.KindEventNotOpen},
		{"待审核用户报名", pending, ActionEventRegister, Target{Event: event(model.EventStatusOpen)}, pkgerrors.KindAccountNotActive},
		{"他人导出名单", villager, ActionEventRoster, Target{Event: event(model.EventStatusOpen)}, pkgerrors.KindUnauthorized},
		{"缺少赛事目标", admin, ActionEventUpdate, Target{}, pkgerrors.KindValidation},

		// ── 社区互动：创建 ──
		{"管理员发布公告", admin, ActionInteractionCreate, Target{InteractionType: model.InteractionNotice}, ""},
		{"组织者发布公告", organizer, ActionInteractionCreate, Target{InteractionType: model.InteractionNotice}, pkgerrors.KindUnauthorized},
		{"组织者发布看板", organizer, ActionInteractionCreate, Target{InteractionType: model.InteractionBoard}, ""},
		{"村民发布看板", villager, ActionInteractionCreate, Target{InteractionType: model.InteractionBoard}, pkgerrors.KindUnauthorized},
		{"村民咨询", villager, ActionInteractionCreate, Target{InteractionType: model.InteractionConsult}, ""},
		{"管理员咨询", admin, ActionInteractionCreate, Target{InteractionType: model.InteractionConsult}, pkgerrors.KindUnauthorized},
		{"村民评论", villager, ActionInteractionCreate, Target{InteractionType: model.InteractionComment}, ""},
		{"组织者点赞", organizer, ActionInteractionCreate, Target{InteractionType: model.InteractionLike}, ""},
		{"未知类别", admin, ActionInteractionCreate, Target{InteractionType: "POLL"}, pkgerrors.KindValidation},

		// ── 社区互动：编辑 / 删除 ──
		{"管理员编辑公告", admin, ActionInteractionEdit, Target{Interaction: interaction(model.InteractionNotice, "admin2", nil)}, ""},
		{"作者组织者编辑公告", organizer, ActionInteractionEdit, Target{Interaction: interaction(model.InteractionNotice, "org", nil)}, pkgerrors.KindUnauthorized},
		{"组织者编辑本人看板", organizer, ActionInteractionEdit, Target{Interaction: interaction(model.InteractionBoard, "org", nil)}, ""},
		{"组织者编辑他人看板", otherOrg, ActionInteractionEdit, Target{Interaction: interaction(model.InteractionBoard, "org", nil)}, pkgerrors.KindUnauthorized},
		{"村民编辑本人咨询", villager, ActionInteractionEdit, Target{Interaction: interaction(model.InteractionConsult, "v", nil)}, pkgerrors.KindUnauthorized},
		{"作者删除咨询", villager, ActionInteractionDelete, Target{Interaction: interaction(model.InteractionConsult, "v", nil)}, ""},
		{"他人删除咨询", holder, ActionInteractionDelete, Target{Interaction: interaction(model.InteractionConsult, "v", nil)}, pkgerrors.KindUnauthorized},
		{"管理员删除任意", admin, ActionInteractionDelete, Target{Interaction: interaction(model.InteractionBoard, "org", nil)}, ""},

		// ── 社区互动：回复 ──
		{"组织者回复咨询", organizer, ActionInteractionReply, Target{Interaction: interaction(model.InteractionConsult, "v", nil)}, ""},
		{"村民回复咨询", villager, ActionInteractionReply, Target{Interaction: interaction(model.InteractionConsult, "v", nil)}, pkgerrors.KindUnauthorized},
		{"回复看板", admin, ActionInteractionReply, Target{Interaction: interaction(model.InteractionBoard, "org", nil)}, pkgerrors.KindInvalidTransition},
		{"重复回复", admin, ActionInteractionReply, Target{Interaction: interaction(model.InteractionConsult, "v", strPtr("已回复"))}, pkgerrors.KindAlreadyReplied},

		{"未知动作", admin, Action("material.paint"), Target{}, pkgerrors.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.target)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, tt.want, pkgerrors.KindOf(err))
		})
	}
}

func TestAuthorize_ReadActionsAllowPending(t *testing.T) {
	pendingAdmin := Actor{ID: "pa", Role: model.RoleAdmin, Status: model.UserStatusPending}
	assert.NoError(t, Authorize(pendingAdmin, ActionUserList, Target{}))
}
