// Package policy 集中定义角色权限矩阵。
//
// Authorize 是纯函数：只依据调用者、动作与目标实体的当前快照做判定，
// 不访问存储。需要 I/O 的检查（如重复报名）由各业务服务在事务内完成。
package policy

import (
	"village-sports/backend/internal/model"
	pkgerrors "village-sports/backend/pkg/errors"
)

// Actor 当前请求的调用者，由认证中间件解析后显式传入
type Actor struct {
	ID     string
	Role   model.Role
	Status model.UserStatus
}

// Action 受控动作
type Action string

const (
	ActionUserRegister     Action = "user.register"
	ActionUserList         Action = "user.list"
	ActionUserUpdateStatus Action = "user.update_status"
	ActionUserDelete       Action = "user.delete"

	ActionMaterialDonate      Action = "material.donate"
	ActionMaterialApprove     Action = "material.approve"
	ActionMaterialBorrow      Action = "material.borrow"
	ActionMaterialReturn      Action = "material.return"
	ActionMaterialForceReturn Action = "material.force_return"
	ActionMaterialMarkLost    Action = "material.mark_lost"
	ActionMaterialSetStatus   Action = "material.set_status"
	ActionMaterialDelete      Action = "material.delete"

	ActionEventCreate   Action = "event.create"
	ActionEventUpdate   Action = "event.update"
	ActionEventDelete   Action = "event.delete"
	ActionEventAdvance  Action = "event.advance"
	ActionEventRegister Action = "event.register"
	ActionEventRoster   Action = "event.roster"

	ActionInteractionCreate Action = "interaction.create"
	ActionInteractionEdit   Action = "interaction.edit"
	ActionInteractionDelete Action = "interaction.delete"
	ActionInteractionReply  Action = "interaction.reply"
)

// mutating 判定动作是否改变状态；只读动作不要求账号已激活
func (a Action) mutating() bool {
	switch a {
	case ActionUserList, ActionEventRoster:
		return false
	}
	return true
}

// Target 动作作用的实体快照，按动作填写对应字段
type Target struct {
	Material        *model.Material
	Event           *model.Event
	Interaction     *model.Interaction
	InteractionType model.InteractionType // 仅创建互动时使用
}

var (
	errAdminOnly      = pkgerrors.Denied("仅管理员可执行该操作")
	errPrivilegedOnly = pkgerrors.Denied("仅管理员或组织者可执行该操作")
	errVillagerOnly   = pkgerrors.Denied("仅村民可执行该操作")
	errNotOwner       = pkgerrors.Denied("仅赛事组织者本人或管理员可执行该操作")
	errNotHolder      = pkgerrors.Denied("仅借用人本人或管理员、组织者可归还")
	errNotAuthor      = pkgerrors.Denied("仅作者本人或管理员可执行该操作")
	errMissingTarget  = pkgerrors.Validation("缺少操作目标")
)

// Authorize 判定 actor 能否对 target 执行 action
// 放行返回 nil；拒绝返回带类别的 *errors.Error
func Authorize(actor Actor, action Action, target Target) error {
	if action == ActionUserRegister {
		return nil
	}
	if actor.ID == "" {
		return pkgerrors.ErrUnauthorized
	}
	if action.mutating() && actor.Status != model.UserStatusActive {
		return pkgerrors.ErrAccountNotActive
	}

	switch action {
	case ActionUserList, ActionUserUpdateStatus, ActionUserDelete:
		if actor.Role != model.RoleAdmin {
			return errAdminOnly
		}
		return nil

	case ActionMaterialDonate:
		return nil
	case ActionMaterialApprove, ActionMaterialForceReturn, ActionMaterialMarkLost,
		ActionMaterialSetStatus, ActionMaterialDelete:
		if !actor.Role.Privileged() {
			return errPrivilegedOnly
		}
		return nil
	case ActionMaterialBorrow:
		return authorizeBorrow(actor, target.Material)
	case ActionMaterialReturn:
		return authorizeReturn(actor, target.Material)

	case ActionEventCreate:
		if !actor.Role.Privileged() {
			return errPrivilegedOnly
		}
		return nil
	case ActionEventUpdate, ActionEventDelete, ActionEventAdvance, ActionEventRoster:
		if target.Event == nil {
			return errMissingTarget
		}
		if actor.Role != model.RoleAdmin && !target.Event.OwnedBy(actor.ID) {
			return errNotOwner
		}
		return nil
	case ActionEventRegister:
		if target.Event == nil {
			return errMissingTarget
		}
		if target.Event.Status != model.EventStatusOpen {
			return pkgerrors.ErrEventNotOpen
		}
		return nil

	case ActionInteractionCreate:
		return authorizeCreateInteraction(actor, target.InteractionType)
	case ActionInteractionEdit:
		return authorizeEditInteraction(actor, target.Interaction)
	case ActionInteractionDelete:
		if target.Interaction == nil {
			return errMissingTarget
		}
		if actor.Role != model.RoleAdmin && !target.Interaction.AuthoredBy(actor.ID) {
			return errNotAuthor
		}
		return nil
	case ActionInteractionReply:
		return authorizeReply(actor, target.Interaction)
	}

	return pkgerrors.Denied("未知操作: " + string(action))
}

func authorizeBorrow(actor Actor, m *model.Material) error {
	if m == nil {
		return errMissingTarget
	}
	if actor.Role != model.RoleVillager {
		return errVillagerOnly
	}
	if m.Status != model.MaterialStatusInStock {
		return pkgerrors.ErrNotAvailable
	}
	return nil
}

// authorizeReturn 借用人本人或管理员/组织者（强制归还）
// 未借出的物资交由生命周期管理返回 NotBorrowed
func authorizeReturn(actor Actor, m *model.Material) error {
	if m == nil {
		return errMissingTarget
	}
	if m.Status != model.MaterialStatusBorrowed || actor.Role.Privileged() {
		return nil
	}
	if m.CurrentHolderID != nil && *m.CurrentHolderID == actor.ID {
		return nil
	}
	return errNotHolder
}

func authorizeCreateInteraction(actor Actor, typ model.InteractionType) error {
	switch typ {
	case model.InteractionNotice:
		if actor.Role != model.RoleAdmin {
			return errAdminOnly
		}
	case model.InteractionBoard:
		if !actor.Role.Privileged() {
			return errPrivilegedOnly
		}
	case model.InteractionConsult:
		if actor.Role != model.RoleVillager {
			return errVillagerOnly
		}
	case model.InteractionComment, model.InteractionLike:
	default:
		return pkgerrors.Validation("未知互动类别")
	}
	return nil
}

// authorizeEditInteraction 管理员可编辑全部；看板帖作者为管理员或组织者时可编辑本人帖子
func authorizeEditInteraction(actor Actor, it *model.Interaction) error {
	if it == nil {
		return errMissingTarget
	}
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if it.Type == model.InteractionBoard && actor.Role.Privileged() && it.AuthoredBy(actor.ID) {
		return nil
	}
	return errAdminOnly
}

func authorizeReply(actor Actor, it *model.Interaction) error {
	if it == nil {
		return errMissingTarget
	}
	if !actor.Role.Privileged() {
		return errPrivilegedOnly
	}
	if it.Type != model.InteractionConsult {
		return pkgerrors.ErrInvalidTransition
	}
	if it.ReplyContent != nil {
		return pkgerrors.ErrAlreadyReplied
	}
	return nil
}
