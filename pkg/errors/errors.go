package errors

import "errors"

// Kind 业务错误类别，Handler 层据此映射 HTTP 状态码
type Kind string

const (
	KindUnauthenticated   Kind = "unauthenticated"
	KindUnauthorized      Kind = "unauthorized"
	KindAccountNotActive  Kind = "account_not_active"
	KindInvalidTransition Kind = "invalid_transition"
	KindNotAvailable      Kind = "not_available"
	KindNotBorrowed       Kind = "not_borrowed"
	KindMaterialInUse     Kind = "material_in_use"
	KindEventNotOpen      Kind = "event_not_open"
	KindAlreadyRegistered Kind = "already_registered"
	KindAlreadyReplied    Kind = "already_replied"
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
)

// Error 带类别的业务错误
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// New 创建业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation 创建参数校验错误
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Denied 创建带拒绝原因的鉴权错误
func Denied(reason string) *Error {
	return New(KindUnauthorized, reason)
}

// KindOf 提取错误链上的业务类别；非业务错误返回空串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ── 通用错误 ──

var (
	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = New(KindConflict, "数据已被其他操作修改，请刷新后重试")

	ErrUnauthorized      = New(KindUnauthorized, "无权执行此操作")
	ErrSelfOperation     = New(KindValidation, "不能对自己的账号执行该操作")
	ErrAccountNotActive  = New(KindAccountNotActive, "账号未激活或已被封禁")
	ErrInvalidTransition = New(KindInvalidTransition, "当前状态不允许该操作")
)

// ── 物资 ──

var (
	ErrMaterialNotFound = New(KindNotFound, "物资不存在")
	ErrNotAvailable     = New(KindNotAvailable, "物资当前不可借用")
	ErrNotBorrowed      = New(KindNotBorrowed, "物资未处于借出状态")
	ErrMaterialInUse    = New(KindMaterialInUse, "物资借出中，请先归还")
)

// ── 赛事 ──

var (
	ErrEventNotFound     = New(KindNotFound, "赛事不存在")
	ErrEventNotOpen      = New(KindEventNotOpen, "赛事不在报名阶段")
	ErrAlreadyRegistered = New(KindAlreadyRegistered, "已报名该赛事，请勿重复报名")
)

// ── 社区互动 ──

var (
	ErrInteractionNotFound = New(KindNotFound, "内容不存在")
	ErrAlreadyReplied      = New(KindAlreadyReplied, "该咨询已有官方回复")
)

// ── 用户与认证 ──

var (
	ErrUserNotFound       = New(KindNotFound, "用户不存在")
	ErrUsernameExists     = New(KindConflict, "用户名已存在")
	ErrInvalidCredentials = New(KindUnauthenticated, "用户名或密码错误")
	ErrTokenInvalid       = New(KindUnauthenticated, "登录已失效，请重新登录")
)
