package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "village-sports/backend/pkg/errors"
	"village-sports/backend/pkg/response"
)

// 业务错误码
const (
	codeValidation        = 10001
	codeUnauthenticated   = 10002
	codeUnauthorized      = 10003
	codeAccountNotActive  = 10006
	codeNotFound          = 20001
	codeInvalidTransition = 30001
	codeNotAvailable      = 31001
	codeNotBorrowed       = 31002
	codeMaterialInUse     = 31003
	codeEventNotOpen      = 32001
	codeAlreadyRegistered = 32002
	codeAlreadyReplied    = 33001
	codeConflict          = 40901
)

type errorMapping struct {
	status int
	code   int
}

var kindMappings = map[pkgerrors.Kind]errorMapping{
	pkgerrors.KindValidation:        {http.StatusBadRequest, codeValidation},
	pkgerrors.KindUnauthenticated:   {http.StatusUnauthorized, codeUnauthenticated},
	pkgerrors.KindUnauthorized:      {http.StatusForbidden, codeUnauthorized},
	pkgerrors.KindAccountNotActive:  {http.StatusForbidden, codeAccountNotActive},
	pkgerrors.KindNotFound:          {http.StatusNotFound, codeNotFound},
	pkgerrors.KindInvalidTransition: {http.StatusConflict, codeInvalidTransition},
	pkgerrors.KindNotAvailable:      {http.StatusConflict, codeNotAvailable},
	pkgerrors.KindNotBorrowed:       {http.StatusConflict, codeNotBorrowed},
	pkgerrors.KindMaterialInUse:     {http.StatusConflict, codeMaterialInUse},
	pkgerrors.KindEventNotOpen:      {http.StatusConflict, codeEventNotOpen},
	pkgerrors.KindAlreadyRegistered: {http.StatusConflict, codeAlreadyRegistered},
	pkgerrors.KindAlreadyReplied:    {http.StatusConflict, codeAlreadyReplied},
	pkgerrors.KindConflict:          {http.StatusConflict, codeConflict},
}

// respondError 按业务错误类别写出响应；未分类错误挂到 c.Errors 交由日志中间件记录
func respondError(c *gin.Context, err error) {
	if m, ok := kindMappings[pkgerrors.KindOf(err)]; ok {
		response.Error(c, m.status, m.code, err.Error())
		return
	}
	_ = c.Error(err)
	response.InternalError(c)
}

func badRequest(c *gin.Context) {
	response.BadRequest(c, codeValidation, "参数校验失败")
}
