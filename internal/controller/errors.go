package controller

import (
	"errors"
	"net/http"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

var (
	notFoundErrors = []error{
		util.ErrSurveyNotFound,
		util.ErrQuestionNotFound,
		util.ErrCategoryNotFound,
		util.ErrResponseNotFound,
		util.ErrQRCodeNotFound,
		util.ErrUserNotFound,
		util.ErrRPIResultAbsent,
	}
	conflictErrors = []error{
		util.ErrCategoryExists,
		util.ErrSurveyQuestionExists,
		util.ErrAuthCodeUsed,
		util.ErrRPIAlreadyDone,
	}
	badRequestErrors = []error{
		util.ErrInvalidAnswer,
		util.ErrRequiredQuestion,
		util.ErrInvalidQuestionType,
		util.ErrDuplicateOption,
		util.ErrQRCodeOptions,
		util.ErrImportFileTooLarge,
		util.ErrImportFileType,
		util.ErrImportFileUnreadable,
		util.ErrAuthCodeEmpty,
		util.ErrAuthCodeInvalid,
		util.ErrAuthCodeLength,
		util.ErrRPIIncomplete,
		util.ErrRPIScoreRange,
		util.ErrWeChatState,
	}
)

func matchAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError 业务错误映射为 HTTP 状态码，未知错误记录日志并返回 500
func respondError(ctx *gin.Context, err error) {
	var admission *service.AdmissionError
	switch {
	case errors.As(err, &admission):
		data := gin.H{"status": admission.Reason, "message": admission.Reason.Message()}
		if admission.StartDate != nil {
			data["start_time"] = admission.StartDate
		}
		if admission.EndDate != nil {
			data["end_time"] = admission.EndDate
		}
		util.ErrorWithData(ctx, http.StatusForbidden, util.ErrSubmissionRejected.Error(), data)
	case matchAny(err, notFoundErrors):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case matchAny(err, conflictErrors):
		util.Conflict(ctx, err.Error())
	case matchAny(err, badRequestErrors):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials), errors.Is(err, util.ErrRPISessionEmpty):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrUserDisabled), errors.Is(err, util.ErrPermissionDenied):
		util.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, util.ErrWeChatNotConfigured):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, util.ErrTokenSpaceExhausted):
		util.Error(ctx, http.StatusInternalServerError, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// requester 从请求中提取提交者信息
func requester(ctx *gin.Context) service.Requester {
	req := service.Requester{
		SessionKey: util.GetSessionKey(ctx),
		UserAgent:  ctx.Request.UserAgent(),
		IP:         util.ClientIP(ctx),
	}
	if claims := util.GetUserFromContext(ctx); claims != nil {
		id := claims.UserID
		req.UserID = &id
	}
	return req
}

func currentUserID(ctx *gin.Context) uint {
	if claims := util.GetUserFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}

// IDsRequest 批量操作
// swagger:model IDsRequest
type IDsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// SurveyIDsRequest 批量启用/停用问卷
// swagger:model SurveyIDsRequest
type SurveyIDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}
