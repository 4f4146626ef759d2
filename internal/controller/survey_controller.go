package controller

import (
	"net/http"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SurveyController 答题端接口
type SurveyController struct {
	SurveyService *service.SurveyService
	StatsService  *service.StatsService
}

func NewSurveyController(surveyService *service.SurveyService, statsService *service.StatsService) *SurveyController {
	return &SurveyController{SurveyService: surveyService, StatsService: statsService}
}

// ListOpen godoc
// @Summary 可填写的问卷
// @Description 已启用且在开放时间内的问卷
// @Tags 问卷
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Survey}
// @Router /api/surveys [get]
func (c *SurveyController) ListOpen(ctx *gin.Context) {
	surveys, err := c.SurveyService.ListOpen(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if surveys == nil {
		surveys = []model.Survey{}
	}
	util.Success(ctx, surveys)
}

// Detail godoc
// @Summary 问卷详情
// @Description 返回题目、选项和分类，并记录开始答题时间
// @Tags 问卷
// @Produce json
// @Param id path string true "问卷ID"
// @Success 200 {object} util.Response{data=service.SurveyDetail}
// @Failure 403 {object} util.Response "问卷未开始、已结束或已停用"
// @Failure 404 {object} util.Response "问卷不存在"
// @Router /survey/{id} [get]
func (c *SurveyController) Detail(ctx *gin.Context) {
	detail, err := c.SurveyService.Detail(ctx.Request.Context(), ctx.Param("id"), requester(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

func submitted(ctx *gin.Context, resp *model.Response) {
	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "问卷提交成功",
		"response_id": resp.ID,
	})
}

// SubmitForm godoc
// @Summary 表单提交问卷
// @Description 字段名为 question_{问卷题目ID}，多选题重复字段
// @Tags 问卷
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path string true "问卷ID"
// @Success 200 {object} object "提交成功"
// @Failure 400 {object} util.Response "答案无效"
// @Failure 403 {object} util.Response "无法提交问卷"
// @Router /survey/{id}/submit [post]
func (c *SurveyController) SubmitForm(ctx *gin.Context) {
	if err := ctx.Request.ParseForm(); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.SurveyService.SubmitForm(ctx.Request.Context(), ctx.Param("id"), requester(ctx), ctx.Request.PostForm)
	if err != nil {
		respondError(ctx, err)
		return
	}
	submitted(ctx, resp)
}

// SubmitJSON godoc
// @Summary 提交问卷
// @Tags 问卷
// @Accept json
// @Produce json
// @Param id path string true "问卷ID"
// @Param body body service.SubmitRequest true "答案"
// @Success 200 {object} object "提交成功"
// @Failure 400 {object} util.Response "答案无效"
// @Failure 403 {object} util.Response "无法提交问卷"
// @Failure 404 {object} util.Response "问卷不存在"
// @Router /api/surveys/{id}/submit [post]
func (c *SurveyController) SubmitJSON(ctx *gin.Context) {
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.SurveyService.SubmitJSON(ctx.Request.Context(), ctx.Param("id"), requester(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	submitted(ctx, resp)
}

// Stats godoc
// @Summary 问卷统计(公开)
// @Tags 问卷
// @Produce json
// @Param id path string true "问卷ID"
// @Success 200 {object} util.Response{data=service.SurveyStatistics}
// @Failure 404 {object} util.Response "问卷不存在"
// @Router /api/survey/{id}/stats/ [get]
func (c *SurveyController) Stats(ctx *gin.Context) {
	stats, err := c.StatsService.SurveyStatistics(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
