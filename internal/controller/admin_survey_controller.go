package controller

import (
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminSurveyController 后台问卷管理、统计和答卷查看
type AdminSurveyController struct {
	SurveyService   *service.SurveyService
	ResponseService *service.ResponseService
	StatsService    *service.StatsService
}

func NewAdminSurveyController(surveyService *service.SurveyService, responseService *service.ResponseService, statsService *service.StatsService) *AdminSurveyController {
	return &AdminSurveyController{
		SurveyService:   surveyService,
		ResponseService: responseService,
		StatsService:    statsService,
	}
}

// List godoc
// @Summary 问卷列表
// @Tags 后台-问卷
// @Produce json
// @Security ApiKeyAuth
// @Param keyword query string false "标题关键字"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/surveys [get]
func (c *AdminSurveyController) List(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	surveys, total, err := c.SurveyService.List(ctx.Request.Context(), ctx.Query("keyword"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: surveys, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary 问卷详情（含题目）
// @Tags 后台-问卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Success 200 {object} util.Response{data=model.Survey}
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id} [get]
func (c *AdminSurveyController) Get(ctx *gin.Context) {
	survey, err := c.SurveyService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, survey)
}

// Create godoc
// @Summary 创建问卷
// @Tags 后台-问卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SurveyRequest true "问卷"
// @Success 201 {object} util.Response{data=model.Survey}
// @Failure 400 {object} util.Response
// @Router /api/admin/surveys [post]
func (c *AdminSurveyController) Create(ctx *gin.Context) {
	var req service.SurveyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	survey, err := c.SurveyService.Create(ctx.Request.Context(), req, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, survey)
}

// Update godoc
// @Summary 更新问卷
// @Tags 后台-问卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Param body body service.SurveyRequest true "问卷"
// @Success 200 {object} util.Response{data=model.Survey}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id} [put]
func (c *AdminSurveyController) Update(ctx *gin.Context) {
	var req service.SurveyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	survey, err := c.SurveyService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, survey)
}

// Delete godoc
// @Summary 删除问卷
// @Description 同时删除答卷和二维码
// @Tags 后台-问卷
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id} [delete]
func (c *AdminSurveyController) Delete(ctx *gin.Context) {
	if err := c.SurveyService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *AdminSurveyController) setActive(ctx *gin.Context, active bool) {
	var req SurveyIDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	n, err := c.SurveyService.SetActive(ctx.Request.Context(), req.IDs, active)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": n})
}

// Activate godoc
// @Summary 批量启用问卷
// @Tags 后台-问卷
// @Accept json
// @Security ApiKeyAuth
// @Param body body SurveyIDsRequest true "问卷ID"
// @Success 200 {object} util.Response
// @Router /api/admin/surveys/activate [post]
func (c *AdminSurveyController) Activate(ctx *gin.Context) {
	c.setActive(ctx, true)
}

// Deactivate godoc
// @Summary 批量停用问卷
// @Tags 后台-问卷
// @Accept json
// @Security ApiKeyAuth
// @Param body body SurveyIDsRequest true "问卷ID"
// @Success 200 {object} util.Response
// @Router /api/admin/surveys/deactivate [post]
func (c *AdminSurveyController) Deactivate(ctx *gin.Context) {
	c.setActive(ctx, false)
}

// AddQuestion godoc
// @Summary 添加题目到问卷
// @Tags 后台-问卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Param body body service.SurveyQuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.SurveyQuestion}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "该问题已在问卷中"
// @Router /api/admin/surveys/{id}/questions [post]
func (c *AdminSurveyController) AddQuestion(ctx *gin.Context) {
	var req service.SurveyQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sq, err := c.SurveyService.AddQuestion(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, sq)
}

// UpdateQuestion godoc
// @Summary 修改问卷题目的顺序、必填和分类
// @Tags 后台-问卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Param questionId path int true "题目ID"
// @Param body body service.SurveyQuestionRequest true "题目设置"
// @Success 200 {object} util.Response{data=model.SurveyQuestion}
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id}/questions/{questionId} [put]
func (c *AdminSurveyController) UpdateQuestion(ctx *gin.Context) {
	var req service.SurveyQuestionRequest
	req.QuestionID = util.MustParseUint(ctx.Param("questionId"))
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.QuestionID = util.MustParseUint(ctx.Param("questionId"))
	sq, err := c.SurveyService.UpdateQuestion(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sq)
}

// RemoveQuestion godoc
// @Summary 从问卷移除题目
// @Tags 后台-问卷
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id}/questions/{questionId} [delete]
func (c *AdminSurveyController) RemoveQuestion(ctx *gin.Context) {
	err := c.SurveyService.RemoveQuestion(ctx.Request.Context(), ctx.Param("id"), util.MustParseUint(ctx.Param("questionId")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Statistics godoc
// @Summary 问卷统计
// @Description 选择题选项分布、评分分布和文本答案样例
// @Tags 后台-问卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Success 200 {object} util.Response{data=service.SurveyStatistics}
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id}/statistics [get]
func (c *AdminSurveyController) Statistics(ctx *gin.Context) {
	stats, err := c.StatsService.SurveyStatistics(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Responses godoc
// @Summary 问卷答卷列表
// @Tags 后台-问卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "问卷ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id}/responses [get]
func (c *AdminSurveyController) Responses(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, total, err := c.ResponseService.List(ctx.Request.Context(), ctx.Param("id"), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}

// ResponseDetail godoc
// @Summary 答卷详情
// @Tags 后台-问卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "答卷ID"
// @Success 200 {object} util.Response{data=service.ResponseDetail}
// @Failure 404 {object} util.Response
// @Router /api/admin/responses/{id} [get]
func (c *AdminSurveyController) ResponseDetail(ctx *gin.Context) {
	detail, err := c.ResponseService.Detail(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}
