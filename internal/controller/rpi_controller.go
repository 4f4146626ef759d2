package controller

import (
	"strconv"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// RPIController 关系占有欲测试及授权码管理
type RPIController struct {
	RPIService *service.RPIService
}

func NewRPIController(rpiService *service.RPIService) *RPIController {
	return &RPIController{RPIService: rpiService}
}

// Auth godoc
// @Summary 验证授权码
// @Description 授权码不区分大小写，验证成功后开始测试
// @Tags RPI测试
// @Accept json
// @Produce json
// @Param body body service.RPIAuthRequest true "授权码和基本信息"
// @Success 200 {object} util.Response{data=model.RPIUser}
// @Failure 400 {object} util.Response "请输入授权码/无效的授权码"
// @Failure 409 {object} util.Response "该授权码已被使用"
// @Router /api/rpi/auth [post]
func (c *RPIController) Auth(ctx *gin.Context) {
	var req service.RPIAuthRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user, err := c.RPIService.Redeem(ctx.Request.Context(), util.GetSessionKey(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// Questions godoc
// @Summary 测试题目
// @Tags RPI测试
// @Produce json
// @Success 200 {object} util.Response{data=[]model.RPIQuestion}
// @Failure 401 {object} util.Response "请先验证授权码"
// @Router /api/rpi/questions [get]
func (c *RPIController) Questions(ctx *gin.Context) {
	questions, err := c.RPIService.Questions(ctx.Request.Context(), util.GetSessionKey(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// Submit godoc
// @Summary 提交测试
// @Description answers 为题目ID到得分(0-10)的映射，所有题目必须作答
// @Tags RPI测试
// @Accept json
// @Produce json
// @Param body body service.RPISubmitRequest true "答案"
// @Success 200 {object} util.Response{data=model.RPITestResult}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 409 {object} util.Response "测试已完成"
// @Router /api/rpi/submit [post]
func (c *RPIController) Submit(ctx *gin.Context) {
	var req service.RPISubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.RPIService.Submit(ctx.Request.Context(), util.GetSessionKey(ctx), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Result godoc
// @Summary 测试结果
// @Tags RPI测试
// @Produce json
// @Success 200 {object} util.Response{data=model.RPITestResult}
// @Failure 401 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/rpi/result [get]
func (c *RPIController) Result(ctx *gin.Context) {
	result, err := c.RPIService.Result(ctx.Request.Context(), util.GetSessionKey(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Reset godoc
// @Summary 重新开始
// @Tags RPI测试
// @Success 200 {object} util.Response
// @Router /api/rpi/reset [post]
func (c *RPIController) Reset(ctx *gin.Context) {
	if err := c.RPIService.Reset(ctx.Request.Context(), util.GetSessionKey(ctx)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GenerateCodes godoc
// @Summary 批量生成授权码
// @Tags 后台-RPI
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.GenerateCodesRequest true "数量、长度、前缀"
// @Success 201 {object} util.Response{data=service.BatchResult}
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response "无法生成唯一编码"
// @Router /api/admin/rpi/codes [post]
func (c *RPIController) GenerateCodes(ctx *gin.Context) {
	var req service.GenerateCodesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	res, err := c.RPIService.GenerateCodes(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// ListCodes godoc
// @Summary 授权码列表
// @Tags 后台-RPI
// @Produce json
// @Security ApiKeyAuth
// @Param used query bool false "是否已使用"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/rpi/codes [get]
func (c *RPIController) ListCodes(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	var used *bool
	if raw := ctx.Query("used"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			used = &b
		}
	}
	list, total, err := c.RPIService.ListCodes(ctx.Request.Context(), used, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}

// ListResults godoc
// @Summary 测试结果列表
// @Tags 后台-RPI
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/rpi/results [get]
func (c *RPIController) ListResults(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, total, err := c.RPIService.ListResults(ctx.Request.Context(), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}
