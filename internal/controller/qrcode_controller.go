package controller

import (
	"net/http"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QRCodeController struct {
	QRCodeService *service.QRCodeService
}

func NewQRCodeController(qrcodeService *service.QRCodeService) *QRCodeController {
	return &QRCodeController{QRCodeService: qrcodeService}
}

// Redirect godoc
// @Summary 扫码跳转
// @Description 扫码次数加一后跳转到问卷；要求微信的问卷在非微信环境返回 403
// @Tags 二维码
// @Param code path string true "短码"
// @Success 302
// @Failure 403 {object} util.Response "请在微信中打开"
// @Failure 404 {object} util.Response
// @Router /qrcode/{code}/redirect/ [get]
// @Router /qr/{code} [get]
func (c *QRCodeController) Redirect(ctx *gin.Context) {
	res, err := c.QRCodeService.Redirect(ctx.Request.Context(), ctx.Param("code"), ctx.Request.UserAgent())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if res.WechatRequired {
		util.ErrorWithData(ctx, http.StatusForbidden, service.AdmissionWechatRequired.Message(), gin.H{
			"status":       service.AdmissionWechatRequired,
			"redirect_url": res.RedirectPath,
		})
		return
	}
	ctx.Redirect(http.StatusFound, res.RedirectPath)
}

// Image godoc
// @Summary 二维码图片
// @Tags 二维码
// @Produce png
// @Param code path string true "短码"
// @Param version query int false "版本 1-40"
// @Param error_correction query string false "纠错级别 L/M/Q/H"
// @Param box_size query int false "模块像素 1-50"
// @Param border query int false "边框模块数 0-20"
// @Param fill_color query string false "前景色"
// @Param back_color query string false "背景色"
// @Success 200 {file} file
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /qrcode/{code}/image/ [get]
func (c *QRCodeController) Image(ctx *gin.Context) {
	opts, err := service.ParseImageOptions(ctx.Query)
	if err != nil {
		respondError(ctx, err)
		return
	}
	data, err := c.QRCodeService.Image(ctx.Request.Context(), ctx.Param("code"), opts)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "public, max-age=3600")
	ctx.Data(http.StatusOK, util.ContentTypePNG, data)
}

// Create godoc
// @Summary 创建二维码
// @Tags 后台-二维码
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QRCodeRequest true "问卷和名称"
// @Success 201 {object} util.Response{data=service.QRCodeView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "问卷不存在"
// @Router /api/admin/qrcodes [post]
func (c *QRCodeController) Create(ctx *gin.Context) {
	var req service.QRCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.QRCodeService.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, c.QRCodeService.View(q))
}

// List godoc
// @Summary 二维码列表
// @Tags 后台-二维码
// @Produce json
// @Security ApiKeyAuth
// @Param surveyId query string false "问卷ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/qrcodes [get]
func (c *QRCodeController) List(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, total, err := c.QRCodeService.List(ctx.Request.Context(), ctx.Query("surveyId"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	views := make([]service.QRCodeView, 0, len(list))
	for i := range list {
		views = append(views, c.QRCodeService.View(&list[i]))
	}
	util.Success(ctx, util.PageResponse{List: views, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary 二维码详情
// @Tags 后台-二维码
// @Produce json
// @Security ApiKeyAuth
// @Param code path string true "短码"
// @Success 200 {object} util.Response{data=service.QRCodeView}
// @Failure 404 {object} util.Response
// @Router /api/admin/qrcodes/{code} [get]
func (c *QRCodeController) Get(ctx *gin.Context) {
	q, err := c.QRCodeService.Get(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, c.QRCodeService.View(q))
}

// Delete godoc
// @Summary 删除二维码
// @Tags 后台-二维码
// @Security ApiKeyAuth
// @Param code path string true "短码"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/qrcodes/{code} [delete]
func (c *QRCodeController) Delete(ctx *gin.Context) {
	if err := c.QRCodeService.Delete(ctx.Request.Context(), ctx.Param("code")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Archive godoc
// @Summary 保存二维码图片到对象存储
// @Description 样式参数同图片接口
// @Tags 后台-二维码
// @Produce json
// @Security ApiKeyAuth
// @Param code path string true "短码"
// @Success 200 {object} util.Response{data=service.QRCodeView}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/qrcodes/{code}/archive [post]
func (c *QRCodeController) Archive(ctx *gin.Context) {
	opts, err := service.ParseImageOptions(ctx.Query)
	if err != nil {
		respondError(ctx, err)
		return
	}
	var q *model.QRCode
	if q, err = c.QRCodeService.Archive(ctx.Request.Context(), ctx.Param("code"), opts); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, c.QRCodeService.View(q))
}
