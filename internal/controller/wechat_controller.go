package controller

import (
	"errors"
	"net/http"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WeChatController struct {
	WeChatService *service.WeChatService
}

func NewWeChatController(wechatService *service.WeChatService) *WeChatController {
	return &WeChatController{WeChatService: wechatService}
}

// Auth godoc
// @Summary 微信网页授权
// @Description 跳转到微信授权页，授权完成后回到 next
// @Tags 微信
// @Param next query string false "授权后跳转的站内路径"
// @Success 302
// @Failure 503 {object} util.Response "未配置微信公众号"
// @Router /wechat/auth [get]
func (c *WeChatController) Auth(ctx *gin.Context) {
	target, err := c.WeChatService.AuthURL(ctx.Request.Context(), ctx.DefaultQuery("next", "/"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, target)
}

// Callback godoc
// @Summary 微信授权回调
// @Description 保存微信用户信息到会话；微信接口失败时仍然跳转
// @Tags 微信
// @Param code query string false "授权码"
// @Param state query string true "授权状态"
// @Success 302
// @Failure 400 {object} util.Response "无效的授权状态"
// @Router /wechat/callback [get]
func (c *WeChatController) Callback(ctx *gin.Context) {
	next, err := c.WeChatService.Callback(ctx.Request.Context(), util.GetSessionKey(ctx), ctx.Query("code"), ctx.Query("state"))
	if err != nil {
		if !errors.Is(err, util.ErrWeChatState) {
			logger.Log.Error("微信授权回调失败", zap.Error(err))
		}
		respondError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, next)
}
