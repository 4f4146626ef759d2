package controller

import (
	"wechat_survey_backend/internal/repository"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	CategoryService *service.CategoryService
}

func NewCategoryController(categoryService *service.CategoryService) *CategoryController {
	return &CategoryController{CategoryService: categoryService}
}

// List godoc
// @Summary 分类列表
// @Description 按名称排序，包含题目数量
// @Tags 后台-分类
// @Produce json
// @Security ApiKeyAuth
// @Param active query bool false "只看启用的分类"
// @Success 200 {object} util.Response{data=[]repository.CategoryWithCount}
// @Router /api/admin/categories [get]
func (c *CategoryController) List(ctx *gin.Context) {
	list, err := c.CategoryService.List(ctx.Request.Context(), ctx.Query("active") == "true")
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if list == nil {
		list = []repository.CategoryWithCount{}
	}
	util.Success(ctx, list)
}

// Get godoc
// @Summary 分类详情
// @Tags 后台-分类
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "分类ID"
// @Success 200 {object} util.Response{data=model.Category}
// @Failure 404 {object} util.Response
// @Router /api/admin/categories/{id} [get]
func (c *CategoryController) Get(ctx *gin.Context) {
	category, err := c.CategoryService.Get(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, category)
}

// Create godoc
// @Summary 创建分类
// @Tags 后台-分类
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CategoryRequest true "分类"
// @Success 201 {object} util.Response{data=model.Category}
// @Failure 409 {object} util.Response "名称或标识已存在"
// @Router /api/admin/categories [post]
func (c *CategoryController) Create(ctx *gin.Context) {
	var req service.CategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	category, err := c.CategoryService.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, category)
}

// Update godoc
// @Summary 更新分类
// @Tags 后台-分类
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "分类ID"
// @Param body body service.CategoryRequest true "分类"
// @Success 200 {object} util.Response{data=model.Category}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/categories/{id} [put]
func (c *CategoryController) Update(ctx *gin.Context) {
	var req service.CategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	category, err := c.CategoryService.Update(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, category)
}

// Delete godoc
// @Summary 删除分类
// @Description 题目保留，分类置空
// @Tags 后台-分类
// @Security ApiKeyAuth
// @Param id path int true "分类ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/categories/{id} [delete]
func (c *CategoryController) Delete(ctx *gin.Context) {
	if err := c.CategoryService.Delete(ctx.Request.Context(), util.MustParseUint(ctx.Param("id"))); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *CategoryController) setActive(ctx *gin.Context, active bool) {
	var req IDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	n, err := c.CategoryService.SetActive(ctx.Request.Context(), req.IDs, active)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": n})
}

// Activate godoc
// @Summary 批量启用分类
// @Tags 后台-分类
// @Accept json
// @Security ApiKeyAuth
// @Param body body IDsRequest true "分类ID"
// @Success 200 {object} util.Response
// @Router /api/admin/categories/activate [post]
func (c *CategoryController) Activate(ctx *gin.Context) {
	c.setActive(ctx, true)
}

// Deactivate godoc
// @Summary 批量停用分类
// @Description 停用不会删除题目
// @Tags 后台-分类
// @Accept json
// @Security ApiKeyAuth
// @Param body body IDsRequest true "分类ID"
// @Success 200 {object} util.Response
// @Router /api/admin/categories/deactivate [post]
func (c *CategoryController) Deactivate(ctx *gin.Context) {
	c.setActive(ctx, false)
}
