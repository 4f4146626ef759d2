package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/repository"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuestionController 题库管理、导入导出
type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

func questionFilter(ctx *gin.Context) repository.QuestionFilter {
	f := repository.QuestionFilter{
		QuestionType: ctx.Query("type"),
		CategoryID:   util.MustParseUint(ctx.Query("categoryId")),
		Keyword:      ctx.Query("keyword"),
		IDs:          util.ParseUintList(ctx.Query("ids")),
	}
	if raw := ctx.Query("isPublic"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			f.IsPublic = &b
		}
	}
	return f
}

// List godoc
// @Summary 题目列表
// @Tags 后台-题库
// @Produce json
// @Security ApiKeyAuth
// @Param type query string false "题型"
// @Param categoryId query int false "分类ID"
// @Param isPublic query bool false "是否公开"
// @Param keyword query string false "关键字"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	page, limit := util.ParsePage(ctx)
	list, total, err := c.QuestionService.List(ctx.Request.Context(), questionFilter(ctx), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary 题目详情
// @Tags 后台-题库
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	q, err := c.QuestionService.Get(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// Create godoc
// @Summary 创建题目
// @Tags 后台-题库
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuestionRequest true "题目及选项"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Router /api/admin/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.QuestionService.Create(ctx.Request.Context(), req, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// Update godoc
// @Summary 更新题目
// @Description 选项整体替换
// @Tags 后台-题库
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body service.QuestionRequest true "题目及选项"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.QuestionService.Update(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

// Delete godoc
// @Summary 删除题目
// @Tags 后台-题库
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "题目已有答案"
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	if err := c.QuestionService.Delete(ctx.Request.Context(), util.MustParseUint(ctx.Param("id"))); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *QuestionController) setPublic(ctx *gin.Context, public bool) {
	var req IDsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	n, err := c.QuestionService.SetPublic(ctx.Request.Context(), req.IDs, public)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": n})
}

// MakePublic godoc
// @Summary 批量设为公开
// @Tags 后台-题库
// @Accept json
// @Security ApiKeyAuth
// @Param body body IDsRequest true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/admin/questions/public [post]
func (c *QuestionController) MakePublic(ctx *gin.Context) {
	c.setPublic(ctx, true)
}

// MakePrivate godoc
// @Summary 批量设为私有
// @Tags 后台-题库
// @Accept json
// @Security ApiKeyAuth
// @Param body body IDsRequest true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/admin/questions/private [post]
func (c *QuestionController) MakePrivate(ctx *gin.Context) {
	c.setPublic(ctx, false)
}

// ChangeCategoryRequest 批量修改分类，categoryId 为空表示清除分类
// swagger:model ChangeCategoryRequest
type ChangeCategoryRequest struct {
	IDs        []uint `json:"ids" binding:"required,min=1"`
	CategoryID *uint  `json:"categoryId"`
}

// ChangeCategory godoc
// @Summary 批量修改分类
// @Tags 后台-题库
// @Accept json
// @Security ApiKeyAuth
// @Param body body ChangeCategoryRequest true "题目ID和分类"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "分类不存在"
// @Router /api/admin/questions/category [post]
func (c *QuestionController) ChangeCategory(ctx *gin.Context) {
	var req ChangeCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	n, err := c.QuestionService.SetCategory(ctx.Request.Context(), req.IDs, req.CategoryID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": n})
}

// Import godoc
// @Summary 导入题目
// @Description 支持 CSV 和 xlsx，最大 5MB；逐行导入，失败行不影响其他行
// @Tags 后台-题库
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "导入文件"
// @Param is_public formData bool false "导入的题目是否公开"
// @Success 200 {object} util.Response{data=service.ImportReport}
// @Failure 400 {object} util.Response
// @Router /api/admin/questions/import [post]
func (c *QuestionController) Import(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "请选择要导入的文件")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.BadRequest(ctx, util.ErrImportFileUnreadable.Error())
		return
	}
	defer file.Close()

	isPublic, _ := strconv.ParseBool(ctx.PostForm("is_public"))
	report, err := c.QuestionService.Import(ctx.Request.Context(), fileHeader.Filename, fileHeader.Size, file, isPublic, currentUserID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

func exportFormat(ctx *gin.Context) string {
	if ctx.DefaultQuery("format", util.FormatCSV) == util.FormatExcel {
		return util.FormatExcel
	}
	return util.FormatCSV
}

func sendTable(ctx *gin.Context, name, format string, data []byte) {
	contentType, ext := util.ContentTypeCSV, ".csv"
	if format == util.FormatExcel {
		contentType, ext = util.ContentTypeXLSX, ".xlsx"
	}
	filename := name + ext
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	ctx.Data(http.StatusOK, contentType, data)
}

// Export godoc
// @Summary 导出题目
// @Description 筛选条件同列表，ids 为逗号分隔的题目ID
// @Tags 后台-题库
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param format query string false "csv 或 excel"
// @Param ids query string false "题目ID"
// @Success 200 {file} file
// @Router /api/admin/questions/export [get]
func (c *QuestionController) Export(ctx *gin.Context) {
	format := exportFormat(ctx)
	buf, err := c.QuestionService.Export(ctx.Request.Context(), questionFilter(ctx), format)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	sendTable(ctx, "questions_"+time.Now().Format("20060102_150405"), format, buf.Bytes())
}

// Template godoc
// @Summary 下载导入模板
// @Tags 后台-题库
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param format query string false "csv 或 excel"
// @Success 200 {file} file
// @Router /api/admin/questions/template [get]
func (c *QuestionController) Template(ctx *gin.Context) {
	format := exportFormat(ctx)
	buf, err := c.QuestionService.Template(format)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	sendTable(ctx, "question_import_template", format, buf.Bytes())
}

// Types godoc
// @Summary 题型列表
// @Tags 后台-题库
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/questions/types [get]
func (c *QuestionController) Types(ctx *gin.Context) {
	types := make([]gin.H, 0, len(model.QuestionTypes))
	for _, t := range model.QuestionTypes {
		types = append(types, gin.H{"value": t, "label": t.Label()})
	}
	util.Success(ctx, types)
}
