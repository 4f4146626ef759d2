package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/repository"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type questionStore interface {
	Create(ctx context.Context, q *model.Question) error
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	List(ctx context.Context, f repository.QuestionFilter, page, limit int) ([]model.Question, int64, error)
	ListForExport(ctx context.Context, f repository.QuestionFilter) ([]model.Question, error)
	Update(ctx context.Context, q *model.Question, options []model.Option) error
	Delete(ctx context.Context, id uint) error
	SetPublic(ctx context.Context, ids []uint, public bool) (int64, error)
	SetCategory(ctx context.Context, ids []uint, categoryID *uint) (int64, error)
	CreateImported(ctx context.Context, q *model.Question, categoryName string) error
}

type categoryFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Category, error)
}

type QuestionService struct {
	Questions  questionStore
	Categories categoryFinder
	MaxImport  int64
}

func NewQuestionService(questions questionStore, categories categoryFinder, maxImport int64) *QuestionService {
	if maxImport <= 0 {
		maxImport = 5 << 20
	}
	return &QuestionService{Questions: questions, Categories: categories, MaxImport: maxImport}
}

// OptionRequest 选项
type OptionRequest struct {
	Value string `json:"value" binding:"required,max=100"`
	Label string `json:"label" binding:"required,max=200"`
	Order int    `json:"order"`
}

// QuestionRequest 创建或更新题目，更新时选项整体替换
// swagger:model QuestionRequest
type QuestionRequest struct {
	Text         string          `json:"text" binding:"required"`
	QuestionType string          `json:"questionType" binding:"required,question_type"`
	CategoryID   *uint           `json:"categoryId"`
	IsPublic     bool            `json:"isPublic"`
	Options      []OptionRequest `json:"options" binding:"omitempty,dive"`
}

func (s *QuestionService) buildOptions(req QuestionRequest) ([]model.Option, error) {
	t := model.QuestionType(req.QuestionType)
	if !t.Valid() {
		return nil, util.ErrInvalidQuestionType
	}
	if !t.IsChoice() {
		return nil, nil
	}
	if len(req.Options) == 0 {
		return nil, fmt.Errorf("%w: 选择题至少需要一个选项", util.ErrInvalidAnswer)
	}
	seen := make(map[string]bool, len(req.Options))
	options := make([]model.Option, 0, len(req.Options))
	for i, o := range req.Options {
		value := strings.TrimSpace(o.Value)
		if seen[value] {
			return nil, fmt.Errorf("%w: %s", util.ErrDuplicateOption, value)
		}
		seen[value] = true
		order := o.Order
		if order == 0 {
			order = i
		}
		options = append(options, model.Option{Value: value, Label: o.Label, Order: order})
	}
	return options, nil
}

func (s *QuestionService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.Categories.FindByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *QuestionService) Create(ctx context.Context, req QuestionRequest, creatorID uint) (*model.Question, error) {
	options, err := s.buildOptions(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	q := &model.Question{
		Text:         strings.TrimSpace(req.Text),
		QuestionType: model.QuestionType(req.QuestionType),
		CategoryID:   req.CategoryID,
		IsPublic:     req.IsPublic,
		Options:      options,
	}
	if creatorID > 0 {
		q.CreatedByID = &creatorID
	}
	if err := s.Questions.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) Get(ctx context.Context, id uint) (*model.Question, error) {
	q, err := s.Questions.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	return q, err
}

func (s *QuestionService) List(ctx context.Context, f repository.QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	return s.Questions.List(ctx, f, page, limit)
}

func (s *QuestionService) Update(ctx context.Context, id uint, req QuestionRequest) (*model.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	options, err := s.buildOptions(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	q.Text = strings.TrimSpace(req.Text)
	q.QuestionType = model.QuestionType(req.QuestionType)
	q.CategoryID = req.CategoryID
	q.IsPublic = req.IsPublic
	q.Category = nil
	if err := s.Questions.Update(ctx, q, options); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete 已有答卷引用的题目不能删除
func (s *QuestionService) Delete(ctx context.Context, id uint) error {
	err := s.Questions.Delete(ctx, id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.ErrQuestionNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: 题目已有答卷，不能删除", util.ErrInvalidAnswer)
	}
	return err
}

func (s *QuestionService) SetPublic(ctx context.Context, ids []uint, public bool) (int64, error) {
	return s.Questions.SetPublic(ctx, ids, public)
}

// SetCategory categoryID 为空时清除分类
func (s *QuestionService) SetCategory(ctx context.Context, ids []uint, categoryID *uint) (int64, error) {
	if err := s.checkCategory(ctx, categoryID); err != nil {
		return 0, err
	}
	return s.Questions.SetCategory(ctx, ids, categoryID)
}

// Import 读取上传文件并逐行导入
func (s *QuestionService) Import(ctx context.Context, filename string, size int64, file io.ReadSeeker, isPublic bool, creatorID uint) (*ImportReport, error) {
	if size > s.MaxImport {
		return nil, util.ErrImportFileTooLarge
	}
	format, err := util.DetectImportFormat(filename, file)
	if err != nil {
		return nil, err
	}
	rows, err := ReadImportRows(format, io.LimitReader(file, s.MaxImport+1))
	if err != nil {
		return nil, err
	}

	var createdBy *uint
	if creatorID > 0 {
		createdBy = &creatorID
	}
	report := ImportRows(ctx, s.Questions, rows, isPublic, createdBy)
	logger.Log.Info("题目导入完成",
		zap.String("file", filename),
		zap.Int("created", report.CreatedCount),
		zap.Int("errors", report.ErrorCount),
	)
	return &report, nil
}

// Export 按筛选条件导出，format 为 csv 或 excel
func (s *QuestionService) Export(ctx context.Context, f repository.QuestionFilter, format string) (*bytes.Buffer, error) {
	questions, err := s.Questions.ListForExport(ctx, f)
	if err != nil {
		return nil, err
	}
	return renderTable(QuestionExportRows(questions), format, "问题导出")
}

// Template 导入模板
func (s *QuestionService) Template(format string) (*bytes.Buffer, error) {
	return renderTable(TemplateRows, format, "问题模板")
}

func renderTable(rows [][]string, format, sheet string) (*bytes.Buffer, error) {
	if format == util.FormatExcel {
		return WriteXLSX(sheet, rows)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return &buf, nil
}
