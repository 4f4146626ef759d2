package repository

import (
	"context"
	"wechat_survey_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

type QuestionFilter struct {
	QuestionType string
	CategoryID   uint
	IsPublic     *bool
	Keyword      string
	IDs          []uint
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order asc, id asc")
}

func (r *QuestionRepository) applyFilter(query *gorm.DB, f QuestionFilter) *gorm.DB {
	if f.QuestionType != "" {
		query = query.Where("question_type = ?", f.QuestionType)
	}
	if f.CategoryID > 0 {
		query = query.Where("category_id = ?", f.CategoryID)
	}
	if f.IsPublic != nil {
		query = query.Where("is_public = ?", *f.IsPublic)
	}
	if f.Keyword != "" {
		query = query.Where("text LIKE ?", "%"+f.Keyword+"%")
	}
	if len(f.IDs) > 0 {
		query = query.Where("id IN ?", f.IDs)
	}
	return query
}

// Create 题目与选项一起写入
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QuestionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).
		Preload("Options", orderedOptions).
		Preload("Category").
		First(&q, id).Error
	return &q, err
}

func (r *QuestionRepository) List(ctx context.Context, f QuestionFilter, page, limit int) ([]model.Question, int64, error) {
	var qs []model.Question
	var total int64
	query := r.applyFilter(r.DB.WithContext(ctx).Model(&model.Question{}), f)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Options", orderedOptions).Preload("Category").
		Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&qs).Error
	return qs, total, err
}

// ListForExport 导出时带出分类、创建者和选项
func (r *QuestionRepository) ListForExport(ctx context.Context, f QuestionFilter) ([]model.Question, error) {
	var qs []model.Question
	err := r.applyFilter(r.DB.WithContext(ctx).Model(&model.Question{}), f).
		Preload("Options", orderedOptions).
		Preload("Category").
		Preload("CreatedBy").
		Order("id asc").
		Find(&qs).Error
	return qs, err
}

// Update 更新题目，选项整体替换
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question, options []model.Option) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(q).Select("text", "question_type", "category_id", "is_public").Updates(q).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].ID = 0
			options[i].QuestionID = q.ID
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
		}
		q.Options = options
		return nil
	})
}

// Delete 删除题目及其选项和问卷关联，已被答卷引用时由外键阻止
func (r *QuestionRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answered int64
		if err := tx.Model(&model.Answer{}).Where("question_id = ?", id).Count(&answered).Error; err != nil {
			return err
		}
		if answered > 0 {
			return gorm.ErrForeignKeyViolated
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&model.SurveyQuestion{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Question{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *QuestionRepository) SetPublic(ctx context.Context, ids []uint, public bool) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id IN ?", ids).
		Update("is_public", public)
	return result.RowsAffected, result.Error
}

func (r *QuestionRepository) SetCategory(ctx context.Context, ids []uint, categoryID *uint) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("id IN ?", ids).
		Update("category_id", categoryID)
	return result.RowsAffected, result.Error
}

// CreateImported 导入单行：分类按名称取或建，题目与选项在同一事务中写入
func (r *QuestionRepository) CreateImported(ctx context.Context, q *model.Question, categoryName string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if categoryName != "" {
			c, err := GetOrCreateCategory(tx, categoryName)
			if err != nil {
				return err
			}
			q.CategoryID = &c.ID
		}
		return tx.Create(q).Error
	})
}
