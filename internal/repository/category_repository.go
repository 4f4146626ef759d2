package repository

import (
	"context"
	"wechat_survey_backend/internal/model"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// CategoryWithCount 分类及其题目数量
type CategoryWithCount struct {
	model.Category
	QuestionCount int64 `json:"questionCount"`
}

func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var c model.Category
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]CategoryWithCount, error) {
	var list []CategoryWithCount
	query := r.DB.WithContext(ctx).Model(&model.Category{}).
		Select("categories.*, (SELECT COUNT(*) FROM questions WHERE questions.category_id = categories.id) AS question_count")
	if activeOnly {
		query = query.Where("categories.is_active = ?", true)
	}
	err := query.Order("categories.name asc").Scan(&list).Error
	return list, err
}

func (r *CategoryRepository) Update(ctx context.Context, c *model.Category) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

// Delete 删除分类，题目保留但取消分类
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Question{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.SurveyQuestion{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Category{}, id).Error
	})
}

func (r *CategoryRepository) SetActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.Category{}).
		Where("id IN ?", ids).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}

// GetOrCreateCategory 导入时按名称取分类，不存在则创建（slug 与名称相同）
func GetOrCreateCategory(tx *gorm.DB, name string) (*model.Category, error) {
	var c model.Category
	err := tx.Where(model.Category{Name: name}).
		Attrs(model.Category{Slug: name, IsActive: true}).
		FirstOrCreate(&c).Error
	return &c, err
}
