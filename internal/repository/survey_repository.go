package repository

import (
	"context"
	"time"
	"wechat_survey_backend/internal/model"

	"gorm.io/gorm"
)

type SurveyRepository struct {
	DB *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{DB: db}
}

func (r *SurveyRepository) Create(ctx context.Context, s *model.Survey) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*model.Survey, error) {
	var s model.Survey
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error
	return &s, err
}

// FindWithQuestions 带出按顺序排列的题目、选项和分类
func (r *SurveyRepository) FindWithQuestions(ctx context.Context, id string) (*model.Survey, error) {
	var s model.Survey
	err := r.DB.WithContext(ctx).
		Preload("SurveyQuestions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		}).
		Preload("SurveyQuestions.Category").
		Preload("SurveyQuestions.Question").
		Preload("SurveyQuestions.Question.Category").
		Preload("SurveyQuestions.Question.Options", orderedOptions).
		Where("id = ?", id).
		First(&s).Error
	return &s, err
}

func (r *SurveyRepository) List(ctx context.Context, keyword string, page, limit int) ([]model.Survey, int64, error) {
	var list []model.Survey
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Survey{})
	if keyword != "" {
		query = query.Where("title LIKE ?", "%"+keyword+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// ListOpen 已启用且在开放时间内的问卷
func (r *SurveyRepository) ListOpen(ctx context.Context, now time.Time) ([]model.Survey, error) {
	var list []model.Survey
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Where("start_date IS NULL OR start_date <= ?", now).
		Where("end_date IS NULL OR end_date >= ?", now).
		Order("created_at desc").
		Find(&list).Error
	return list, err
}

func (r *SurveyRepository) Update(ctx context.Context, s *model.Survey) error {
	return r.DB.WithContext(ctx).Model(s).
		Select("title", "description", "is_active", "start_date", "end_date",
			"require_wechat", "allow_anonymous", "limit_per_user").
		Updates(s).Error
}

func (r *SurveyRepository) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&model.Survey{}).
		Where("id IN ?", ids).
		Update("is_active", active)
	return result.RowsAffected, result.Error
}

// Delete 删除问卷及其答卷、二维码和题目关联
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		responseIDs := tx.Model(&model.Response{}).Select("id").Where("survey_id = ?", id)
		if err := tx.Where("response_id IN (?)", responseIDs).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&model.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&model.QRCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("survey_id = ?", id).Delete(&model.SurveyQuestion{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Survey{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *SurveyRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Survey{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *SurveyRepository) AddQuestion(ctx context.Context, sq *model.SurveyQuestion) error {
	return r.DB.WithContext(ctx).Create(sq).Error
}

func (r *SurveyRepository) FindSurveyQuestion(ctx context.Context, surveyID string, questionID uint) (*model.SurveyQuestion, error) {
	var sq model.SurveyQuestion
	err := r.DB.WithContext(ctx).
		Where("survey_id = ? AND question_id = ?", surveyID, questionID).
		First(&sq).Error
	return &sq, err
}

func (r *SurveyRepository) UpdateSurveyQuestion(ctx context.Context, sq *model.SurveyQuestion) error {
	return r.DB.WithContext(ctx).Model(sq).
		Select("sort_order", "is_required", "category_id").
		Updates(sq).Error
}

func (r *SurveyRepository) RemoveQuestion(ctx context.Context, surveyID string, questionID uint) error {
	result := r.DB.WithContext(ctx).
		Where("survey_id = ? AND question_id = ?", surveyID, questionID).
		Delete(&model.SurveyQuestion{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NextQuestionOrder 新加入题目的默认顺序
func (r *SurveyRepository) NextQuestionOrder(ctx context.Context, surveyID string) (int, error) {
	var maxOrder *int
	err := r.DB.WithContext(ctx).Model(&model.SurveyQuestion{}).
		Select("MAX(sort_order)").
		Where("survey_id = ?", surveyID).
		Scan(&maxOrder).Error
	if err != nil || maxOrder == nil {
		return 0, err
	}
	return *maxOrder + 1, nil
}
