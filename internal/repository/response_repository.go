package repository

import (
	"context"
	"errors"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"

	"gorm.io/gorm"
)

// 不限次数时并发冲突的重试次数
const maxSeqRetries = 3

type ResponseRepository struct {
	DB *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{DB: db}
}

// CreateWithLimit 计数与写入在同一事务中完成：
// 已提交次数达到 limit 时返回 ErrSubmissionLimit；并发提交由
// (survey_id, respondent_key, submission_seq) 唯一索引兜底。
func (r *ResponseRepository) CreateWithLimit(ctx context.Context, resp *model.Response, limit int) error {
	for attempt := 0; ; attempt++ {
		err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var prior int64
			if err := tx.Model(&model.Response{}).
				Where("survey_id = ? AND respondent_key = ?", resp.SurveyID, resp.RespondentKey).
				Count(&prior).Error; err != nil {
				return err
			}
			if limit > 0 && int(prior) >= limit {
				return util.ErrSubmissionLimit
			}

			var maxSeq *int
			if err := tx.Model(&model.Response{}).
				Select("MAX(submission_seq)").
				Where("survey_id = ? AND respondent_key = ?", resp.SurveyID, resp.RespondentKey).
				Scan(&maxSeq).Error; err != nil {
				return err
			}
			resp.SubmissionSeq = 1
			if maxSeq != nil {
				resp.SubmissionSeq = *maxSeq + 1
			}
			return tx.Create(resp).Error
		})

		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if limit > 0 || attempt+1 >= maxSeqRetries {
			return util.ErrSubmissionLimit
		}
		// 重试前清掉上次写入失败留下的主键
		resp.ID = ""
		for i := range resp.Answers {
			resp.Answers[i].ID = 0
			resp.Answers[i].ResponseID = ""
		}
	}
}

func (r *ResponseRepository) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Response{}).Where("survey_id = ?", surveyID).Count(&count).Error
	return count, err
}

// CountByRespondent 某提交者在该问卷下已有的答卷数
func (r *ResponseRepository) CountByRespondent(ctx context.Context, surveyID, respondentKey string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Response{}).
		Where("survey_id = ? AND respondent_key = ?", surveyID, respondentKey).
		Count(&count).Error
	return count, err
}

func (r *ResponseRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Response{}).Count(&count).Error
	return count, err
}

func (r *ResponseRepository) ListBySurvey(ctx context.Context, surveyID string, page, limit int) ([]model.Response, int64, error) {
	var list []model.Response
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Response{}).Where("survey_id = ?", surveyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Answers").Preload("Respondent").
		Order("submit_time desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*model.Response, error) {
	var resp model.Response
	err := r.DB.WithContext(ctx).
		Preload("Answers").
		Preload("Answers.Question").
		Preload("Answers.Question.Options", orderedOptions).
		Preload("Respondent").
		Where("id = ?", id).
		First(&resp).Error
	return &resp, err
}

// AnswersBySurvey 某问卷全部答卷下的答案，按提交先后排列
func (r *ResponseRepository) AnswersBySurvey(ctx context.Context, surveyID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.WithContext(ctx).
		Joins("JOIN responses ON responses.id = answers.response_id").
		Where("responses.survey_id = ?", surveyID).
		Order("responses.submit_time asc, answers.id asc").
		Find(&answers).Error
	return answers, err
}
