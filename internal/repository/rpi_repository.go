package repository

import (
	"context"
	"errors"
	"strings"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"

	"gorm.io/gorm"
)

type RPIRepository struct {
	DB *gorm.DB
}

func NewRPIRepository(db *gorm.DB) *RPIRepository {
	return &RPIRepository{DB: db}
}

func (r *RPIRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.AuthorizationCode{}).
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		Count(&count).Error
	return count > 0, err
}

func (r *RPIRepository) CreateCode(ctx context.Context, code string) error {
	return r.DB.WithContext(ctx).Create(&model.AuthorizationCode{Code: code}).Error
}

func (r *RPIRepository) ListCodes(ctx context.Context, used *bool, page, limit int) ([]model.AuthorizationCode, int64, error) {
	var list []model.AuthorizationCode
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.AuthorizationCode{})
	if used != nil {
		query = query.Where("is_used = ?", *used)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// Redeem 核销授权码并创建测试用户。条件更新保证同一授权码只能被使用一次
func (r *RPIRepository) Redeem(ctx context.Context, code string, user *model.RPIUser) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auth model.AuthorizationCode
		err := tx.Where("UPPER(code) = ?", code).First(&auth).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAuthCodeInvalid
		}
		if err != nil {
			return err
		}
		if auth.IsUsed {
			return util.ErrAuthCodeUsed
		}

		result := tx.Model(&model.AuthorizationCode{}).
			Where("code = ? AND is_used = ?", auth.Code, false).
			Update("is_used", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return util.ErrAuthCodeUsed
		}

		user.AuthorizationCode = auth.Code
		return tx.Create(user).Error
	})
}

func (r *RPIRepository) FindUser(ctx context.Context, id uint) (*model.RPIUser, error) {
	var u model.RPIUser
	err := r.DB.WithContext(ctx).First(&u, id).Error
	return &u, err
}

func (r *RPIRepository) ListQuestions(ctx context.Context) ([]model.RPIQuestion, error) {
	var qs []model.RPIQuestion
	err := r.DB.WithContext(ctx).Order("question_order asc").Find(&qs).Error
	return qs, err
}

// SaveResult 答案与结果一起写入，已有结果时返回 ErrRPIAlreadyDone
func (r *RPIRepository) SaveResult(ctx context.Context, answers []model.RPIAnswer, result *model.RPITestResult) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.RPITestResult{}).Where("user_id = ?", result.UserID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return util.ErrRPIAlreadyDone
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return tx.Create(result).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrRPIAlreadyDone
	}
	return err
}

func (r *RPIRepository) FindResult(ctx context.Context, userID uint) (*model.RPITestResult, error) {
	var res model.RPITestResult
	err := r.DB.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&res).Error
	return &res, err
}

func (r *RPIRepository) ListResults(ctx context.Context, page, limit int) ([]model.RPITestResult, int64, error) {
	var list []model.RPITestResult
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.RPITestResult{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("User").Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}
