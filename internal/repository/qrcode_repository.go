package repository

import (
	"context"
	"wechat_survey_backend/internal/model"

	"gorm.io/gorm"
)

type QRCodeRepository struct {
	DB *gorm.DB
}

func NewQRCodeRepository(db *gorm.DB) *QRCodeRepository {
	return &QRCodeRepository{DB: db}
}

func (r *QRCodeRepository) Create(ctx context.Context, q *model.QRCode) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *QRCodeRepository) FindByCode(ctx context.Context, code string) (*model.QRCode, error) {
	var q model.QRCode
	err := r.DB.WithContext(ctx).Preload("Survey").Where("short_code = ?", code).First(&q).Error
	return &q, err
}

func (r *QRCodeRepository) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.QRCode{}).Where("short_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *QRCodeRepository) List(ctx context.Context, surveyID string, page, limit int) ([]model.QRCode, int64, error) {
	var list []model.QRCode
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.QRCode{})
	if surveyID != "" {
		query = query.Where("survey_id = ?", surveyID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// IncrementScan 原子自增扫码次数
func (r *QRCodeRepository) IncrementScan(ctx context.Context, code string) error {
	result := r.DB.WithContext(ctx).Model(&model.QRCode{}).
		Where("short_code = ?", code).
		Update("scan_count", gorm.Expr("scan_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *QRCodeRepository) UpdateImageURL(ctx context.Context, code, url string) error {
	return r.DB.WithContext(ctx).Model(&model.QRCode{}).
		Where("short_code = ?", code).
		Update("image_url", url).Error
}

func (r *QRCodeRepository) Delete(ctx context.Context, code string) error {
	result := r.DB.WithContext(ctx).Where("short_code = ?", code).Delete(&model.QRCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
