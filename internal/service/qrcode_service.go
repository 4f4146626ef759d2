package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/logger"
	"wechat_survey_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultQRCodeName = "问卷二维码"

type qrcodeStore interface {
	Create(ctx context.Context, q *model.QRCode) error
	FindByCode(ctx context.Context, code string) (*model.QRCode, error)
	Exists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, surveyID string, page, limit int) ([]model.QRCode, int64, error)
	IncrementScan(ctx context.Context, code string) error
	UpdateImageURL(ctx context.Context, code, url string) error
	Delete(ctx context.Context, code string) error
}

type surveyFinder interface {
	FindByID(ctx context.Context, id string) (*model.Survey, error)
}

type objectUploader interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

type QRCodeService struct {
	QRCodes qrcodeStore
	Surveys surveyFinder
	Storage objectUploader
	Tokens  *TokenGenerator
	BaseURL string
}

func NewQRCodeService(qrcodes qrcodeStore, surveys surveyFinder, storage objectUploader, baseURL string) *QRCodeService {
	return &QRCodeService{
		QRCodes: qrcodes,
		Surveys: surveys,
		Storage: storage,
		Tokens:  NewTokenGenerator(ShortCodePolicy),
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// QRCodeRequest 创建二维码
// swagger:model QRCodeRequest
type QRCodeRequest struct {
	SurveyID string `json:"surveyId" binding:"required,uuid"`
	Name     string `json:"name" binding:"max=100"`
}

// QRCodeView 带短链接和图片地址
type QRCodeView struct {
	model.QRCode
	ShortURL    string `json:"shortUrl"`
	RedirectURL string `json:"redirectUrl"`
	ImagePath   string `json:"imagePath"`
}

func (s *QRCodeService) View(q *model.QRCode) QRCodeView {
	return QRCodeView{
		QRCode:      *q,
		ShortURL:    q.ShortURL(s.BaseURL),
		RedirectURL: q.RedirectURL(s.BaseURL),
		ImagePath:   "/qrcode/" + q.ShortCode + "/image/",
	}
}

func (s *QRCodeService) Create(ctx context.Context, req QRCodeRequest) (*model.QRCode, error) {
	if _, err := s.Surveys.FindByID(ctx, req.SurveyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSurveyNotFound
		}
		return nil, err
	}
	q := &model.QRCode{SurveyID: req.SurveyID, Name: strings.TrimSpace(req.Name)}
	if q.Name == "" {
		q.Name = DefaultQRCodeName
	}
	_, err := s.Tokens.GenerateAndReserve(ctx, s.QRCodes.Exists, func(ctx context.Context, code string) error {
		q.ShortCode = code
		return s.QRCodes.Create(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QRCodeService) Get(ctx context.Context, code string) (*model.QRCode, error) {
	q, err := s.QRCodes.FindByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQRCodeNotFound
	}
	return q, err
}

func (s *QRCodeService) List(ctx context.Context, surveyID string, page, limit int) ([]model.QRCode, int64, error) {
	return s.QRCodes.List(ctx, surveyID, page, limit)
}

func (s *QRCodeService) Delete(ctx context.Context, code string) error {
	err := s.QRCodes.Delete(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrQRCodeNotFound
	}
	return err
}

// Scan 扫码：计数加一并返回二维码及其问卷
func (s *QRCodeService) Scan(ctx context.Context, code string) (*model.QRCode, error) {
	q, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.QRCodes.IncrementScan(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQRCodeNotFound
		}
		return nil, err
	}
	q.ScanCount++
	monitoring.QRScanCounter.WithLabelValues(q.SurveyID).Inc()
	return q, nil
}

// ScanResult 扫码后的跳转目标
type ScanResult struct {
	QRCode         *model.QRCode
	RedirectPath   string
	WechatRequired bool
}

// Redirect 记录扫码并返回问卷地址；问卷要求微信而客户端不是微信时 WechatRequired 为 true，扫码仍计数
func (s *QRCodeService) Redirect(ctx context.Context, code, userAgent string) (*ScanResult, error) {
	q, err := s.Scan(ctx, code)
	if err != nil {
		return nil, err
	}
	survey, err := s.Surveys.FindByID(ctx, q.SurveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSurveyNotFound
		}
		return nil, err
	}
	return &ScanResult{
		QRCode:         q,
		RedirectPath:   "/survey/" + survey.ID,
		WechatRequired: survey.RequireWechat && !util.IsWeChatUA(userAgent),
	}, nil
}

// Image 生成指向跳转地址的二维码
func (s *QRCodeService) Image(ctx context.Context, code string, opts ImageOptions) ([]byte, error) {
	q, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	return RenderQRCode(q.RedirectURL(s.BaseURL), opts)
}

// Archive 生成图片并上传到对象存储，记录图片地址
func (s *QRCodeService) Archive(ctx context.Context, code string, opts ImageOptions) (*model.QRCode, error) {
	data, err := s.Image(ctx, code, opts)
	if err != nil {
		return nil, err
	}
	filename := "qrcodes/" + code + ".png"
	url, err := s.Storage.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), util.ContentTypePNG)
	if err != nil {
		logger.Log.Error("上传二维码图片失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	if err := s.QRCodes.UpdateImageURL(ctx, code, url); err != nil {
		return nil, err
	}
	return s.Get(ctx, code)
}
