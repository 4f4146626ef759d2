package model

import (
	"time"
)

// QRCode 短码到问卷的映射，扫码次数只增不减
// swagger:model QRCode
type QRCode struct {
	ShortCode string    `gorm:"primaryKey;size:20" json:"shortCode"`
	SurveyID  string    `gorm:"type:varchar(36);not null;index" json:"surveyId"`
	Survey    *Survey   `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	ScanCount int64     `gorm:"not null;default:0" json:"scanCount"`
	ImageURL  string    `gorm:"size:255" json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}

func (q *QRCode) ShortURL(baseURL string) string {
	return baseURL + "/qr/" + q.ShortCode
}

func (q *QRCode) RedirectURL(baseURL string) string {
	return baseURL + "/qrcode/" + q.ShortCode + "/redirect/"
}
