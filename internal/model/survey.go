package model

import (
	"time"
)

const (
	DefaultLimitPerUser = 1
	MaxLimitPerUser     = 100
)

// Survey 问卷
// swagger:model Survey
type Survey struct {
	UUIDBase
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	CreatedByID    *uint      `gorm:"index" json:"createdById,omitempty"`
	CreatedBy      *User      `gorm:"foreignKey:CreatedByID" json:"-"`
	IsActive       bool       `gorm:"not null;index" json:"isActive"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	RequireWechat  bool       `gorm:"not null" json:"requireWechat"`
	AllowAnonymous bool       `gorm:"not null" json:"allowAnonymous"`
	LimitPerUser   int        `gorm:"not null" json:"limitPerUser"`

	SurveyQuestions []SurveyQuestion `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"surveyQuestions,omitempty"`
}

func (Survey) TableName() string {
	return "surveys"
}

// SurveyQuestion 问卷与题目的关联，题目顺序和是否必填只在这里定义
// swagger:model SurveyQuestion
type SurveyQuestion struct {
	BaseModel
	SurveyID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_survey_question" json:"surveyId"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_survey_question" json:"questionId"`
	Question   *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	Order      int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsRequired bool      `gorm:"not null" json:"isRequired"`
	CategoryID *uint     `gorm:"index" json:"categoryId,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (SurveyQuestion) TableName() string {
	return "survey_questions"
}

// DisplayCategory 优先使用问卷内覆盖的分类
func (sq *SurveyQuestion) DisplayCategory() *Category {
	if sq.Category != nil {
		return sq.Category
	}
	if sq.Question != nil {
		return sq.Question.Category
	}
	return nil
}
