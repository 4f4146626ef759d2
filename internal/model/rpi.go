package model

import (
	"time"
)

// AuthorizationCode RPI 测试授权码，一码一用
// swagger:model AuthorizationCode
type AuthorizationCode struct {
	Code      string    `gorm:"primaryKey;size:20" json:"code"`
	IsUsed    bool      `gorm:"not null;index" json:"isUsed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}

var (
	RPIGenders              = []string{"male", "female", "other"}
	RPIAgeRanges            = []string{"18-24", "25-29", "30-34", "35-39", "40-49", "50+"}
	RPIRelationshipStatuses = []string{"single", "in_relationship", "married", "divorced", "widowed"}
	RPITestTypes            = []string{"self", "partner"}
)

type RPIUser struct {
	BaseModel
	Nickname           string `gorm:"size:50" json:"nickname"`
	Gender             string `gorm:"size:10" json:"gender"`
	AgeRange           string `gorm:"size:10" json:"ageRange"`
	RelationshipStatus string `gorm:"size:20" json:"relationshipStatus"`
	TestType           string `gorm:"size:10" json:"testType"`
	AuthorizationCode  string `gorm:"size:20;not null;uniqueIndex:idx_rpi_user_code" json:"-"`
}

func (RPIUser) TableName() string {
	return "rpi_users"
}

type RPIQuestion struct {
	BaseModel
	QuestionText  string `gorm:"type:text;not null" json:"questionText"`
	QuestionOrder int    `gorm:"not null;uniqueIndex:idx_rpi_question_order" json:"questionOrder"`
	Category      string `gorm:"size:50" json:"category"`
}

func (RPIQuestion) TableName() string {
	return "rpi_questions"
}

type RPIAnswer struct {
	BaseModel
	UserID     uint   `gorm:"not null;uniqueIndex:idx_rpi_answer_user_question" json:"userId"`
	QuestionID uint   `gorm:"not null;uniqueIndex:idx_rpi_answer_user_question" json:"questionId"`
	Score      int    `gorm:"not null" json:"score"`
	AnswerText string `gorm:"size:100" json:"answerText"`
}

func (RPIAnswer) TableName() string {
	return "rpi_answers"
}

type RPITestResult struct {
	BaseModel
	UserID           uint     `gorm:"not null;uniqueIndex:idx_rpi_result_user" json:"userId"`
	User             *RPIUser `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TotalScore       int      `gorm:"not null" json:"totalScore"`
	ScoreLevel       string   `gorm:"size:10;not null" json:"scoreLevel"`
	Summary          string   `gorm:"type:text" json:"summary"`
	DetailedAnalysis string   `gorm:"type:text" json:"detailedAnalysis"`
	Suggestions      string   `gorm:"type:text" json:"suggestions"`
}

func (RPITestResult) TableName() string {
	return "rpi_test_results"
}
