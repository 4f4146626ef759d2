package model

import (
	"strings"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionRating         QuestionType = "rating"
	QuestionDate           QuestionType = "date"
)

// QuestionTypes 题型与中文名称，顺序即展示顺序
var QuestionTypes = []QuestionType{
	QuestionText,
	QuestionSingleChoice,
	QuestionMultipleChoice,
	QuestionRating,
	QuestionDate,
}

var questionTypeLabels = map[QuestionType]string{
	QuestionText:           "文本题",
	QuestionSingleChoice:   "单选题",
	QuestionMultipleChoice: "多选题",
	QuestionRating:         "评分题",
	QuestionDate:           "日期题",
}

func (t QuestionType) Label() string {
	if label, ok := questionTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t QuestionType) Valid() bool {
	_, ok := questionTypeLabels[t]
	return ok
}

func (t QuestionType) IsChoice() bool {
	return t == QuestionSingleChoice || t == QuestionMultipleChoice
}

// Question 可复用的题目，通过 SurveyQuestion 加入问卷
// swagger:model Question
type Question struct {
	BaseModel
	Text         string       `gorm:"type:text;not null" json:"text"`
	QuestionType QuestionType `gorm:"size:20;not null;index" json:"questionType"`
	CategoryID   *uint        `gorm:"index" json:"categoryId,omitempty"`
	Category     *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedByID  *uint        `gorm:"index" json:"createdById,omitempty"`
	CreatedBy    *User        `gorm:"foreignKey:CreatedByID" json:"-"`
	IsPublic     bool         `gorm:"not null" json:"isPublic"`
	Options      []Option     `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) IsChoice() bool {
	return q.QuestionType.IsChoice()
}

// OptionLabel 选项值转显示文本，找不到时原样返回
func (q *Question) OptionLabel(value string) string {
	for _, o := range q.Options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Option 选择题选项，value 为机器值，label 为显示文本
// swagger:model Option
type Option struct {
	BaseModel
	QuestionID uint   `gorm:"not null;uniqueIndex:idx_option_question_value" json:"questionId"`
	Value      string `gorm:"size:100;not null;uniqueIndex:idx_option_question_value" json:"value"`
	Label      string `gorm:"size:200;not null" json:"label"`
	Order      int    `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (Option) TableName() string {
	return "options"
}

func (o *Option) BeforeSave(tx *gorm.DB) error {
	o.Value = strings.TrimSpace(o.Value)
	o.Label = strings.TrimSpace(o.Label)
	return nil
}

// Category 题目分类，停用不影响已有题目
// swagger:model Category
type Category struct {
	BaseModel
	Name        string `gorm:"size:100;not null;uniqueIndex:idx_category_name" json:"name"`
	Slug        string `gorm:"size:100;not null;uniqueIndex:idx_category_slug" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null" json:"isActive"`
}

func (Category) TableName() string {
	return "categories"
}
