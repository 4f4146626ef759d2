package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const MaxCompletionSeconds = 86400

// Response 一次完整的答卷，提交后不可修改
// swagger:model Response
type Response struct {
	UUIDBase
	SurveyID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_response_respondent_seq,priority:1" json:"surveyId"`
	Survey         *Survey   `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	RespondentID   *uint     `gorm:"index" json:"respondentId,omitempty"`
	Respondent     *User     `gorm:"foreignKey:RespondentID" json:"-"`
	SessionKey     string    `gorm:"size:64;index" json:"-"`
	RespondentKey  string    `gorm:"size:100;not null;uniqueIndex:idx_response_respondent_seq,priority:2" json:"-"`
	SubmissionSeq  int       `gorm:"not null;uniqueIndex:idx_response_respondent_seq,priority:3" json:"-"`
	WechatOpenID   string    `gorm:"size:100;index" json:"wechatOpenId,omitempty"`
	WechatUnionID  string    `gorm:"size:100" json:"wechatUnionId,omitempty"`
	WechatNickname string    `gorm:"size:100" json:"wechatNickname,omitempty"`
	SubmitTime     time.Time `gorm:"not null;index" json:"submitTime"`
	IPAddress      string    `gorm:"size:45" json:"ipAddress"`
	UserAgent      string    `gorm:"type:text" json:"userAgent"`
	CompletionTime int       `gorm:"not null;default:0" json:"completionTime"`

	Answers []Answer `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (Response) TableName() string {
	return "responses"
}

// RespondentIdentifier 登录用户 > 微信昵称 > 匿名会话
func (r *Response) RespondentIdentifier() string {
	if r.Respondent != nil && r.Respondent.Username != "" {
		return r.Respondent.Username
	}
	if r.WechatNickname != "" {
		return r.WechatNickname
	}
	if r.SessionKey != "" {
		key := r.SessionKey
		if len(key) > 8 {
			key = key[:8]
		}
		return "匿名(" + key + ")"
	}
	return "匿名"
}

// IsComplete 所有必填题都有有效答案
func (r *Response) IsComplete(required []uint) bool {
	answered := make(map[uint]bool, len(r.Answers))
	for _, a := range r.Answers {
		if !a.IsEmpty() {
			answered[a.QuestionID] = true
		}
	}
	for _, id := range required {
		if !answered[id] {
			return false
		}
	}
	return true
}

// Answer 单题答案，文本与选项二选一
// swagger:model Answer
type Answer struct {
	BaseModel
	ResponseID   string                      `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_response_question" json:"responseId"`
	QuestionID   uint                        `gorm:"not null;uniqueIndex:idx_answer_response_question;index" json:"questionId"`
	Question     *Question                   `gorm:"foreignKey:QuestionID" json:"-"`
	AnswerText   string                      `gorm:"type:text" json:"answerText,omitempty"`
	AnswerChoice datatypes.JSONSlice[string] `json:"answerChoice,omitempty"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) IsEmpty() bool {
	return strings.TrimSpace(a.AnswerText) == "" && len(a.AnswerChoice) == 0
}

// Display 选项值转为标签后展示
func (a *Answer) Display(q *Question) string {
	if len(a.AnswerChoice) > 0 {
		labels := make([]string, 0, len(a.AnswerChoice))
		for _, v := range a.AnswerChoice {
			if q != nil {
				labels = append(labels, q.OptionLabel(v))
			} else {
				labels = append(labels, v)
			}
		}
		return strings.Join(labels, ", ")
	}
	return a.AnswerText
}
