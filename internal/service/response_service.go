package service

import (
	"context"
	"errors"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"

	"gorm.io/gorm"
)

type responseReader interface {
	ListBySurvey(ctx context.Context, surveyID string, page, limit int) ([]model.Response, int64, error)
	FindByID(ctx context.Context, id string) (*model.Response, error)
}

type surveyReader interface {
	FindWithQuestions(ctx context.Context, id string) (*model.Survey, error)
}

// ResponseService 后台查看答卷
type ResponseService struct {
	Responses responseReader
	Surveys   surveyReader
}

func NewResponseService(responses responseReader, surveys surveyReader) *ResponseService {
	return &ResponseService{Responses: responses, Surveys: surveys}
}

type ResponseSummary struct {
	ID             string    `json:"id"`
	Identifier     string    `json:"identifier"`
	SubmitTime     time.Time `json:"submitTime"`
	IsComplete     bool      `json:"isComplete"`
	AnswerCount    int       `json:"answerCount"`
	CompletionTime int       `json:"completionTime"`
	IPAddress      string    `json:"ipAddress"`
	WechatOpenID   string    `json:"wechatOpenId,omitempty"`
	WechatNickname string    `json:"wechatNickname,omitempty"`
}

type AnswerView struct {
	QuestionID   uint               `json:"questionId"`
	QuestionText string             `json:"questionText"`
	QuestionType model.QuestionType `json:"questionType"`
	AnswerText   string             `json:"answerText,omitempty"`
	AnswerChoice []string           `json:"answerChoice,omitempty"`
	Display      string             `json:"display"`
}

type ResponseDetail struct {
	ResponseSummary
	SurveyID  string       `json:"surveyId"`
	UserAgent string       `json:"userAgent"`
	UnionID   string       `json:"wechatUnionId,omitempty"`
	Answers   []AnswerView `json:"answers"`
}

func requiredQuestionIDs(survey *model.Survey) []uint {
	var ids []uint
	for _, sq := range survey.SurveyQuestions {
		if sq.IsRequired {
			ids = append(ids, sq.QuestionID)
		}
	}
	return ids
}

func summarize(r *model.Response, required []uint) ResponseSummary {
	return ResponseSummary{
		ID:             r.ID,
		Identifier:     r.RespondentIdentifier(),
		SubmitTime:     r.SubmitTime,
		IsComplete:     r.IsComplete(required),
		AnswerCount:    len(r.Answers),
		CompletionTime: r.CompletionTime,
		IPAddress:      r.IPAddress,
		WechatOpenID:   r.WechatOpenID,
		WechatNickname: r.WechatNickname,
	}
}

func (s *ResponseService) List(ctx context.Context, surveyID string, page, limit int) ([]ResponseSummary, int64, error) {
	survey, err := s.Surveys.FindWithQuestions(ctx, surveyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.Responses.ListBySurvey(ctx, surveyID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	required := requiredQuestionIDs(survey)
	out := make([]ResponseSummary, 0, len(list))
	for i := range list {
		out = append(out, summarize(&list[i], required))
	}
	return out, total, nil
}

// Detail 答案中的选项值转换为标签
func (s *ResponseService) Detail(ctx context.Context, id string) (*ResponseDetail, error) {
	resp, err := s.Responses.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResponseNotFound
	}
	if err != nil {
		return nil, err
	}
	var required []uint
	if survey, err := s.Surveys.FindWithQuestions(ctx, resp.SurveyID); err == nil {
		required = requiredQuestionIDs(survey)
	}

	detail := &ResponseDetail{
		ResponseSummary: summarize(resp, required),
		SurveyID:        resp.SurveyID,
		UserAgent:       resp.UserAgent,
		UnionID:         resp.WechatUnionID,
		Answers:         make([]AnswerView, 0, len(resp.Answers)),
	}
	for _, a := range resp.Answers {
		view := AnswerView{
			QuestionID:   a.QuestionID,
			AnswerText:   a.AnswerText,
			AnswerChoice: a.AnswerChoice,
			Display:      a.Display(a.Question),
		}
		if a.Question != nil {
			view.QuestionText = a.Question.Text
			view.QuestionType = a.Question.QuestionType
		}
		detail.Answers = append(detail.Answers, view)
	}
	return detail, nil
}
