package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/logger"
	"wechat_survey_backend/pkg/monitoring"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type surveyStore interface {
	Create(ctx context.Context, s *model.Survey) error
	FindByID(ctx context.Context, id string) (*model.Survey, error)
	FindWithQuestions(ctx context.Context, id string) (*model.Survey, error)
	List(ctx context.Context, keyword string, page, limit int) ([]model.Survey, int64, error)
	ListOpen(ctx context.Context, now time.Time) ([]model.Survey, error)
	Update(ctx context.Context, s *model.Survey) error
	SetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, id string) error
	AddQuestion(ctx context.Context, sq *model.SurveyQuestion) error
	FindSurveyQuestion(ctx context.Context, surveyID string, questionID uint) (*model.SurveyQuestion, error)
	UpdateSurveyQuestion(ctx context.Context, sq *model.SurveyQuestion) error
	RemoveQuestion(ctx context.Context, surveyID string, questionID uint) error
	NextQuestionOrder(ctx context.Context, surveyID string) (int, error)
}

type responseWriter interface {
	CountByRespondent(ctx context.Context, surveyID, respondentKey string) (int64, error)
	CreateWithLimit(ctx context.Context, resp *model.Response, limit int) error
}

type questionFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Question, error)
}

type sessionStore interface {
	Get(ctx context.Context, sessionKey, field string) (string, error)
	GetAll(ctx context.Context, sessionKey string) (map[string]string, error)
	Set(ctx context.Context, sessionKey string, values map[string]string) error
	Delete(ctx context.Context, sessionKey string, fields ...string) error
}

type statsInvalidator interface {
	Invalidate(ctx context.Context, surveyID string)
}

type SurveyService struct {
	Surveys   surveyStore
	Responses responseWriter
	Questions questionFinder
	Sessions  sessionStore
	Stats     statsInvalidator
	Now       func() time.Time
}

func NewSurveyService(surveys surveyStore, responses responseWriter, questions questionFinder, sessions sessionStore, stats statsInvalidator) *SurveyService {
	return &SurveyService{
		Surveys:   surveys,
		Responses: responses,
		Questions: questions,
		Sessions:  sessions,
		Stats:     stats,
		Now:       time.Now,
	}
}

// SurveyRequest 创建或更新问卷
// swagger:model SurveyRequest
type SurveyRequest struct {
	Title          string     `json:"title" binding:"required,max=200"`
	Description    string     `json:"description"`
	IsActive       *bool      `json:"isActive"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	RequireWechat  bool       `json:"requireWechat"`
	AllowAnonymous *bool      `json:"allowAnonymous"`
	LimitPerUser   *int       `json:"limitPerUser" binding:"omitempty,min=0,max=100"`
}

// SurveyQuestionRequest 问卷题目关联，order 为空时追加到末尾
// swagger:model SurveyQuestionRequest
type SurveyQuestionRequest struct {
	QuestionID uint  `json:"questionId" binding:"required"`
	Order      *int  `json:"order" binding:"omitempty,min=0"`
	IsRequired *bool `json:"isRequired"`
	CategoryID *uint `json:"categoryId"`
}

// AnswerInput 单题答案
type AnswerInput struct {
	QuestionID   uint     `json:"question_id" binding:"required"`
	AnswerText   string   `json:"answer_text"`
	AnswerChoice []string `json:"answer_choice"`
}

// SubmitRequest JSON 提交
// swagger:model SubmitRequest
type SubmitRequest struct {
	Answers        []AnswerInput `json:"answers" binding:"required,dive"`
	WechatOpenID   string        `json:"wechat_openid" binding:"max=100"`
	WechatUnionID  string        `json:"wechat_unionid" binding:"max=100"`
	WechatNickname string        `json:"wechat_nickname" binding:"max=100"`
	CompletionTime *int          `json:"completion_time"`
}

type OptionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type CategoryView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type SurveyQuestionView struct {
	ID           uint               `json:"id"`
	QuestionID   uint               `json:"question_id"`
	Text         string             `json:"text"`
	QuestionType model.QuestionType `json:"question_type"`
	TypeLabel    string             `json:"type_label"`
	IsRequired   bool               `json:"is_required"`
	Order        int                `json:"order"`
	Category     *CategoryView      `json:"category,omitempty"`
	Options      []OptionView       `json:"options"`
}

// SurveyDetail 答题页数据
type SurveyDetail struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	StartDate      *time.Time           `json:"start_date,omitempty"`
	EndDate        *time.Time           `json:"end_date,omitempty"`
	RequireWechat  bool                 `json:"require_wechat"`
	AllowAnonymous bool                 `json:"allow_anonymous"`
	LimitPerUser   int                  `json:"limit_per_user"`
	Questions      []SurveyQuestionView `json:"questions"`
	Categories     []CategoryView       `json:"categories"`
	IsWechat       bool                 `json:"is_wechat"`
}

func (s *SurveyService) findWithQuestions(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.Surveys.FindWithQuestions(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	return survey, err
}

// ListOpen 已启用且在开放时间内的问卷
func (s *SurveyService) ListOpen(ctx context.Context) ([]model.Survey, error) {
	return s.Surveys.ListOpen(ctx, s.Now())
}

// Detail 返回答题页数据，并在会话中记录开始答题时间
func (s *SurveyService) Detail(ctx context.Context, id string, req Requester) (*SurveyDetail, error) {
	survey, err := s.findWithQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if reason := CheckWindow(survey, now); reason != AdmissionOK {
		return nil, &AdmissionError{Reason: reason, StartDate: survey.StartDate, EndDate: survey.EndDate}
	}

	if req.SessionKey != "" {
		start := map[string]string{util.SessionSurveyStart + survey.ID: strconv.FormatInt(now.Unix(), 10)}
		if err := s.Sessions.Set(ctx, req.SessionKey, start); err != nil {
			logger.Log.Warn("记录答题开始时间失败", zap.String("surveyId", survey.ID), zap.Error(err))
		}
	}
	return buildSurveyDetail(survey, req.IsWeChat()), nil
}

func buildSurveyDetail(survey *model.Survey, isWechat bool) *SurveyDetail {
	detail := &SurveyDetail{
		ID:             survey.ID,
		Title:          survey.Title,
		Description:    survey.Description,
		StartDate:      survey.StartDate,
		EndDate:        survey.EndDate,
		RequireWechat:  survey.RequireWechat,
		AllowAnonymous: survey.AllowAnonymous,
		LimitPerUser:   survey.LimitPerUser,
		Questions:      make([]SurveyQuestionView, 0, len(survey.SurveyQuestions)),
		Categories:     []CategoryView{},
		IsWechat:       isWechat,
	}
	for _, sq := range survey.SurveyQuestions {
		if sq.Question == nil {
			continue
		}
		view := SurveyQuestionView{
			ID:           sq.ID,
			QuestionID:   sq.QuestionID,
			Text:         sq.Question.Text,
			QuestionType: sq.Question.QuestionType,
			TypeLabel:    sq.Question.QuestionType.Label(),
			IsRequired:   sq.IsRequired,
			Order:        sq.Order,
			Options: lo.Map(sq.Question.Options, func(o model.Option, _ int) OptionView {
				return OptionView{Value: o.Value, Label: o.Label}
			}),
		}
		if c := sq.DisplayCategory(); c != nil {
			view.Category = &CategoryView{ID: c.ID, Name: c.Name}
			detail.Categories = append(detail.Categories, *view.Category)
		}
		detail.Questions = append(detail.Questions, view)
	}
	detail.Categories = lo.UniqBy(detail.Categories, func(c CategoryView) uint { return c.ID })
	return detail
}

// FormAnswers 表单字段 question_{问卷题目ID} 转为答案
func FormAnswers(survey *model.Survey, form url.Values) []AnswerInput {
	var answers []AnswerInput
	for _, sq := range survey.SurveyQuestions {
		if sq.Question == nil {
			continue
		}
		values := lo.Filter(form[fmt.Sprintf("question_%d", sq.ID)], func(v string, _ int) bool {
			return strings.TrimSpace(v) != ""
		})
		if len(values) == 0 {
			continue
		}
		a := AnswerInput{QuestionID: sq.QuestionID}
		switch sq.Question.QuestionType {
		case model.QuestionSingleChoice, model.QuestionRating:
			a.AnswerChoice = values[:1]
		case model.QuestionMultipleChoice:
			a.AnswerChoice = values
		default:
			a.AnswerText = values[0]
		}
		answers = append(answers, a)
	}
	return answers
}

// SubmitForm 页面表单提交，完成时间取自会话
func (s *SurveyService) SubmitForm(ctx context.Context, surveyID string, req Requester, form url.Values) (*model.Response, error) {
	survey, err := s.findWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, survey, req, SubmitRequest{Answers: FormAnswers(survey, form)})
}

// SubmitJSON 接口提交
func (s *SurveyService) SubmitJSON(ctx context.Context, surveyID string, req Requester, input SubmitRequest) (*model.Response, error) {
	survey, err := s.findWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, survey, req, input)
}

func (s *SurveyService) submit(ctx context.Context, survey *model.Survey, req Requester, input SubmitRequest) (*model.Response, error) {
	now := s.Now()

	session := map[string]string{}
	if req.SessionKey != "" {
		if all, err := s.Sessions.GetAll(ctx, req.SessionKey); err != nil {
			logger.Log.Warn("读取会话失败", zap.Error(err))
		} else {
			session = all
		}
	}

	// 微信身份：请求体优先，微信内打开时取授权后写入会话的信息
	if input.WechatOpenID == "" && req.IsWeChat() {
		input.WechatOpenID = session[util.SessionWechatOpenID]
		input.WechatUnionID = session[util.SessionWechatUnion]
		input.WechatNickname = session[util.SessionWechatName]
	}
	req.OpenID = input.WechatOpenID

	prior, err := s.Responses.CountByRespondent(ctx, survey.ID, req.RespondentKey())
	if err != nil {
		return nil, err
	}
	if reason := CheckAdmission(survey, req, now, prior); reason != AdmissionOK {
		monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
		return nil, &AdmissionError{Reason: reason}
	}
	if !survey.AllowAnonymous && !req.Identified() {
		monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
		return nil, &AdmissionError{Reason: AdmissionLoginRequired}
	}

	answers, err := ValidateAnswers(survey, input.Answers)
	if err != nil {
		monitoring.SubmissionCounter.WithLabelValues("invalid").Inc()
		return nil, err
	}

	completion, err := completionSeconds(input.CompletionTime, session[util.SessionSurveyStart+survey.ID], now)
	if err != nil {
		monitoring.SubmissionCounter.WithLabelValues("invalid").Inc()
		return nil, err
	}

	resp := &model.Response{
		SurveyID:       survey.ID,
		RespondentID:   req.UserID,
		SessionKey:     req.SessionKey,
		RespondentKey:  req.RespondentKey(),
		WechatOpenID:   input.WechatOpenID,
		WechatUnionID:  input.WechatUnionID,
		WechatNickname: input.WechatNickname,
		SubmitTime:     now,
		IPAddress:      req.IP,
		UserAgent:      req.UserAgent,
		CompletionTime: completion,
		Answers:        answers,
	}
	if err := s.Responses.CreateWithLimit(ctx, resp, survey.LimitPerUser); err != nil {
		if errors.Is(err, util.ErrSubmissionLimit) {
			monitoring.SubmissionCounter.WithLabelValues("rejected").Inc()
			return nil, &AdmissionError{Reason: AdmissionLimitReached}
		}
		return nil, err
	}
	monitoring.SubmissionCounter.WithLabelValues("accepted").Inc()

	if req.SessionKey != "" {
		if err := s.Sessions.Delete(ctx, req.SessionKey, util.SessionSurveyStart+survey.ID); err != nil {
			logger.Log.Debug("清除答题开始时间失败", zap.Error(err))
		}
	}
	if s.Stats != nil {
		s.Stats.Invalidate(ctx, survey.ID)
	}
	return resp, nil
}

func invalidAnswer(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", util.ErrInvalidAnswer, fmt.Sprintf(format, args...))
}

// ValidateAnswers 校验答案是否属于问卷、选项是否合法、必填题是否作答；任何一项不通过都不写入
func ValidateAnswers(survey *model.Survey, inputs []AnswerInput) ([]model.Answer, error) {
	questions := make(map[uint]*model.SurveyQuestion, len(survey.SurveyQuestions))
	for i := range survey.SurveyQuestions {
		sq := &survey.SurveyQuestions[i]
		if sq.Question != nil {
			questions[sq.QuestionID] = sq
		}
	}

	answers := make([]model.Answer, 0, len(inputs))
	seen := make(map[uint]bool, len(inputs))
	for _, in := range inputs {
		sq, ok := questions[in.QuestionID]
		if !ok {
			return nil, invalidAnswer("问题 %d 不属于该问卷", in.QuestionID)
		}
		if seen[in.QuestionID] {
			return nil, invalidAnswer("问题 %d 重复作答", in.QuestionID)
		}
		seen[in.QuestionID] = true

		q := sq.Question
		text := strings.TrimSpace(in.AnswerText)
		choices := lo.Filter(in.AnswerChoice, func(v string, _ int) bool { return v != "" })
		if text == "" && len(choices) == 0 {
			return nil, invalidAnswer("问题「%s」的答案为空", q.Text)
		}

		switch q.QuestionType {
		case model.QuestionSingleChoice, model.QuestionMultipleChoice:
			if len(choices) == 0 {
				return nil, invalidAnswer("问题「%s」需要选择选项", q.Text)
			}
			if q.QuestionType == model.QuestionSingleChoice && len(choices) > 1 {
				return nil, invalidAnswer("问题「%s」只能选择一项", q.Text)
			}
			for _, v := range choices {
				if !lo.ContainsBy(q.Options, func(o model.Option) bool { return o.Value == v }) {
					return nil, invalidAnswer("问题「%s」的选项 %s 不存在", q.Text, v)
				}
			}
			choices = lo.Uniq(choices)
		case model.QuestionRating:
			if len(choices) != 1 {
				return nil, invalidAnswer("问题「%s」需要选择一个评分", q.Text)
			}
			n, err := strconv.Atoi(choices[0])
			if err != nil || n < 1 || n > ratingMax || strconv.Itoa(n) != choices[0] {
				return nil, invalidAnswer("问题「%s」的评分必须为 1-%d", q.Text, ratingMax)
			}
		case model.QuestionDate:
			if len(choices) > 0 {
				return nil, invalidAnswer("问题「%s」不接受选项", q.Text)
			}
			if _, err := time.Parse(util.DateFormat, text); err != nil {
				return nil, invalidAnswer("问题「%s」的日期格式应为 YYYY-MM-DD", q.Text)
			}
		default:
			if len(choices) > 0 {
				return nil, invalidAnswer("问题「%s」不接受选项", q.Text)
			}
		}

		if len(choices) == 0 {
			choices = nil
		}
		answers = append(answers, model.Answer{
			QuestionID:   in.QuestionID,
			AnswerText:   text,
			AnswerChoice: choices,
		})
	}

	for _, sq := range survey.SurveyQuestions {
		if sq.IsRequired && sq.Question != nil && !seen[sq.QuestionID] {
			return nil, fmt.Errorf("%w: %s", util.ErrRequiredQuestion, sq.Question.Text)
		}
	}
	return answers, nil
}

// completionSeconds 请求中给出时必须在 [0, 86400]；否则按会话中的开始时间计算并截断到该区间
func completionSeconds(given *int, sessionStart string, now time.Time) (int, error) {
	if given != nil {
		if *given < 0 || *given > model.MaxCompletionSeconds {
			return 0, invalidAnswer("完成时间必须在 0-%d 秒之间", model.MaxCompletionSeconds)
		}
		return *given, nil
	}
	start, err := strconv.ParseInt(sessionStart, 10, 64)
	if err != nil || start <= 0 {
		return 0, nil
	}
	elapsed := now.Unix() - start
	if elapsed < 0 {
		return 0, nil
	}
	if elapsed > model.MaxCompletionSeconds {
		return model.MaxCompletionSeconds, nil
	}
	return int(elapsed), nil
}

func (s *SurveyService) List(ctx context.Context, keyword string, page, limit int) ([]model.Survey, int64, error) {
	return s.Surveys.List(ctx, keyword, page, limit)
}

func (s *SurveyService) Get(ctx context.Context, id string) (*model.Survey, error) {
	return s.findWithQuestions(ctx, id)
}

func applySurveyRequest(survey *model.Survey, req SurveyRequest) error {
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return invalidAnswer("结束时间不能早于开始时间")
	}
	survey.Title = strings.TrimSpace(req.Title)
	survey.Description = req.Description
	survey.StartDate = req.StartDate
	survey.EndDate = req.EndDate
	survey.RequireWechat = req.RequireWechat
	if req.IsActive != nil {
		survey.IsActive = *req.IsActive
	}
	if req.AllowAnonymous != nil {
		survey.AllowAnonymous = *req.AllowAnonymous
	}
	if req.LimitPerUser != nil {
		if *req.LimitPerUser < 0 || *req.LimitPerUser > model.MaxLimitPerUser {
			return invalidAnswer("每人提交次数必须在 0-%d 之间", model.MaxLimitPerUser)
		}
		survey.LimitPerUser = *req.LimitPerUser
	}
	return nil
}

// Create 新问卷默认启用、允许匿名、每人限提交一次
func (s *SurveyService) Create(ctx context.Context, req SurveyRequest, creatorID uint) (*model.Survey, error) {
	survey := &model.Survey{
		IsActive:       true,
		AllowAnonymous: true,
		LimitPerUser:   model.DefaultLimitPerUser,
	}
	if creatorID > 0 {
		survey.CreatedByID = &creatorID
	}
	if err := applySurveyRequest(survey, req); err != nil {
		return nil, err
	}
	if err := s.Surveys.Create(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

func (s *SurveyService) Update(ctx context.Context, id string, req SurveyRequest) (*model.Survey, error) {
	survey, err := s.Surveys.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := applySurveyRequest(survey, req); err != nil {
		return nil, err
	}
	if err := s.Surveys.Update(ctx, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

func (s *SurveyService) Delete(ctx context.Context, id string) error {
	err := s.Surveys.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrSurveyNotFound
	}
	return err
}

func (s *SurveyService) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	return s.Surveys.SetActive(ctx, ids, active)
}

// AddQuestion 把题库中的题目加入问卷
func (s *SurveyService) AddQuestion(ctx context.Context, surveyID string, req SurveyQuestionRequest) (*model.SurveyQuestion, error) {
	if _, err := s.Surveys.FindByID(ctx, surveyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSurveyNotFound
		}
		return nil, err
	}
	question, err := s.Questions.FindByID(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	sq := &model.SurveyQuestion{
		SurveyID:   surveyID,
		QuestionID: question.ID,
		IsRequired: req.IsRequired == nil || *req.IsRequired,
		CategoryID: req.CategoryID,
	}
	// 未指定分类时沿用题目自身的分类
	if sq.CategoryID == nil {
		sq.CategoryID = question.CategoryID
	}
	if req.Order != nil {
		sq.Order = *req.Order
	} else if sq.Order, err = s.Surveys.NextQuestionOrder(ctx, surveyID); err != nil {
		return nil, err
	}

	if err := s.Surveys.AddQuestion(ctx, sq); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrSurveyQuestionExists
		}
		return nil, err
	}
	sq.Question = question
	s.invalidate(ctx, surveyID)
	return sq, nil
}

func (s *SurveyService) UpdateQuestion(ctx context.Context, surveyID string, req SurveyQuestionRequest) (*model.SurveyQuestion, error) {
	sq, err := s.Surveys.FindSurveyQuestion(ctx, surveyID, req.QuestionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.Order != nil {
		sq.Order = *req.Order
	}
	if req.IsRequired != nil {
		sq.IsRequired = *req.IsRequired
	}
	if req.CategoryID != nil {
		sq.CategoryID = req.CategoryID
	} else {
		question, err := s.Questions.FindByID(ctx, sq.QuestionID)
		if err != nil {
			return nil, err
		}
		sq.CategoryID = question.CategoryID
	}
	if err := s.Surveys.UpdateSurveyQuestion(ctx, sq); err != nil {
		return nil, err
	}
	s.invalidate(ctx, surveyID)
	return sq, nil
}

func (s *SurveyService) RemoveQuestion(ctx context.Context, surveyID string, questionID uint) error {
	err := s.Surveys.RemoveQuestion(ctx, surveyID, questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrQuestionNotFound
	}
	if err == nil {
		s.invalidate(ctx, surveyID)
	}
	return err
}

func (s *SurveyService) invalidate(ctx context.Context, surveyID string) {
	if s.Stats != nil {
		s.Stats.Invalidate(ctx, surveyID)
	}
}
