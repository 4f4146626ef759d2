package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/logger"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	RPILevelLow    = "low"
	RPILevelMedium = "medium"
	RPILevelHigh   = "high"

	rpiMaxScore = 10
)

type rpiLevelText struct {
	Summary     string
	Analysis    string
	Suggestions string
}

var rpiLevelTexts = map[string]rpiLevelText{
	RPILevelLow: {
		Summary:     "您的关系占有欲指数较低，表现为对伴侣的信任度较高，给予对方充分的个人空间。",
		Analysis:    "您在关系中表现出较高的安全感和信任度，不会轻易怀疑伴侣。您尊重对方的个人边界，鼓励对方发展自己的兴趣爱好和社交圈。这种态度有助于维持健康、平等的伴侣关系。",
		Suggestions: "继续保持这种信任和尊重的态度。但也要注意不要过度忽视伴侣的情感需求，适时表达关心和在意。",
	},
	RPILevelMedium: {
		Summary:     "您的关系占有欲指数适中，既能表达对伴侣的关心，又能保持适当的距离。",
		Analysis:    "您在关系中保持着良好的平衡，既能表达对伴侣的关心和在意，又能理解对方需要个人空间。您会适度参与伴侣的生活，但不会过度干涉。这种态度有助于建立稳定、和谐的伴侣关系。",
		Suggestions: "继续维持这种平衡的态度。在表达关心的同时，注意倾听伴侣的想法和感受，共同维护健康的伴侣关系。",
	},
	RPILevelHigh: {
		Summary:     "您的关系占有欲指数较高，需要注意不要过度干涉伴侣的生活，给予对方足够的自由。",
		Analysis:    "您在关系中可能表现出较强的控制欲和占有欲，容易对伴侣的行为产生怀疑。您可能过度关注伴侣的行踪和社交圈，甚至限制对方的自由。这种态度可能会给伴侣带来压力，影响关系的健康发展。",
		Suggestions: "建议您反思自己的行为模式，尝试给予伴侣更多的信任和自由。学会尊重对方的个人边界，培养自己的兴趣爱好和社交圈，减少对伴侣的过度依赖。如果情况严重，建议寻求专业心理咨询帮助。",
	},
}

// RPILevel 总分 <30 为低，<60 为中，其余为高
func RPILevel(total int) string {
	switch {
	case total < 30:
		return RPILevelLow
	case total < 60:
		return RPILevelMedium
	default:
		return RPILevelHigh
	}
}

type rpiStore interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateCode(ctx context.Context, code string) error
	ListCodes(ctx context.Context, used *bool, page, limit int) ([]model.AuthorizationCode, int64, error)
	Redeem(ctx context.Context, code string, user *model.RPIUser) error
	FindUser(ctx context.Context, id uint) (*model.RPIUser, error)
	ListQuestions(ctx context.Context) ([]model.RPIQuestion, error)
	SaveResult(ctx context.Context, answers []model.RPIAnswer, result *model.RPITestResult) error
	FindResult(ctx context.Context, userID uint) (*model.RPITestResult, error)
	ListResults(ctx context.Context, page, limit int) ([]model.RPITestResult, int64, error)
}

type rpiSessionStore interface {
	Get(ctx context.Context, sessionKey, field string) (string, error)
	Set(ctx context.Context, sessionKey string, values map[string]string) error
	Delete(ctx context.Context, sessionKey string, fields ...string) error
}

// RPIService 关系占有欲测试
type RPIService struct {
	Store    rpiStore
	Sessions rpiSessionStore
	Tokens   *TokenGenerator
}

func NewRPIService(store rpiStore, sessions rpiSessionStore) *RPIService {
	return &RPIService{
		Store:    store,
		Sessions: sessions,
		Tokens:   NewTokenGenerator(AuthCodePolicy),
	}
}

// RPIAuthRequest 授权码验证及基本信息
// swagger:model RPIAuthRequest
type RPIAuthRequest struct {
	Code               string `json:"code"`
	Nickname           string `json:"nickname" binding:"max=50"`
	Gender             string `json:"gender" binding:"omitempty,oneof=male female other"`
	AgeRange           string `json:"age_range" binding:"omitempty,oneof=18-24 25-29 30-34 35-39 40-49 50+"`
	RelationshipStatus string `json:"relationship_status" binding:"omitempty,oneof=single in_relationship married divorced widowed"`
	TestType           string `json:"test_type" binding:"omitempty,oneof=self partner"`
}

// RPISubmitRequest 问题 id 到得分
// swagger:model RPISubmitRequest
type RPISubmitRequest struct {
	Answers map[string]int `json:"answers" binding:"required"`
}

// GenerateCodesRequest 批量生成授权码
// swagger:model GenerateCodesRequest
type GenerateCodesRequest struct {
	Number int    `json:"number" binding:"omitempty,min=1,max=1000"`
	Length int    `json:"length" binding:"omitempty,min=4,max=20"`
	Prefix string `json:"prefix" binding:"omitempty,alphanum,max=10"`
}

// Redeem 核销授权码，成功后把测试用户写入会话
func (s *RPIService) Redeem(ctx context.Context, sessionKey string, req RPIAuthRequest) (*model.RPIUser, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, util.ErrAuthCodeEmpty
	}
	user := &model.RPIUser{
		Nickname:           strings.TrimSpace(req.Nickname),
		Gender:             req.Gender,
		AgeRange:           req.AgeRange,
		RelationshipStatus: req.RelationshipStatus,
		TestType:           lo.Ternary(req.TestType == "", "self", req.TestType),
	}
	if err := s.Store.Redeem(ctx, code, user); err != nil {
		return nil, err
	}
	err := s.Sessions.Set(ctx, sessionKey, map[string]string{
		util.SessionRPIUserID: strconv.FormatUint(uint64(user.ID), 10),
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info("RPI 授权码已使用", zap.String("code", code), zap.Uint("userID", user.ID))
	return user, nil
}

// CurrentUser 从会话读取测试用户
func (s *RPIService) CurrentUser(ctx context.Context, sessionKey string) (*model.RPIUser, error) {
	raw, err := s.Sessions.Get(ctx, sessionKey, util.SessionRPIUserID)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, util.ErrRPISessionEmpty
	}
	user, err := s.Store.FindUser(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrRPISessionEmpty
	}
	return user, err
}

func (s *RPIService) Questions(ctx context.Context, sessionKey string) ([]model.RPIQuestion, error) {
	if _, err := s.CurrentUser(ctx, sessionKey); err != nil {
		return nil, err
	}
	return s.Store.ListQuestions(ctx)
}

// Submit 所有问题都必须作答，每题 0-10 分
func (s *RPIService) Submit(ctx context.Context, sessionKey string, req RPISubmitRequest) (*model.RPITestResult, error) {
	user, err := s.CurrentUser(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	questions, err := s.Store.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	answers := make([]model.RPIAnswer, 0, len(questions))
	for _, q := range questions {
		score, ok := req.Answers[strconv.FormatUint(uint64(q.ID), 10)]
		if !ok {
			return nil, util.ErrRPIIncomplete
		}
		if score < 0 || score > rpiMaxScore {
			return nil, fmt.Errorf("%w: 第%d题", util.ErrRPIScoreRange, q.QuestionOrder)
		}
		total += score
		answers = append(answers, model.RPIAnswer{
			UserID:     user.ID,
			QuestionID: q.ID,
			Score:      score,
			AnswerText: fmt.Sprintf("得分：%d", score),
		})
	}

	level := RPILevel(total)
	text := rpiLevelTexts[level]
	result := &model.RPITestResult{
		UserID:           user.ID,
		TotalScore:       total,
		ScoreLevel:       level,
		Summary:          text.Summary,
		DetailedAnalysis: text.Analysis,
		Suggestions:      text.Suggestions,
	}
	if err := s.Store.SaveResult(ctx, answers, result); err != nil {
		return nil, err
	}
	result.User = user
	return result, nil
}

func (s *RPIService) Result(ctx context.Context, sessionKey string) (*model.RPITestResult, error) {
	user, err := s.CurrentUser(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	res, err := s.Store.FindResult(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrRPIResultAbsent
	}
	return res, err
}

// Reset 清除会话中的测试用户
func (s *RPIService) Reset(ctx context.Context, sessionKey string) error {
	return s.Sessions.Delete(ctx, sessionKey, util.SessionRPIUserID)
}

// GenerateCodes 批量生成授权码，数量默认 10，长度默认 8
func (s *RPIService) GenerateCodes(ctx context.Context, req GenerateCodesRequest) (*BatchResult, error) {
	number := lo.Ternary(req.Number <= 0, 10, req.Number)
	policy := AuthCodePolicy
	if req.Length > 0 {
		policy.Length = req.Length
	}
	policy.Prefix = strings.ToUpper(strings.TrimSpace(req.Prefix))
	if policy.Length <= len(policy.Prefix) {
		return nil, util.ErrAuthCodeLength
	}

	gen := &TokenGenerator{Policy: policy, Rand: s.Tokens.Rand}
	res, err := gen.GenerateBatch(ctx, number, s.Store.CodeExists, s.Store.CreateCode)
	if res != nil {
		logger.Log.Info("生成授权码",
			zap.Int("requested", number),
			zap.Int("created", len(res.Codes)),
			zap.Int("duplicates", res.Duplicates))
	}
	return res, err
}

func (s *RPIService) ListCodes(ctx context.Context, used *bool, page, limit int) ([]model.AuthorizationCode, int64, error) {
	return s.Store.ListCodes(ctx, used, page, limit)
}

func (s *RPIService) ListResults(ctx context.Context, page, limit int) ([]model.RPITestResult, int64, error) {
	return s.Store.ListResults(ctx, page, limit)
}
