package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/logger"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type statsSurveyStore interface {
	FindWithQuestions(ctx context.Context, id string) (*model.Survey, error)
}

type statsResponseStore interface {
	CountBySurvey(ctx context.Context, surveyID string) (int64, error)
	AnswersBySurvey(ctx context.Context, surveyID string) ([]model.Answer, error)
}

type SurveySummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	TotalResponses int64  `json:"totalResponses"`
}

// SurveyStatistics 问卷统计，题目按问卷内顺序排列
type SurveyStatistics struct {
	Survey    SurveySummary   `json:"survey"`
	Questions []QuestionStats `json:"questions"`
}

type StatsService struct {
	Surveys   statsSurveyStore
	Responses statsResponseStore
	TTL       time.Duration
	cache     *marshaler.Marshaler
}

// NewStatsService ttl <= 0 时不缓存
func NewStatsService(surveys statsSurveyStore, responses statsResponseStore, ttl time.Duration) (*StatsService, error) {
	s := &StatsService{Surveys: surveys, Responses: responses, TTL: ttl}
	if ttl <= 0 {
		return s, nil
	}
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init stats cache: %w", err)
	}
	cacheManager := cache.New[any](ristretto_store.NewRistretto(client))
	s.cache = marshaler.New(cacheManager)
	return s, nil
}

func statsCacheKey(surveyID string) string {
	return "survey-statistics#" + surveyID
}

func (s *StatsService) SurveyStatistics(ctx context.Context, surveyID string) (*SurveyStatistics, error) {
	key := statsCacheKey(surveyID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key, new(SurveyStatistics)); err == nil {
			return cached.(*SurveyStatistics), nil
		}
	}

	survey, err := s.Surveys.FindWithQuestions(ctx, surveyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	total, err := s.Responses.CountBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Responses.AnswersBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uint][]model.Answer)
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	result := &SurveyStatistics{
		Survey:    SurveySummary{ID: survey.ID, Title: survey.Title, TotalResponses: total},
		Questions: make([]QuestionStats, 0, len(survey.SurveyQuestions)),
	}
	for _, sq := range survey.SurveyQuestions {
		if sq.Question == nil {
			continue
		}
		result.Questions = append(result.Questions, AggregateQuestion(sq.Question, sq.Question.Options, byQuestion[sq.QuestionID]))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, store.WithExpiration(s.TTL), store.WithSynchronousSet()); err != nil {
			logger.Log.Warn("缓存统计结果失败", zap.String("surveyId", surveyID), zap.Error(err))
		}
	}
	return result, nil
}

// Invalidate 有新答卷提交后清除缓存
func (s *StatsService) Invalidate(ctx context.Context, surveyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(surveyID)); err != nil {
		logger.Log.Debug("清除统计缓存失败", zap.String("surveyId", surveyID), zap.Error(err))
	}
}
