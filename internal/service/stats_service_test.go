package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/repository"
	"wechat_survey_backend/pkg/database/dbtest"

	"gorm.io/gorm"
)

func seedColorSurvey(t *testing.T, db *gorm.DB) (*model.Survey, *model.Question) {
	t.Helper()
	ctx := context.Background()
	surveys := repository.NewSurveyRepository(db)
	s := &model.Survey{Title: "颜色偏好", IsActive: true, AllowAnonymous: true}
	if err := surveys.Create(ctx, s); err != nil {
		t.Fatalf("create survey: %v", err)
	}
	q := &model.Question{Text: "您最喜欢的颜色", QuestionType: model.QuestionSingleChoice,
		Options: []model.Option{{Value: "red", Label: "红", Order: 1}, {Value: "blue", Label: "蓝", Order: 2}}}
	if err := repository.NewQuestionRepository(db).Create(ctx, q); err != nil {
		t.Fatalf("create question: %v", err)
	}
	if err := surveys.AddQuestion(ctx, &model.SurveyQuestion{SurveyID: s.ID, QuestionID: q.ID, Order: 1, IsRequired: true}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	return s, q
}

func submitChoice(t *testing.T, responses *repository.ResponseRepository, surveyID, key string, questionID uint, value string) {
	t.Helper()
	resp := &model.Response{
		SurveyID:      surveyID,
		RespondentKey: key,
		SubmitTime:    time.Now(),
		Answers:       []model.Answer{{QuestionID: questionID, AnswerChoice: []string{value}}},
	}
	if err := responses.CreateWithLimit(context.Background(), resp, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func optionCounts(stats *SurveyStatistics) map[string]int {
	out := map[string]int{}
	for _, o := range stats.Questions[0].Options {
		out[o.Value] = o.Count
	}
	return out
}

func TestStatsServiceCachesUntilInvalidated(t *testing.T) {
	db := dbtest.NewTestDB(t)
	ctx := context.Background()
	responses := repository.NewResponseRepository(db)
	s, q := seedColorSurvey(t, db)

	svc, err := NewStatsService(repository.NewSurveyRepository(db), responses, time.Minute)
	if err != nil {
		t.Fatalf("NewStatsService: %v", err)
	}

	submitChoice(t, responses, s.ID, "session:a", q.ID, "blue")
	first, err := svc.SurveyStatistics(ctx, s.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if first.Survey.TotalResponses != 1 || len(first.Questions) != 1 {
		t.Fatalf("stats = %+v", first)
	}
	if got := optionCounts(first); got["blue"] != 1 || got["red"] != 0 {
		t.Fatalf("option counts = %v", got)
	}

	// 未清除缓存前新答卷不可见
	submitChoice(t, responses, s.ID, "session:b", q.ID, "red")
	cached, err := svc.SurveyStatistics(ctx, s.ID)
	if err != nil {
		t.Fatalf("cached statistics: %v", err)
	}
	if cached.Survey.TotalResponses != 1 {
		t.Fatalf("cached total = %d, want 1", cached.Survey.TotalResponses)
	}

	svc.Invalidate(ctx, s.ID)
	fresh, err := svc.SurveyStatistics(ctx, s.ID)
	if err != nil {
		t.Fatalf("fresh statistics: %v", err)
	}
	if fresh.Survey.TotalResponses != 2 {
		t.Fatalf("total after invalidate = %d, want 2", fresh.Survey.TotalResponses)
	}
	if got := optionCounts(fresh); got["blue"] != 1 || got["red"] != 1 {
		t.Fatalf("option counts after invalidate = %v", got)
	}
}

func TestStatsServiceCachedMatchesUncached(t *testing.T) {
	db := dbtest.NewTestDB(t)
	ctx := context.Background()
	responses := repository.NewResponseRepository(db)
	s, q := seedColorSurvey(t, db)
	submitChoice(t, responses, s.ID, "session:a", q.ID, "blue")
	submitChoice(t, responses, s.ID, "session:b", q.ID, "blue")
	submitChoice(t, responses, s.ID, "session:c", q.ID, "red")

	surveys := repository.NewSurveyRepository(db)
	cachedSvc, err := NewStatsService(surveys, responses, time.Minute)
	if err != nil {
		t.Fatalf("NewStatsService: %v", err)
	}
	plainSvc, err := NewStatsService(surveys, responses, 0)
	if err != nil {
		t.Fatalf("NewStatsService: %v", err)
	}

	if _, err := cachedSvc.SurveyStatistics(ctx, s.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	hit, err := cachedSvc.SurveyStatistics(ctx, s.ID)
	if err != nil {
		t.Fatalf("cached statistics: %v", err)
	}
	direct, err := plainSvc.SurveyStatistics(ctx, s.ID)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}

	a, _ := json.Marshal(hit)
	b, _ := json.Marshal(direct)
	if string(a) != string(b) {
		t.Fatalf("cached = %s\nuncached = %s", a, b)
	}
}

func TestStatsServiceUnknownSurvey(t *testing.T) {
	db := dbtest.NewTestDB(t)
	svc, err := NewStatsService(repository.NewSurveyRepository(db), repository.NewResponseRepository(db), time.Minute)
	if err != nil {
		t.Fatalf("NewStatsService: %v", err)
	}
	if _, err := svc.SurveyStatistics(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown survey")
	}
}
