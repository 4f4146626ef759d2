package repository

import (
	"context"
	"errors"
	"testing"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/database/dbtest"

	"gorm.io/gorm"
)

func createSurvey(t *testing.T, db *gorm.DB, limit int) *model.Survey {
	t.Helper()
	s := &model.Survey{Title: "满意度调查", IsActive: true, AllowAnonymous: true, LimitPerUser: limit}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return s
}

func newResponse(surveyID, respondentKey string) *model.Response {
	return &model.Response{
		SurveyID:      surveyID,
		RespondentKey: respondentKey,
		SubmitTime:    time.Now(),
	}
}

func TestCreateWithLimitRefusesSameRespondent(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := NewResponseRepository(db)
	ctx := context.Background()
	s := createSurvey(t, db, 1)

	if err := repo.CreateWithLimit(ctx, newResponse(s.ID, "session:a"), 1); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	err := repo.CreateWithLimit(ctx, newResponse(s.ID, "session:a"), 1)
	if !errors.Is(err, util.ErrSubmissionLimit) {
		t.Fatalf("second submission err = %v, want ErrSubmissionLimit", err)
	}
	if err := repo.CreateWithLimit(ctx, newResponse(s.ID, "session:b"), 1); err != nil {
		t.Fatalf("other respondent: %v", err)
	}

	count, err := repo.CountBySurvey(ctx, s.ID)
	if err != nil || count != 2 {
		t.Fatalf("count = %d, %v; want 2", count, err)
	}
}

func TestCreateWithLimitAssignsSequence(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := NewResponseRepository(db)
	ctx := context.Background()
	s := createSurvey(t, db, 3)

	for i := 1; i <= 3; i++ {
		resp := newResponse(s.ID, "user:1")
		if err := repo.CreateWithLimit(ctx, resp, 3); err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
		if resp.SubmissionSeq != i {
			t.Fatalf("submission %d seq = %d", i, resp.SubmissionSeq)
		}
	}
	if err := repo.CreateWithLimit(ctx, newResponse(s.ID, "user:1"), 3); !errors.Is(err, util.ErrSubmissionLimit) {
		t.Fatalf("fourth submission err = %v, want ErrSubmissionLimit", err)
	}
	// 不限次数
	if err := repo.CreateWithLimit(ctx, newResponse(s.ID, "user:1"), 0); err != nil {
		t.Fatalf("unlimited submission: %v", err)
	}
}

func TestCreateWithLimitStoresAnswers(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := NewResponseRepository(db)
	ctx := context.Background()
	s := createSurvey(t, db, 1)

	q := &model.Question{Text: "您最喜欢的颜色", QuestionType: model.QuestionSingleChoice,
		Options: []model.Option{{Value: "red", Label: "红"}, {Value: "blue", Label: "蓝"}}}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}

	resp := newResponse(s.ID, "session:x")
	resp.Answers = []model.Answer{{QuestionID: q.ID, AnswerChoice: []string{"blue"}}}
	if err := repo.CreateWithLimit(ctx, resp, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	answers, err := repo.AnswersBySurvey(ctx, s.ID)
	if err != nil {
		t.Fatalf("AnswersBySurvey: %v", err)
	}
	if len(answers) != 1 || len(answers[0].AnswerChoice) != 1 || answers[0].AnswerChoice[0] != "blue" {
		t.Fatalf("answers = %+v", answers)
	}

	loaded, err := repo.FindByID(ctx, resp.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got := loaded.Answers[0].Display(loaded.Answers[0].Question); got != "蓝" {
		t.Fatalf("display = %q, want 蓝", got)
	}
}

func TestIncrementScanIsCumulative(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := NewQRCodeRepository(db)
	ctx := context.Background()
	s := createSurvey(t, db, 1)

	if err := repo.Create(ctx, &model.QRCode{ShortCode: "abcd1234", SurveyID: s.ID, Name: "海报"}); err != nil {
		t.Fatalf("create qrcode: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := repo.IncrementScan(ctx, "abcd1234"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	q, err := repo.FindByCode(ctx, "abcd1234")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if q.ScanCount != 5 {
		t.Fatalf("scan_count = %d, want 5", q.ScanCount)
	}
	if err := repo.IncrementScan(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing code err = %v, want ErrRecordNotFound", err)
	}
}

func TestRedeemAuthorizationCode(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := NewRPIRepository(db)
	ctx := context.Background()

	if err := repo.CreateCode(ctx, "ABCD2345"); err != nil {
		t.Fatalf("create code: %v", err)
	}
	user := &model.RPIUser{Nickname: "小王"}
	if err := repo.Redeem(ctx, "ABCD2345", user); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if user.ID == 0 || user.AuthorizationCode != "ABCD2345" {
		t.Fatalf("user = %+v", user)
	}
	if err := repo.Redeem(ctx, "ABCD2345", &model.RPIUser{}); !errors.Is(err, util.ErrAuthCodeUsed) {
		t.Fatalf("second redeem err = %v, want ErrAuthCodeUsed", err)
	}
	if err := repo.Redeem(ctx, "ZZZZ9999", &model.RPIUser{}); !errors.Is(err, util.ErrAuthCodeInvalid) {
		t.Fatalf("unknown redeem err = %v, want ErrAuthCodeInvalid", err)
	}
}

func TestSaveResultOnlyOnce(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := NewRPIRepository(db)
	ctx := context.Background()

	questions, err := repo.ListQuestions(ctx)
	if err != nil || len(questions) != 10 {
		t.Fatalf("seeded questions = %d, %v; want 10", len(questions), err)
	}

	user := &model.RPIUser{AuthorizationCode: "CODE0001"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	answers := []model.RPIAnswer{{UserID: user.ID, QuestionID: questions[0].ID, Score: 3, AnswerText: "得分：3"}}
	if err := repo.SaveResult(ctx, answers, &model.RPITestResult{UserID: user.ID, TotalScore: 3, ScoreLevel: "low"}); err != nil {
		t.Fatalf("save result: %v", err)
	}
	again := []model.RPIAnswer{{UserID: user.ID, QuestionID: questions[1].ID, Score: 3}}
	if err := repo.SaveResult(ctx, again, &model.RPITestResult{UserID: user.ID}); !errors.Is(err, util.ErrRPIAlreadyDone) {
		t.Fatalf("second save err = %v, want ErrRPIAlreadyDone", err)
	}
}

func TestCreateImportedReusesCategory(t *testing.T) {
	db := dbtest.NewTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	for _, text := range []string{"问题一", "问题二"} {
		q := &model.Question{Text: text, QuestionType: model.QuestionText}
		if err := repo.CreateImported(ctx, q, "基本信息"); err != nil {
			t.Fatalf("CreateImported: %v", err)
		}
		if q.CategoryID == nil {
			t.Fatalf("question %q has no category", text)
		}
	}

	var categories []model.Category
	db.Find(&categories)
	if len(categories) != 1 || categories[0].Slug != "基本信息" || !categories[0].IsActive {
		t.Fatalf("categories = %+v", categories)
	}

	list, err := NewCategoryRepository(db).List(ctx, false)
	if err != nil || len(list) != 1 || list[0].QuestionCount != 2 {
		t.Fatalf("category list = %+v, %v", list, err)
	}
}

func TestDeleteSurveyRemovesChildren(t *testing.T) {
	db := dbtest.NewTestDB(t)
	ctx := context.Background()
	s := createSurvey(t, db, 1)

	q := &model.Question{Text: "备注", QuestionType: model.QuestionText}
	db.Create(q)
	db.Create(&model.SurveyQuestion{SurveyID: s.ID, QuestionID: q.ID, IsRequired: true})
	resp := newResponse(s.ID, "session:z")
	resp.Answers = []model.Answer{{QuestionID: q.ID, AnswerText: "无"}}
	if err := NewResponseRepository(db).CreateWithLimit(ctx, resp, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := NewSurveyRepository(db).Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete survey: %v", err)
	}
	var answers, responses int64
	db.Model(&model.Answer{}).Count(&answers)
	db.Model(&model.Response{}).Count(&responses)
	if answers != 0 || responses != 0 {
		t.Fatalf("answers=%d responses=%d after delete", answers, responses)
	}
	// 题目本身保留
	if _, err := NewQuestionRepository(db).FindByID(ctx, q.ID); err != nil {
		t.Fatalf("question should remain: %v", err)
	}
}
