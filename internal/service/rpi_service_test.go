package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"

	"gorm.io/gorm"
)

type memRPI struct {
	codes   map[string]bool
	users   map[uint]*model.RPIUser
	results map[uint]*model.RPITestResult
	answers []model.RPIAnswer
	nextID  uint
}

func newMemRPI(codes ...string) *memRPI {
	m := &memRPI{codes: map[string]bool{}, users: map[uint]*model.RPIUser{}, results: map[uint]*model.RPITestResult{}}
	for _, c := range codes {
		m.codes[c] = false
	}
	return m
}

func (m *memRPI) CodeExists(_ context.Context, code string) (bool, error) {
	_, ok := m.codes[strings.ToUpper(code)]
	return ok, nil
}

func (m *memRPI) CreateCode(_ context.Context, code string) error {
	if _, ok := m.codes[code]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.codes[code] = false
	return nil
}

func (m *memRPI) ListCodes(context.Context, *bool, int, int) ([]model.AuthorizationCode, int64, error) {
	return nil, int64(len(m.codes)), nil
}

func (m *memRPI) Redeem(_ context.Context, code string, user *model.RPIUser) error {
	used, ok := m.codes[code]
	if !ok {
		return util.ErrAuthCodeInvalid
	}
	if used {
		return util.ErrAuthCodeUsed
	}
	m.codes[code] = true
	m.nextID++
	user.ID = m.nextID
	user.AuthorizationCode = code
	m.users[user.ID] = user
	return nil
}

func (m *memRPI) FindUser(_ context.Context, id uint) (*model.RPIUser, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *memRPI) ListQuestions(context.Context) ([]model.RPIQuestion, error) {
	qs := make([]model.RPIQuestion, 10)
	for i := range qs {
		qs[i].ID = uint(i + 1)
		qs[i].QuestionOrder = i + 1
	}
	return qs, nil
}

func (m *memRPI) SaveResult(_ context.Context, answers []model.RPIAnswer, result *model.RPITestResult) error {
	if _, ok := m.results[result.UserID]; ok {
		return util.ErrRPIAlreadyDone
	}
	m.answers = append(m.answers, answers...)
	m.results[result.UserID] = result
	return nil
}

func (m *memRPI) FindResult(_ context.Context, userID uint) (*model.RPITestResult, error) {
	r, ok := m.results[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (m *memRPI) ListResults(context.Context, int, int) ([]model.RPITestResult, int64, error) {
	return nil, int64(len(m.results)), nil
}

func allScores(score int) map[string]int {
	out := map[string]int{}
	for i := 1; i <= 10; i++ {
		out[strconv.Itoa(i)] = score
	}
	return out
}

func TestRPILevel(t *testing.T) {
	cases := map[int]string{0: RPILevelLow, 29: RPILevelLow, 30: RPILevelMedium, 59: RPILevelMedium, 60: RPILevelHigh, 100: RPILevelHigh}
	for total, want := range cases {
		if got := RPILevel(total); got != want {
			t.Fatalf("RPILevel(%d) = %s, want %s", total, got, want)
		}
	}
}

func TestRPIRedeemFlow(t *testing.T) {
	store := newMemRPI("ABCD1234")
	sessions := newStubSessions()
	svc := NewRPIService(store, sessions)
	ctx := context.Background()

	if _, err := svc.Redeem(ctx, "s1", RPIAuthRequest{Code: "   "}); !errors.Is(err, util.ErrAuthCodeEmpty) {
		t.Fatalf("err = %v, want ErrAuthCodeEmpty", err)
	}
	if _, err := svc.Redeem(ctx, "s1", RPIAuthRequest{Code: "nope"}); !errors.Is(err, util.ErrAuthCodeInvalid) {
		t.Fatalf("err = %v, want ErrAuthCodeInvalid", err)
	}
	if _, err := svc.Questions(ctx, "s1"); !errors.Is(err, util.ErrRPISessionEmpty) {
		t.Fatalf("err = %v, want ErrRPISessionEmpty", err)
	}

	user, err := svc.Redeem(ctx, "s1", RPIAuthRequest{Code: " abcd1234 ", Nickname: "阿明"})
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if user.TestType != "self" || sessions.data["s1"][util.SessionRPIUserID] != "1" {
		t.Fatalf("user = %+v, session = %v", user, sessions.data["s1"])
	}
	if _, err := svc.Redeem(ctx, "s2", RPIAuthRequest{Code: "ABCD1234"}); !errors.Is(err, util.ErrAuthCodeUsed) {
		t.Fatalf("err = %v, want ErrAuthCodeUsed", err)
	}
	qs, err := svc.Questions(ctx, "s1")
	if err != nil || len(qs) != 10 {
		t.Fatalf("Questions = %d, %v", len(qs), err)
	}

	if err := svc.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := svc.Result(ctx, "s1"); !errors.Is(err, util.ErrRPISessionEmpty) {
		t.Fatalf("err = %v, want ErrRPISessionEmpty", err)
	}
}

func TestRPISubmit(t *testing.T) {
	store := newMemRPI("CODE0001")
	svc := NewRPIService(store, newStubSessions())
	ctx := context.Background()
	if _, err := svc.Redeem(ctx, "s", RPIAuthRequest{Code: "CODE0001"}); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	partial := allScores(5)
	delete(partial, "7")
	if _, err := svc.Submit(ctx, "s", RPISubmitRequest{Answers: partial}); !errors.Is(err, util.ErrRPIIncomplete) {
		t.Fatalf("err = %v, want ErrRPIIncomplete", err)
	}
	bad := allScores(5)
	bad["3"] = 11
	if _, err := svc.Submit(ctx, "s", RPISubmitRequest{Answers: bad}); !errors.Is(err, util.ErrRPIScoreRange) {
		t.Fatalf("err = %v, want ErrRPIScoreRange", err)
	}
	if _, err := svc.Result(ctx, "s"); !errors.Is(err, util.ErrRPIResultAbsent) {
		t.Fatalf("err = %v, want ErrRPIResultAbsent", err)
	}

	res, err := svc.Submit(ctx, "s", RPISubmitRequest{Answers: allScores(5)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.TotalScore != 50 || res.ScoreLevel != RPILevelMedium || res.Summary == "" || res.Suggestions == "" {
		t.Fatalf("result = %+v", res)
	}
	if len(store.answers) != 10 || store.answers[0].AnswerText != "得分：5" {
		t.Fatalf("answers = %+v", store.answers)
	}
	if _, err := svc.Submit(ctx, "s", RPISubmitRequest{Answers: allScores(1)}); !errors.Is(err, util.ErrRPIAlreadyDone) {
		t.Fatalf("err = %v, want ErrRPIAlreadyDone", err)
	}
	got, err := svc.Result(ctx, "s")
	if err != nil || got.TotalScore != 50 {
		t.Fatalf("Result = %+v, %v", got, err)
	}
}

func TestGenerateCodes(t *testing.T) {
	store := newMemRPI()
	svc := NewRPIService(store, newStubSessions())
	ctx := context.Background()

	res, err := svc.GenerateCodes(ctx, GenerateCodesRequest{})
	if err != nil || len(res.Codes) != 10 {
		t.Fatalf("GenerateCodes = %+v, %v", res, err)
	}
	for _, c := range res.Codes {
		if len(c) != 8 || strings.ToUpper(c) != c {
			t.Fatalf("code %q", c)
		}
	}

	res, err = svc.GenerateCodes(ctx, GenerateCodesRequest{Number: 3, Length: 10, Prefix: "vip"})
	if err != nil || len(res.Codes) != 3 {
		t.Fatalf("GenerateCodes = %+v, %v", res, err)
	}
	for _, c := range res.Codes {
		if len(c) != 10 || !strings.HasPrefix(c, "VIP") {
			t.Fatalf("code %q", c)
		}
	}

	if _, err := svc.GenerateCodes(ctx, GenerateCodesRequest{Length: 4, Prefix: "ABCDE"}); !errors.Is(err, util.ErrAuthCodeLength) {
		t.Fatalf("err = %v, want ErrAuthCodeLength", err)
	}
}
