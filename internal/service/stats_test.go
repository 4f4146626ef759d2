package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"wechat_survey_backend/internal/model"
)

func choiceQuestion(t model.QuestionType) (*model.Question, []model.Option) {
	q := &model.Question{Text: "最喜欢的颜色", QuestionType: t}
	q.ID = 7
	opts := []model.Option{
		{Value: "red", Label: "红", Order: 0},
		{Value: "green", Label: "绿", Order: 1},
		{Value: "blue", Label: "蓝", Order: 2},
	}
	return q, opts
}

func choice(values ...string) model.Answer {
	return model.Answer{AnswerChoice: values}
}

func TestSingleChoicePercentagesSumTo100(t *testing.T) {
	q, opts := choiceQuestion(model.QuestionSingleChoice)
	answers := []model.Answer{choice("red"), choice("blue"), choice("blue"), choice("green"), choice("blue"), choice("red"), choice("red")}

	stats := AggregateQuestion(q, opts, answers)
	if stats.AnswerCount != 7 {
		t.Fatalf("AnswerCount = %d", stats.AnswerCount)
	}
	sum := 0.0
	for i, o := range stats.Options {
		if o.Value != opts[i].Value {
			t.Fatalf("option %d = %s, options must keep their order", i, o.Value)
		}
		if o.Count < 0 || o.Count > len(answers) {
			t.Fatalf("count %d out of [0,%d]", o.Count, len(answers))
		}
		sum += o.Percentage
	}
	if sum < 99.999 || sum > 100.0001 {
		t.Fatalf("sum = %f, want 100", sum)
	}
}

func TestChoiceIgnoresUnknownValues(t *testing.T) {
	q, opts := choiceQuestion(model.QuestionSingleChoice)
	answers := []model.Answer{choice("red"), choice("purple"), choice()}

	stats := AggregateQuestion(q, opts, answers)
	sum := 0.0
	for _, o := range stats.Options {
		sum += o.Percentage
	}
	if sum > 100 {
		t.Fatalf("sum = %f must not exceed 100", sum)
	}
	if stats.Options[0].Count != 1 {
		t.Fatalf("red count = %d", stats.Options[0].Count)
	}
}

func TestMultipleChoiceCountsEachValueOncePerAnswer(t *testing.T) {
	q, opts := choiceQuestion(model.QuestionMultipleChoice)
	answers := []model.Answer{choice("red", "red", "blue"), choice("blue")}

	stats := AggregateQuestion(q, opts, answers)
	if stats.Options[0].Count != 1 || stats.Options[2].Count != 2 {
		t.Fatalf("counts = %+v", stats.Options)
	}
	for _, o := range stats.Options {
		if o.Count > len(answers) {
			t.Fatalf("count %d exceeds answers", o.Count)
		}
	}
}

func TestEmptyAnswersUseDivisorOne(t *testing.T) {
	q, opts := choiceQuestion(model.QuestionSingleChoice)
	stats := AggregateQuestion(q, opts, nil)
	for _, o := range stats.Options {
		if o.Count != 0 || o.Percentage != 0 {
			t.Fatalf("empty stats = %+v", o)
		}
	}
}

func TestRatingUsesFirstElementOnly(t *testing.T) {
	q := &model.Question{QuestionType: model.QuestionRating}
	answers := []model.Answer{choice("5", "1"), choice("3"), choice("6"), choice("03"), choice()}

	stats := AggregateQuestion(q, nil, answers)
	if len(stats.Ratings) != 5 {
		t.Fatalf("ratings = %+v", stats.Ratings)
	}
	want := []int{0, 0, 1, 0, 1}
	for i, r := range stats.Ratings {
		if r.Value != string(rune('1'+i)) || r.Count != want[i] {
			t.Fatalf("rating %d = %+v, want count %d", i+1, r, want[i])
		}
	}
	if stats.Ratings[4].Percentage != 20 {
		t.Fatalf("rating 5 percentage = %f, want 20", stats.Ratings[4].Percentage)
	}
}

func TestTextSamplesAreTruncated(t *testing.T) {
	q := &model.Question{QuestionType: model.QuestionText}
	long := strings.Repeat("好", 120)
	answers := make([]model.Answer, 0, 12)
	answers = append(answers, model.Answer{AnswerText: long})
	for i := 0; i < 11; i++ {
		answers = append(answers, model.Answer{AnswerText: "ok"})
	}

	stats := AggregateQuestion(q, nil, answers)
	if len(stats.Texts) != 10 {
		t.Fatalf("len(Texts) = %d, want 10", len(stats.Texts))
	}
	if stats.Texts[0] != strings.Repeat("好", 100)+"..." {
		t.Fatalf("first text not cut at 100 runes: %q", stats.Texts[0])
	}
	if stats.AnswerCount != 12 {
		t.Fatalf("AnswerCount = %d", stats.AnswerCount)
	}
}

func TestDateHasEmptySummary(t *testing.T) {
	q := &model.Question{QuestionType: model.QuestionDate}
	stats := AggregateQuestion(q, nil, []model.Answer{{AnswerText: "2024-01-01"}})
	if stats.Options != nil || stats.Ratings != nil || stats.Texts != nil {
		t.Fatalf("date stats = %+v", stats)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	q, opts := choiceQuestion(model.QuestionMultipleChoice)
	answers := []model.Answer{choice("green", "blue"), choice("red")}

	first, _ := json.Marshal(AggregateQuestion(q, opts, answers))
	second, _ := json.Marshal(AggregateQuestion(q, opts, answers))
	if !bytes.Equal(first, second) {
		t.Fatalf("outputs differ:\n%s\n%s", first, second)
	}
	if len(answers[0].AnswerChoice) != 2 || opts[0].Value != "red" {
		t.Fatalf("inputs were mutated")
	}
}
