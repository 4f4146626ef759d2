package service

import (
	"strconv"
	"wechat_survey_backend/internal/model"

	"github.com/samber/lo"
)

const (
	textSampleSize = 10
	textSampleLen  = 100
	ratingMax      = 5
)

// OptionStat 单个选项或评分档位的统计
type OptionStat struct {
	Value      string  `json:"value"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// QuestionStats 单题统计，按题型只填充其中一种明细
type QuestionStats struct {
	QuestionID  uint               `json:"questionId"`
	Text        string             `json:"text"`
	Type        model.QuestionType `json:"type"`
	TypeLabel   string             `json:"typeLabel"`
	AnswerCount int                `json:"answerCount"`
	Options     []OptionStat       `json:"options,omitempty"`
	Ratings     []OptionStat       `json:"ratings,omitempty"`
	Texts       []string           `json:"texts,omitempty"`
}

// AggregateQuestion 汇总某题的全部答案，不修改入参
func AggregateQuestion(q *model.Question, options []model.Option, answers []model.Answer) QuestionStats {
	stats := QuestionStats{
		QuestionID:  q.ID,
		Text:        q.Text,
		Type:        q.QuestionType,
		TypeLabel:   q.QuestionType.Label(),
		AnswerCount: len(answers),
	}
	total := len(answers)
	if total == 0 {
		total = 1
	}

	switch q.QuestionType {
	case model.QuestionSingleChoice, model.QuestionMultipleChoice:
		stats.Options = make([]OptionStat, len(options))
		index := make(map[string]int, len(options))
		for i, o := range options {
			stats.Options[i] = OptionStat{Value: o.Value, Label: o.Label}
			index[o.Value] = i
		}
		for _, a := range answers {
			// 同一答案内重复的值只计一次
			for _, v := range lo.Uniq(a.AnswerChoice) {
				if i, ok := index[v]; ok {
					stats.Options[i].Count++
				}
			}
		}
		fillPercentage(stats.Options, total)

	case model.QuestionRating:
		stats.Ratings = make([]OptionStat, ratingMax)
		for i := range stats.Ratings {
			v := strconv.Itoa(i + 1)
			stats.Ratings[i] = OptionStat{Value: v, Label: v}
		}
		for _, a := range answers {
			if len(a.AnswerChoice) == 0 {
				continue
			}
			n, err := strconv.Atoi(a.AnswerChoice[0])
			if err != nil || n < 1 || n > ratingMax || strconv.Itoa(n) != a.AnswerChoice[0] {
				continue
			}
			stats.Ratings[n-1].Count++
		}
		fillPercentage(stats.Ratings, total)

	case model.QuestionText:
		stats.Texts = make([]string, 0, textSampleSize)
		for _, a := range lo.Slice(answers, 0, textSampleSize) {
			stats.Texts = append(stats.Texts, truncateRunes(a.AnswerText, textSampleLen))
		}
	}
	return stats
}

func fillPercentage(list []OptionStat, total int) {
	for i := range list {
		list[i].Percentage = float64(list[i].Count) / float64(total) * 100
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
