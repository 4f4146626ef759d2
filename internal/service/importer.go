package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"wechat_survey_backend/internal/model"
)

// 导入表头
const (
	HeaderText     = "问题文本"
	HeaderType     = "问题类型"
	HeaderCategory = "分类"
	HeaderRequired = "是否必填"
	HeaderOptions  = "选项(格式: 标签1;标签2;标签3)"
)

// 选项列的候选表头，先出现的优先
var optionHeaders = []string{
	"选项",
	"选项(格式: 值|标签;值|标签)",
	"选项(格式: 值|标签)",
	HeaderOptions,
}

var questionTypeAliases = map[string]model.QuestionType{
	"文本题":             model.QuestionText,
	"单选题":             model.QuestionSingleChoice,
	"多选题":             model.QuestionMultipleChoice,
	"评分题":             model.QuestionRating,
	"日期题":             model.QuestionDate,
	"text":            model.QuestionText,
	"single_choice":   model.QuestionSingleChoice,
	"multiple_choice": model.QuestionMultipleChoice,
	"rating":          model.QuestionRating,
	"date":            model.QuestionDate,
}

// 与 \w 的 Unicode 语义一致，中文标签保留原文
var optionValueStrip = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

const maxReportedErrors = 5

// ImportRow 表头到单元格的映射
type ImportRow map[string]string

// ImportReport 导入结果，errors 只保留前 5 条
type ImportReport struct {
	CreatedCount int      `json:"createdCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// ImportStore 单行写入，分类按名称取或建
type ImportStore interface {
	CreateImported(ctx context.Context, q *model.Question, categoryName string) error
}

// NormalizeQuestionType 未知题型一律按文本题处理
func NormalizeQuestionType(s string) model.QuestionType {
	if t, ok := questionTypeAliases[strings.TrimSpace(s)]; ok {
		return t
	}
	return model.QuestionText
}

// OptionsField 取第一个存在的选项列
func OptionsField(row ImportRow) string {
	for _, h := range optionHeaders {
		if v, ok := row[h]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ParseOptions 解析 "值|标签;值|标签" 或 "标签1;标签2"，空值或空标签跳过，重复值保留首个
func ParseOptions(s string) []model.Option {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var options []model.Option
	seen := make(map[string]bool)
	for i, token := range strings.Split(s, ";") {
		var value, label string
		if v, l, ok := strings.Cut(token, "|"); ok {
			value = strings.TrimSpace(v)
			label = strings.TrimSpace(l)
		} else {
			label = strings.TrimSpace(token)
			value = DeriveOptionValue(label, i)
		}
		if value == "" || label == "" || seen[value] {
			continue
		}
		seen[value] = true
		options = append(options, model.Option{Value: value, Label: label, Order: i})
	}
	return options
}

// DeriveOptionValue 去掉标点、转小写、空格换成下划线；结果为空时使用 option_{i+1}
func DeriveOptionValue(label string, i int) string {
	value := optionValueStrip.ReplaceAllString(label, "")
	value = strings.ReplaceAll(strings.ToLower(value), " ", "_")
	if value == "" {
		return fmt.Sprintf("option_%d", i+1)
	}
	return value
}

// BuildImportedQuestion 把一行转换成题目，返回分类名称
func BuildImportedQuestion(row ImportRow, isPublic bool, createdBy *uint) (*model.Question, string, error) {
	text := strings.TrimSpace(row[HeaderText])
	if text == "" {
		return nil, "", errors.New("问题文本不能为空")
	}
	q := &model.Question{
		Text:         text,
		QuestionType: NormalizeQuestionType(row[HeaderType]),
		CreatedByID:  createdBy,
		IsPublic:     isPublic,
	}
	if q.IsChoice() {
		q.Options = ParseOptions(OptionsField(row))
	}
	return q, strings.TrimSpace(row[HeaderCategory]), nil
}

// ImportRows 逐行导入，每行独立事务，失败的行记入报告后继续
func ImportRows(ctx context.Context, store ImportStore, rows []ImportRow, isPublic bool, createdBy *uint) ImportReport {
	report := ImportReport{Errors: []string{}}
	for i, row := range rows {
		line := i + 2
		q, category, err := BuildImportedQuestion(row, isPublic, createdBy)
		if err == nil {
			err = store.CreateImported(ctx, q, category)
		}
		if err != nil {
			report.ErrorCount++
			if len(report.Errors) < maxReportedErrors {
				report.Errors = append(report.Errors, fmt.Sprintf("第%d行导入失败: %v", line, err))
			}
			continue
		}
		report.CreatedCount++
	}
	return report
}
