package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
)

type fakeImportStore struct {
	created    []*model.Question
	categories []string
	failOn     string
}

func (s *fakeImportStore) CreateImported(_ context.Context, q *model.Question, category string) error {
	if s.failOn != "" && q.Text == s.failOn {
		return errors.New("数据库错误")
	}
	s.created = append(s.created, q)
	s.categories = append(s.categories, category)
	return nil
}

func TestImportUnknownTypeDefaultsToText(t *testing.T) {
	rows := []ImportRow{
		{HeaderText: "Q1", HeaderType: "单选题", HeaderOptions: "是;否"},
		{HeaderText: "Q2", HeaderType: "foo"},
		{HeaderText: "Q3", HeaderType: "rating"},
	}
	store := &fakeImportStore{}

	report := ImportRows(context.Background(), store, rows, true, nil)
	if report.CreatedCount != 3 || report.ErrorCount != 0 {
		t.Fatalf("report = %+v, want 3 created and 0 errors", report)
	}
	if store.created[1].QuestionType != model.QuestionText {
		t.Fatalf("row 2 type = %s, want text", store.created[1].QuestionType)
	}
	if len(store.created[0].Options) != 2 || !store.created[0].IsPublic {
		t.Fatalf("row 1 = %+v", store.created[0])
	}
}

func TestImportCollectsRowErrors(t *testing.T) {
	rows := []ImportRow{
		{HeaderText: "ok"},
		{HeaderText: ""},
		{HeaderText: "boom"},
	}
	for i := 0; i < 6; i++ {
		rows = append(rows, ImportRow{HeaderText: " "})
	}
	store := &fakeImportStore{failOn: "boom"}

	report := ImportRows(context.Background(), store, rows, false, nil)
	if report.CreatedCount != 1 || report.ErrorCount != 8 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Errors) != 5 {
		t.Fatalf("len(Errors) = %d, want first 5", len(report.Errors))
	}
	if !strings.HasPrefix(report.Errors[0], "第3行导入失败: ") || !strings.HasPrefix(report.Errors[1], "第4行导入失败: 数据库错误") {
		t.Fatalf("errors = %v", report.Errors)
	}
}

func TestParseOptions(t *testing.T) {
	cases := []struct {
		in   string
		want []model.Option
	}{
		{"a|Alpha;b|Beta", []model.Option{{Value: "a", Label: "Alpha", Order: 0}, {Value: "b", Label: "Beta", Order: 1}}},
		{"Very Good!;Bad", []model.Option{{Value: "very_good", Label: "Very Good!", Order: 0}, {Value: "bad", Label: "Bad", Order: 1}}},
		{"朋友推荐;广告", []model.Option{{Value: "朋友推荐", Label: "朋友推荐", Order: 0}, {Value: "广告", Label: "广告", Order: 1}}},
		{"???;;x|", []model.Option{{Value: "option_1", Label: "???", Order: 0}}},
		{"a|A;a|B", []model.Option{{Value: "a", Label: "A", Order: 0}}},
		{"", nil},
	}
	for _, tc := range cases {
		got := ParseOptions(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("ParseOptions(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i].Value != tc.want[i].Value || got[i].Label != tc.want[i].Label || got[i].Order != tc.want[i].Order {
				t.Fatalf("ParseOptions(%q)[%d] = %+v, want %+v", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestOptionsFieldFirstHeaderWins(t *testing.T) {
	row := ImportRow{HeaderOptions: "x", "选项": " y "}
	if got := OptionsField(row); got != "y" {
		t.Fatalf("OptionsField = %q, want y", got)
	}
}

func TestOptionsOnlyForChoiceTypes(t *testing.T) {
	q, category, err := BuildImportedQuestion(ImportRow{HeaderText: "Q", HeaderType: "文本题", HeaderCategory: " 反馈 ", "选项": "a;b"}, false, nil)
	if err != nil {
		t.Fatalf("BuildImportedQuestion: %v", err)
	}
	if len(q.Options) != 0 || category != "反馈" {
		t.Fatalf("q = %+v category = %q", q, category)
	}
}

func TestReadCSVStripsBOM(t *testing.T) {
	data := "\xEF\xBB\xBF问题文本,问题类型\nQ1,单选题\n,\nQ2,文本题\n"
	rows, err := ReadImportRows(util.FormatCSV, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadImportRows: %v", err)
	}
	if len(rows) != 2 || rows[0][HeaderText] != "Q1" || rows[1][HeaderType] != "文本题" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestExportReimportsCleanly(t *testing.T) {
	q := model.Question{Text: "颜色", QuestionType: model.QuestionMultipleChoice, Category: &model.Category{Name: "偏好"},
		Options: []model.Option{{Value: "red", Label: "红"}, {Value: "blue", Label: "蓝"}}}
	q.ID = 3
	q.CreatedAt = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	plain := model.Question{Text: "建议", QuestionType: model.QuestionText}

	table := QuestionExportRows([]model.Question{q, plain})
	if table[1][3] != "偏好" || table[1][7] != "红;蓝" || table[2][3] != "未分类" || table[1][2] != "多选题" {
		t.Fatalf("export rows = %v", table)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Fatalf("CSV must start with BOM")
	}
	rows, err := ReadImportRows(util.FormatCSV, &buf)
	if err != nil {
		t.Fatalf("ReadImportRows: %v", err)
	}
	store := &fakeImportStore{}
	report := ImportRows(context.Background(), store, rows, false, nil)
	if report.CreatedCount != 2 {
		t.Fatalf("report = %+v", report)
	}
	if store.created[0].QuestionType != model.QuestionMultipleChoice || len(store.created[0].Options) != 2 {
		t.Fatalf("reimported = %+v", store.created[0])
	}
	if store.created[0].Options[1].Label != "蓝" || store.categories[0] != "偏好" {
		t.Fatalf("reimported options = %+v", store.created[0].Options)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	buf, err := WriteXLSX("问题模板", TemplateRows)
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	rows, err := ReadImportRows(util.FormatExcel, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadImportRows: %v", err)
	}
	if len(rows) != len(TemplateRows)-1 {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(TemplateRows)-1)
	}
	if rows[1][HeaderOptions] != "朋友推荐;广告;搜索引擎;社交媒体;其他" {
		t.Fatalf("row 2 = %+v", rows[1])
	}
}

func TestReadRejectsUnknownFormat(t *testing.T) {
	if _, err := ReadImportRows("xls", strings.NewReader("")); !errors.Is(err, util.ErrImportFileType) {
		t.Fatalf("err = %v", err)
	}
}
