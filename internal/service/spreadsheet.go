package service

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportHeaders 导出表头，选项列可直接重新导入
var ExportHeaders = []string{"ID", HeaderText, HeaderType, HeaderCategory, "创建者", "是否公开", "创建时间", HeaderOptions}

// TemplateRows 导入模板，第一行为表头
var TemplateRows = [][]string{
	{HeaderText, HeaderType, HeaderCategory, HeaderRequired, HeaderOptions},
	{"您对我们的产品整体满意度如何？", "评分题", "用户体验", "是", ""},
	{"您是通过什么渠道知道我们的？", "单选题", "用户信息", "是", "朋友推荐;广告;搜索引擎;社交媒体;其他"},
	{"您喜欢我们产品的哪些方面？", "多选题", "产品反馈", "否", "产品设计;产品质量;价格合理;客户服务;功能实用"},
	{"您有什么建议或意见？", "文本题", "产品反馈", "否", ""},
	{"您的生日是哪一天？", "日期题", "个人信息", "是", ""},
	{"您对我们的服务评价如何？", "评分题", "服务评价", "是", ""},
	{"您使用过我们的哪些产品？", "多选题", "产品使用", "是", "产品1;产品2;产品3;产品4"},
	{"您希望我们添加哪些功能？", "文本题", "产品建议", "否", ""},
	{"您是在哪里购买我们的产品的？", "单选题", "购买渠道", "否", "线上;线下;其他"},
	{"您的所在城市是？", "单选题", "用户信息", "否", "bj|北京;sh|上海;gz|广州;sz|深圳;other|其他"},
}

// QuestionExportRows 题目导出为表格行（含表头）
func QuestionExportRows(questions []model.Question) [][]string {
	rows := make([][]string, 0, len(questions)+1)
	rows = append(rows, ExportHeaders)
	for _, q := range questions {
		category := "未分类"
		if q.Category != nil {
			category = q.Category.Name
		}
		creator := ""
		if q.CreatedBy != nil {
			creator = q.CreatedBy.Username
		}
		options := ""
		if q.IsChoice() {
			labels := make([]string, 0, len(q.Options))
			for _, o := range q.Options {
				labels = append(labels, o.Label)
			}
			options = strings.Join(labels, ";")
		}
		rows = append(rows, []string{
			fmt.Sprint(q.ID),
			q.Text,
			q.QuestionType.Label(),
			category,
			creator,
			util.YesNo(q.IsPublic),
			q.CreatedAt.Format(util.TimeFormat),
			options,
		})
	}
	return rows
}

// ReadImportRows 按格式读取导入文件，表头为第一行，整行为空的数据行跳过
func ReadImportRows(format string, r io.Reader) ([]ImportRow, error) {
	var table [][]string
	var err error
	switch format {
	case util.FormatCSV:
		table, err = readCSV(r)
	case util.FormatExcel:
		table, err = readXLSX(r)
	default:
		return nil, util.ErrImportFileType
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrImportFileUnreadable, err)
	}
	return tableToRows(table), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func tableToRows(table [][]string) []ImportRow {
	if len(table) == 0 {
		return nil
	}
	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(h)
	}
	rows := make([]ImportRow, 0, len(table)-1)
	for _, record := range table[1:] {
		row := make(ImportRow, len(header))
		blank := true
		for i, h := range header {
			cell := ""
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			if cell != "" {
				blank = false
			}
			row[h] = cell
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV 写出带 BOM 的 CSV，Excel 打开时不乱码
func WriteCSV(w io.Writer, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX 第一行为加粗表头
func WriteXLSX(sheet string, rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return nil, err
		}
		last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return nil, err
		}
		lastCol, _ := excelize.ColumnNumberToName(len(rows[0]))
		if err := f.SetColWidth(sheet, "A", lastCol, 24); err != nil {
			return nil, err
		}
	}
	return f.WriteToBuffer()
}
