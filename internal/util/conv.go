package util

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParsePage 解析分页参数
func ParsePage(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// ParseUintList 解析逗号分隔的 ID 列表，忽略非法项
func ParseUintList(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		if id := MustParseUint(strings.TrimSpace(part)); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// YesNo 导出时布尔值显示
func YesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
