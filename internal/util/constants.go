package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 会话字段
const (
	SessionContextKey   = "session_key"
	SessionSurveyStart  = "survey_start_"
	SessionWechatOpenID = "wechat_openid"
	SessionWechatUnion  = "wechat_unionid"
	SessionWechatName   = "wechat_nickname"
	SessionWechatAvatar = "wechat_headimgurl"
	SessionRPIUserID    = "rpi_user_id"
)

// 导入导出
const (
	ContentTypeCSV  = "text/csv; charset=utf-8-sig"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePNG  = "image/png"
)

const WeChatUAMarker = "micromessenger"
