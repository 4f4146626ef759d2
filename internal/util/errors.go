package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("账号已停用")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrSurveyNotFound       = errors.New("问卷不存在")
	ErrQuestionNotFound     = errors.New("问题不存在")
	ErrCategoryNotFound     = errors.New("分类不存在")
	ErrResponseNotFound     = errors.New("答卷不存在")
	ErrQRCodeNotFound       = errors.New("二维码不存在")
	ErrQRCodeOptions        = errors.New("二维码参数无效")
	ErrCategoryExists       = errors.New("分类名称或标识已存在")
	ErrSurveyQuestionExists = errors.New("该问题已在问卷中")
	ErrInvalidQuestionType  = errors.New("无效的问题类型")
	ErrDuplicateOption      = errors.New("选项值重复")

	ErrSubmissionRejected = errors.New("无法提交问卷")
	ErrSubmissionLimit    = errors.New("已达到提交次数上限")
	ErrInvalidAnswer      = errors.New("答案无效")
	ErrRequiredQuestion   = errors.New("必填问题未作答")

	ErrTokenSpaceExhausted = errors.New("无法生成唯一编码，已达到最大尝试次数")

	ErrImportFileTooLarge   = errors.New("文件大小不能超过5MB")
	ErrImportFileType       = errors.New("只支持 CSV 和 Excel(.xlsx) 文件")
	ErrImportFileUnreadable = errors.New("无法读取文件内容")

	ErrAuthCodeEmpty   = errors.New("请输入授权码")
	ErrAuthCodeUsed    = errors.New("该授权码已被使用")
	ErrAuthCodeInvalid = errors.New("无效的授权码")
	ErrAuthCodeLength  = errors.New("授权码长度必须大于前缀长度")
	ErrRPISessionEmpty = errors.New("请先验证授权码")
	ErrRPIIncomplete   = errors.New("请回答所有问题")
	ErrRPIScoreRange   = errors.New("得分超出范围")
	ErrRPIAlreadyDone  = errors.New("测试已完成")
	ErrRPIResultAbsent = errors.New("测试结果不存在")

	ErrWeChatNotConfigured = errors.New("未配置微信公众号")
	ErrWeChatState         = errors.New("无效的授权状态")
	ErrWeChatUpstream      = errors.New("微信接口调用失败")
)
