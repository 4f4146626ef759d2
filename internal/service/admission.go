package service

import (
	"fmt"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
)

// AdmissionReason 拒绝提交的原因
type AdmissionReason string

const (
	AdmissionOK             AdmissionReason = ""
	AdmissionNotStarted     AdmissionReason = "not_started"
	AdmissionEnded          AdmissionReason = "ended"
	AdmissionInactive       AdmissionReason = "inactive"
	AdmissionWechatRequired AdmissionReason = "wechat_required"
	AdmissionLimitReached   AdmissionReason = "limit_reached"
	AdmissionLoginRequired  AdmissionReason = "login_required"
)

var admissionMessages = map[AdmissionReason]string{
	AdmissionNotStarted:     "问卷尚未开始",
	AdmissionEnded:          "问卷已结束",
	AdmissionInactive:       "问卷已停用",
	AdmissionWechatRequired: "请在微信中打开",
	AdmissionLimitReached:   "已达到提交次数上限",
	AdmissionLoginRequired:  "该问卷不允许匿名提交",
}

func (r AdmissionReason) Message() string {
	return admissionMessages[r]
}

// Requester 提交者信息
type Requester struct {
	UserID     *uint
	SessionKey string
	UserAgent  string
	IP         string
	OpenID     string
	UnionID    string
	Nickname   string
}

func (r Requester) IsWeChat() bool {
	return util.IsWeChatUA(r.UserAgent)
}

// RespondentKey 提交次数按此标识计数：登录用户优先，其次会话
func (r Requester) RespondentKey() string {
	if r.UserID != nil {
		return fmt.Sprintf("user:%d", *r.UserID)
	}
	return "session:" + r.SessionKey
}

// Identified 登录用户或带有微信身份
func (r Requester) Identified() bool {
	return r.UserID != nil || r.OpenID != ""
}

// AdmissionError 携带拒绝原因，errors.Is 可匹配 ErrSubmissionRejected
type AdmissionError struct {
	Reason    AdmissionReason
	StartDate *time.Time
	EndDate   *time.Time
}

func (e *AdmissionError) Error() string {
	return util.ErrSubmissionRejected.Error() + ": " + e.Reason.Message()
}

func (e *AdmissionError) Unwrap() error {
	return util.ErrSubmissionRejected
}

// CheckAdmission 判断能否提交；priorCount 为该提交者此前的提交次数
func CheckAdmission(s *model.Survey, req Requester, now time.Time, priorCount int64) AdmissionReason {
	if reason := CheckWindow(s, now); reason != AdmissionOK {
		return reason
	}
	if s.RequireWechat && !req.IsWeChat() {
		return AdmissionWechatRequired
	}
	if s.LimitPerUser > 0 && priorCount >= int64(s.LimitPerUser) {
		return AdmissionLimitReached
	}
	return AdmissionOK
}

// CheckWindow 只检查启用状态和开放时间，查看问卷时使用
func CheckWindow(s *model.Survey, now time.Time) AdmissionReason {
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return AdmissionNotStarted
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return AdmissionEnded
	}
	if !s.IsActive {
		return AdmissionInactive
	}
	return AdmissionOK
}
