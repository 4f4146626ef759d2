package service

import (
	"errors"
	"testing"
	"time"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
)

const wechatUA = "Mozilla/5.0 (iPhone) AppleWebKit MicroMessenger/8.0.40"

func TestCheckAdmission(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		survey model.Survey
		req    Requester
		prior  int64
		want   AdmissionReason
	}{
		{"open", model.Survey{IsActive: true, LimitPerUser: 1}, Requester{}, 0, AdmissionOK},
		{"not started", model.Survey{IsActive: true, StartDate: &future}, Requester{}, 0, AdmissionNotStarted},
		{"ended", model.Survey{IsActive: true, EndDate: &past}, Requester{}, 0, AdmissionEnded},
		{"inside window", model.Survey{IsActive: true, StartDate: &past, EndDate: &future}, Requester{}, 0, AdmissionOK},
		{"inactive", model.Survey{IsActive: false}, Requester{}, 0, AdmissionInactive},
		{"wechat required", model.Survey{IsActive: true, RequireWechat: true}, Requester{UserAgent: "curl/8"}, 0, AdmissionWechatRequired},
		{"wechat ua", model.Survey{IsActive: true, RequireWechat: true}, Requester{UserAgent: wechatUA}, 0, AdmissionOK},
		{"limit reached", model.Survey{IsActive: true, LimitPerUser: 2}, Requester{}, 2, AdmissionLimitReached},
		{"below limit", model.Survey{IsActive: true, LimitPerUser: 2}, Requester{}, 1, AdmissionOK},
		{"unlimited", model.Survey{IsActive: true, LimitPerUser: 0}, Requester{}, 99, AdmissionOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckAdmission(&tc.survey, tc.req, now, tc.prior); got != tc.want {
				t.Fatalf("CheckAdmission = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRespondentKey(t *testing.T) {
	id := uint(42)
	if got := (Requester{UserID: &id, SessionKey: "abc"}).RespondentKey(); got != "user:42" {
		t.Fatalf("RespondentKey = %q", got)
	}
	if got := (Requester{SessionKey: "abc"}).RespondentKey(); got != "session:abc" {
		t.Fatalf("RespondentKey = %q", got)
	}
}

func TestAdmissionErrorMatchesRejected(t *testing.T) {
	var err error = &AdmissionError{Reason: AdmissionEnded}
	if !errors.Is(err, util.ErrSubmissionRejected) {
		t.Fatalf("AdmissionError must unwrap to ErrSubmissionRejected")
	}
	var ae *AdmissionError
	if !errors.As(err, &ae) || ae.Reason != AdmissionEnded {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestCheckWindowBoundaries(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	later := now.Add(time.Second)
	earlier := now.Add(-time.Second)

	cases := []struct {
		name   string
		survey model.Survey
		want   AdmissionReason
	}{
		{"starts now", model.Survey{IsActive: true, StartDate: &now}, AdmissionOK},
		{"ends now", model.Survey{IsActive: true, EndDate: &now}, AdmissionOK},
		{"starts later", model.Survey{IsActive: true, StartDate: &later}, AdmissionNotStarted},
		{"ended earlier", model.Survey{IsActive: true, EndDate: &earlier}, AdmissionEnded},
		// 时间窗口优先于启用状态
		{"inactive and ended", model.Survey{IsActive: false, EndDate: &earlier}, AdmissionEnded},
		{"inactive in window", model.Survey{IsActive: false, StartDate: &earlier, EndDate: &later}, AdmissionInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckWindow(&tc.survey, now); got != tc.want {
				t.Fatalf("CheckWindow = %q, want %q", got, tc.want)
			}
		})
	}
}
