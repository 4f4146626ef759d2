package service

import (
	"context"
	"errors"
	"testing"
	"wechat_survey_backend/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fixedCounter struct {
	n   int64
	err error
}

func (f fixedCounter) CountActive(context.Context) (int64, error) { return f.n, f.err }
func (f fixedCounter) CountAll(context.Context) (int64, error)    { return f.n, f.err }

func TestRefreshGauges(t *testing.T) {
	s := NewScheduler(fixedCounter{n: 3}, fixedCounter{n: 42})
	s.RefreshGauges(context.Background())
	if got := testutil.ToFloat64(monitoring.ActiveSurveys); got != 3 {
		t.Fatalf("ActiveSurveys = %v", got)
	}
	if got := testutil.ToFloat64(monitoring.TotalResponses); got != 42 {
		t.Fatalf("TotalResponses = %v", got)
	}

	// 查询失败时保留上一次的值
	s = NewScheduler(fixedCounter{err: errors.New("db down")}, fixedCounter{n: 50})
	s.RefreshGauges(context.Background())
	if got := testutil.ToFloat64(monitoring.ActiveSurveys); got != 3 {
		t.Fatalf("ActiveSurveys = %v, want previous value", got)
	}
	if got := testutil.ToFloat64(monitoring.TotalResponses); got != 50 {
		t.Fatalf("TotalResponses = %v", got)
	}
}
