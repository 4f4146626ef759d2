package service

import (
	"context"
	"time"
	"wechat_survey_backend/pkg/logger"
	"wechat_survey_backend/pkg/monitoring"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type gaugeCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

type responseCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// Scheduler 定时任务，目前只刷新问卷和答卷数量指标
type Scheduler struct {
	Surveys   gaugeCounter
	Responses responseCounter
	Spec      string

	cron *cron.Cron
}

func NewScheduler(surveys gaugeCounter, responses responseCounter) *Scheduler {
	return &Scheduler{
		Surveys:   surveys,
		Responses: responses,
		Spec:      "@every 1m",
	}
}

// RefreshGauges 更新 ActiveSurveys 和 TotalResponses
func (s *Scheduler) RefreshGauges(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if n, err := s.Surveys.CountActive(ctx); err != nil {
		logger.Log.Warn("统计有效问卷数量失败", zap.Error(err))
	} else {
		monitoring.ActiveSurveys.Set(float64(n))
	}
	if n, err := s.Responses.CountAll(ctx); err != nil {
		logger.Log.Warn("统计答卷数量失败", zap.Error(err))
	} else {
		monitoring.TotalResponses.Set(float64(n))
	}
}

func (s *Scheduler) Start() error {
	s.cron = cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := s.cron.AddFunc(s.Spec, func() { s.RefreshGauges(context.Background()) }); err != nil {
		return err
	}
	s.RefreshGauges(context.Background())
	s.cron.Start()
	logger.Log.Info("定时任务已启动", zap.String("spec", s.Spec))
	return nil
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
