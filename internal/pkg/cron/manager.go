package cron

import (
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine        *cron.Cron
	cfg           config.CronConfig
	ingestJob     *job.IngestJob
	cachePruneJob *job.CachePruneJob
}

func NewCronManager(cfg config.CronConfig, ingestJob *job.IngestJob, cachePruneJob *job.CachePruneJob) *Manager {
	return &Manager{
		engine:        cron.New(cron.WithSeconds()),
		cfg:           cfg,
		ingestJob:     ingestJob,
		cachePruneJob: cachePruneJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.cfg.IngestSpec, s.ingestJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob(s.cfg.PruneSpec, s.cachePruneJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
