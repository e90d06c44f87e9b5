package service

import (
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/model"
	"Birdfeed/internal/repository"
	"context"
	log "log/slog"
	"time"
)

type RateLimitService interface {
	CanProceed(ctx context.Context, endpoint string) (bool, error)
	RecordUsage(ctx context.Context, endpoint string, remaining int, resetAt time.Time) error
	WaitIfNeeded(ctx context.Context, endpoint string) error
	ConsumeFetchQuota(ctx context.Context) error
	CheckTweetQuota(ctx context.Context) error
	RecordTweetCreated(ctx context.Context) error
	ListRecords(ctx context.Context) ([]*model.RateLimitRecord, error)
}

type rateLimitServiceImpl struct {
	repo      repository.RateLimitRepo
	quotaRepo repository.QuotaRepo
	cfg       config.RateLimitConfig

	// 可注入的时钟与休眠，测试用
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRateLimitService(repo repository.RateLimitRepo, quotaRepo repository.QuotaRepo, cfg config.RateLimitConfig) RateLimitService {
	return &rateLimitServiceImpl{
		repo:      repo,
		quotaRepo: quotaRepo,
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ceiling 端点上限，配置表未命中回退到默认值
func (s *rateLimitServiceImpl) ceiling(endpoint string) int {
	if c, ok := s.cfg.Ceilings[endpoint]; ok {
		return c
	}
	return s.cfg.DefaultCeiling
}

func (s *rateLimitServiceImpl) window() time.Duration {
	return time.Duration(s.cfg.WindowMin) * time.Minute
}

// loadOrCreate 懒创建限流记录，初始窗口为一个完整周期
func (s *rateLimitServiceImpl) loadOrCreate(ctx context.Context, endpoint string) (*model.RateLimitRecord, error) {
	record, err := s.repo.GetByEndpoint(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	record = &model.RateLimitRecord{
		Endpoint:  endpoint,
		Remaining: s.ceiling(endpoint),
		ResetAt:   s.now().Add(s.window()),
	}
	if err = s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "rate limit record created", "endpoint", endpoint, "ceiling", record.Remaining)
	return record, nil
}

// CanProceed 窗口已过期则重置到上限并放行；余量为正放行；否则拦截
func (s *rateLimitServiceImpl) CanProceed(ctx context.Context, endpoint string) (bool, error) {
	record, err := s.loadOrCreate(ctx, endpoint)
	if err != nil {
		return false, err
	}

	now := s.now()
	if record.WindowExpired(now) {
		record.Remaining = s.ceiling(endpoint)
		record.ResetAt = now.Add(s.window())
		if err = s.repo.Save(ctx, record); err != nil {
			return false, err
		}
		return true, nil
	}

	return record.Remaining > 0, nil
}

// RecordUsage 以响应元数据为准回写余量和重置时间
func (s *rateLimitServiceImpl) RecordUsage(ctx context.Context, endpoint string, remaining int, resetAt time.Time) error {
	record, err := s.loadOrCreate(ctx, endpoint)
	if err != nil {
		return err
	}
	record.Remaining = remaining
	record.ResetAt = resetAt
	return s.repo.Save(ctx, record)
}

// WaitIfNeeded 余量耗尽时阻塞到重置时刻加安全缓冲。
// 等待后仍被限流属于致命情况，由调用方决定中止。
func (s *rateLimitServiceImpl) WaitIfNeeded(ctx context.Context, endpoint string) error {
	record, err := s.loadOrCreate(ctx, endpoint)
	if err != nil {
		return err
	}

	now := s.now()
	if record.WindowExpired(now) || record.Remaining > 0 {
		return nil
	}

	wait := record.ResetAt.Sub(now) + time.Duration(s.cfg.BufferSec)*time.Second
	log.WarnContext(ctx, "rate limit exhausted, waiting for window reset",
		"endpoint", endpoint, "wait", wait.String())
	if err = s.sleep(ctx, wait); err != nil {
		return err
	}

	record.Remaining = s.ceiling(endpoint)
	record.ResetAt = s.now().Add(s.window())
	return s.repo.Save(ctx, record)
}

// ConsumeFetchQuota 当日抓取次数顶到上限时返回 ErrDailyQuotaUsed
func (s *rateLimitServiceImpl) ConsumeFetchQuota(ctx context.Context) error {
	day := model.DayKey(s.now())
	usage, err := s.quotaRepo.GetDay(ctx, day)
	if err != nil {
		return err
	}
	if usage.FetchRuns >= s.cfg.DailyFetchCeiling {
		return ErrDailyQuotaUsed
	}
	return s.quotaRepo.IncrementFetchRuns(ctx, day)
}

// CheckTweetQuota 当日发推配额已满时返回 ErrDailyQuotaUsed
func (s *rateLimitServiceImpl) CheckTweetQuota(ctx context.Context) error {
	day := model.DayKey(s.now())
	usage, err := s.quotaRepo.GetDay(ctx, day)
	if err != nil {
		return err
	}
	if usage.TweetsCreated >= s.cfg.DailyTweetCeiling {
		return ErrDailyQuotaUsed
	}
	return nil
}

// RecordTweetCreated 对外发推成功后累计当日计数
func (s *rateLimitServiceImpl) RecordTweetCreated(ctx context.Context) error {
	return s.quotaRepo.IncrementTweetsCreated(ctx, model.DayKey(s.now()))
}

func (s *rateLimitServiceImpl) ListRecords(ctx context.Context) ([]*model.RateLimitRecord, error) {
	return s.repo.ListAll(ctx)
}
