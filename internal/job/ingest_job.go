package job

import (
	"Birdfeed/internal/pkg/consts"
	"Birdfeed/internal/pkg/logger"
	"Birdfeed/internal/pkg/redis"
	"Birdfeed/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type IngestJob struct {
	ingestSvc service.IngestService
}

func NewIngestJob(ingestSvc service.IngestService) *IngestJob {
	return &IngestJob{
		ingestSvc: ingestSvc,
	}
}

func (s *IngestJob) Run() {
	traceID := "job-ingest-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	// 调度可能和慢轮次重叠，拿不到锁直接跳过本轮
	lockUUID := uuid.NewString()
	ok, err := redis.TryLock(ctx, consts.IngestRunLock, lockUUID, 10*time.Minute, 0)
	if err != nil {
		log.ErrorContext(ctx, "acquire ingest lock error", "err", err)
		return
	}
	if !ok {
		log.WarnContext(ctx, "previous ingest run still in progress, skipping")
		return
	}
	defer redis.UnLock(ctx, consts.IngestRunLock, lockUUID)

	result := s.ingestSvc.Run(ctx)

	log.InfoContext(ctx, "IngestJob finished",
		"status", result.Status,
		"fetched", result.Fetched,
		"validated", result.Validated,
		"cached", result.Cached,
		"failed", result.Failed,
		"selected", result.Selected,
		"err", result.Err,
	)

	if b, err := json.Marshal(result); err == nil {
		if err = redis.SetWithExpiration(ctx, consts.IngestLastRunKey, string(b), 24*time.Hour); err != nil {
			log.WarnContext(ctx, "save last run snapshot error", "err", err)
		}
	}
}
