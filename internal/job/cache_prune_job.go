package job

import (
	"Birdfeed/internal/pkg/logger"
	"Birdfeed/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

type CachePruneJob struct {
	cacheSvc service.CacheService
}

func NewCachePruneJob(cacheSvc service.CacheService) *CachePruneJob {
	return &CachePruneJob{
		cacheSvc: cacheSvc,
	}
}

func (s *CachePruneJob) Run() {
	traceID := "job-prune-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	pruned, err := s.cacheSvc.PruneExpired(ctx)
	if err != nil {
		log.ErrorContext(ctx, "prune expired generations error", "err", err)
		return
	}

	log.InfoContext(ctx, "CachePruneJob finished", "pruned", pruned)
}
