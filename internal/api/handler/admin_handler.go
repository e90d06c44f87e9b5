package handler

import (
	"Birdfeed/internal/api/dto"
	"Birdfeed/internal/pkg/consts"
	"Birdfeed/internal/pkg/redis"
	"Birdfeed/internal/pkg/response"
	"Birdfeed/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type AdminHandler struct {
	ingestSvc    service.IngestService
	entitySvc    service.EntityService
	linkSvc      service.LinkService
	rateLimitSvc service.RateLimitService
}

func NewAdminHandler(
	ingestSvc service.IngestService,
	entitySvc service.EntityService,
	linkSvc service.LinkService,
	rateLimitSvc service.RateLimitService,
) *AdminHandler {
	return &AdminHandler{
		ingestSvc:    ingestSvc,
		entitySvc:    entitySvc,
		linkSvc:      linkSvc,
		rateLimitSvc: rateLimitSvc,
	}
}

// RunIngest 手动触发一轮摄取，同步返回结果
func (s *AdminHandler) RunIngest(c *gin.Context) {
	result := s.ingestSvc.Run(c.Request.Context())
	response.Success(c, result)
}

// IngestStatus 最近一轮摄取的快照
func (s *AdminHandler) IngestStatus(c *gin.Context) {
	raw, err := redis.GetValue(c.Request.Context(), consts.IngestLastRunKey)
	if err != nil {
		response.Error(c, err)
		return
	}
	if raw == "" {
		response.Success(c, nil)
		return
	}

	var result service.RunResult
	if err = json.Unmarshal([]byte(raw), &result); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReconcileEntities 实体调和修复任务，同类修复任务同时只跑一个
func (s *AdminHandler) ReconcileEntities(c *gin.Context) {
	var req dto.RepairJobDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	release, err := acquireRepairLock(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	summary, err := s.entitySvc.Reconcile(c.Request.Context(), service.ReconcileOptions{
		DryRun:    req.DryRun,
		Limit:     req.Limit,
		TargetIDs: req.TargetIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// RepairLinks 短链展开修复任务
func (s *AdminHandler) RepairLinks(c *gin.Context) {
	var req dto.RepairJobDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	release, err := acquireRepairLock(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	summary, err := s.linkSvc.RepairLinks(c.Request.Context(), service.RepairOptions{
		DryRun:    req.DryRun,
		Limit:     req.Limit,
		TargetIDs: req.TargetIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// acquireRepairLock 修复任务的互斥锁，拿不到返回 ErrRepairInProgress
func acquireRepairLock(c *gin.Context) (func(), error) {
	lockUUID := uuid.NewString()
	ok, err := redis.TryLock(c.Request.Context(), consts.RepairLock, lockUUID, 10*time.Minute, 0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, service.ErrRepairInProgress
	}
	return func() {
		redis.UnLock(c.Request.Context(), consts.RepairLock, lockUUID)
	}, nil
}

// ListRateLimits 当前各端点的限流记录
func (s *AdminHandler) ListRateLimits(c *gin.Context) {
	records, err := s.rateLimitSvc.ListRecords(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}

// PublishTweet 对外发推，受当日配额约束
func (s *AdminHandler) PublishTweet(c *gin.Context) {
	var req dto.PublishTweetDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	id, err := s.ingestSvc.PublishTweet(c.Request.Context(), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"tweet_id": id})
}
