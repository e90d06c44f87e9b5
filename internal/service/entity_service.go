package service

import (
	"Birdfeed/internal/model"
	"Birdfeed/internal/pkg/util"
	"Birdfeed/internal/repository"
	"context"
	log "log/slog"
)

// reconcileBatchDefault 单次调和的默认批量上限
const reconcileBatchDefault = 50

type ReconcileOptions struct {
	DryRun    bool
	Limit     int
	TargetIDs []string
}

type ReconcileItemResult struct {
	TweetID string `json:"tweet_id"`
	Missing int    `json:"missing"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Err     string `json:"err,omitempty"`
}

type ReconcileSummary struct {
	DryRun       bool                  `json:"dry_run"`
	Processed    int                   `json:"processed"`
	MissingTotal int                   `json:"missing_total"`
	CreatedTotal int                   `json:"created_total"`
	SkippedTotal int                   `json:"skipped_total"`
	FailedTotal  int                   `json:"failed_total"`
	Items        []ReconcileItemResult `json:"items"`
}

type EntityService interface {
	FindMissing(ctx context.Context, tweetID string) ([]model.TweetEntity, error)
	CreateMissing(ctx context.Context, tweetRef uint64, entities []model.TweetEntity) (created int, skipped int, failed int)
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileSummary, error)
}

type entityServiceImpl struct {
	tweetRepo  repository.TweetRepo
	entityRepo repository.EntityRepo
}

func NewEntityService(tweetRepo repository.TweetRepo, entityRepo repository.EntityRepo) EntityService {
	return &entityServiceImpl{
		tweetRepo:  tweetRepo,
		entityRepo: entityRepo,
	}
}

// DetectedToEntity 把扫描结果转换为实体模型并写入位置元数据
func DetectedToEntity(d util.DetectedEntity) model.TweetEntity {
	entity := model.TweetEntity{
		Type: model.EntityType(d.Type),
		Text: d.Text,
	}
	switch entity.Type {
	case model.EntityURL:
		entity.URL = d.Text
		entity.DisplayURL = d.DisplayURL
		_ = entity.SetMetadata(model.URLMetadata{Start: d.Start, End: d.End})
	default:
		_ = entity.SetMetadata(model.TextSpanMetadata{Start: d.Start, End: d.End})
	}
	return entity
}

// FindMissing 对推文现文本跑一遍检测，diff 掉已存储的 (type, text)。
// 位置偏移不参与比较，文本被重排过也不会误判缺失。
func (s *entityServiceImpl) FindMissing(ctx context.Context, tweetID string) ([]model.TweetEntity, error) {
	tweet, err := s.tweetRepo.GetByTweetID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if tweet == nil {
		return nil, ErrTweetNotFound
	}

	stored, err := s.entityRepo.ListByTweetRef(ctx, tweet.ID)
	if err != nil {
		return nil, err
	}

	return diffDetected(tweet.Text, stored, tweet.ID), nil
}

func diffDetected(text string, stored []*model.TweetEntity, tweetRef uint64) []model.TweetEntity {
	present := make(map[string]struct{}, len(stored))
	for _, e := range stored {
		present[string(e.Type)+"\x00"+e.Text] = struct{}{}
	}

	var missing []model.TweetEntity
	for _, d := range util.DetectEntities(text) {
		key := d.Type + "\x00" + d.Text
		if _, ok := present[key]; ok {
			continue
		}
		// 同一推文里重复出现的实体按 (type, text) 合并
		present[key] = struct{}{}
		entity := DetectedToEntity(d)
		entity.TweetRef = tweetRef
		missing = append(missing, entity)
	}
	return missing
}

// CreateMissing 逐条创建，写前重查一次存量做幂等校验。
// 单条失败记日志继续，部分成功可接受。
func (s *entityServiceImpl) CreateMissing(ctx context.Context, tweetRef uint64, entities []model.TweetEntity) (int, int, int) {
	stored, err := s.entityRepo.ListByTweetRef(ctx, tweetRef)
	if err != nil {
		log.ErrorContext(ctx, "reload stored entities failed", "tweet_ref", tweetRef, "err", err)
		stored = nil
	}

	var created, skipped, failed int
	for i := range entities {
		entity := entities[i]
		entity.TweetRef = tweetRef

		if containsIdentity(stored, &entity) {
			skipped++
			continue
		}
		if _, err = entity.DecodeMetadata(); err != nil {
			log.WarnContext(ctx, "invalid entity metadata, clearing", "type", entity.Type, "text", entity.Text, "err", err)
			entity.Metadata = nil
		}
		if err = s.entityRepo.Create(ctx, &entity); err != nil {
			log.ErrorContext(ctx, "create entity failed", "tweet_ref", tweetRef, "type", entity.Type, "text", entity.Text, "err", err)
			failed++
			continue
		}
		created++
	}
	return created, skipped, failed
}

func containsIdentity(stored []*model.TweetEntity, entity *model.TweetEntity) bool {
	for _, e := range stored {
		if e.SameIdentity(entity) {
			return true
		}
	}
	return false
}

// Reconcile 批量修复，最近优先，批量有界。dry-run 只检测不落库。
func (s *entityServiceImpl) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = reconcileBatchDefault
	}

	tweets, err := s.loadTargets(ctx, opts.TargetIDs, limit)
	if err != nil {
		return nil, err
	}

	summary := &ReconcileSummary{DryRun: opts.DryRun}
	for _, tweet := range tweets {
		item := ReconcileItemResult{TweetID: tweet.TweetID}

		stored, err := s.entityRepo.ListByTweetRef(ctx, tweet.ID)
		if err != nil {
			item.Err = err.Error()
			summary.Items = append(summary.Items, item)
			log.ErrorContext(ctx, "reconcile skipping tweet", "tweet_id", tweet.TweetID, "err", err)
			continue
		}

		missing := diffDetected(tweet.Text, stored, tweet.ID)
		item.Missing = len(missing)
		summary.MissingTotal += len(missing)

		if !opts.DryRun && len(missing) > 0 {
			item.Created, item.Skipped, item.Failed = s.CreateMissing(ctx, tweet.ID, missing)
			summary.CreatedTotal += item.Created
			summary.SkippedTotal += item.Skipped
			summary.FailedTotal += item.Failed
		}

		summary.Processed++
		summary.Items = append(summary.Items, item)
	}

	log.InfoContext(ctx, "entity reconcile finished",
		"processed", summary.Processed, "missing", summary.MissingTotal,
		"created", summary.CreatedTotal, "failed", summary.FailedTotal, "dry_run", summary.DryRun)
	return summary, nil
}

func (s *entityServiceImpl) loadTargets(ctx context.Context, targetIDs []string, limit int) ([]*model.Tweet, error) {
	if len(targetIDs) == 0 {
		return s.tweetRepo.ListRecent(ctx, limit)
	}

	var tweets []*model.Tweet
	for _, id := range targetIDs {
		if len(tweets) >= limit {
			break
		}
		tweet, err := s.tweetRepo.GetByTweetID(ctx, id)
		if err != nil {
			return nil, err
		}
		if tweet == nil {
			log.WarnContext(ctx, "reconcile target not cached", "tweet_id", id)
			continue
		}
		tweets = append(tweets, tweet)
	}
	return tweets, nil
}
