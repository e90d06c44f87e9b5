package service

import (
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/model"
	"Birdfeed/internal/repository"
	"context"
	log "log/slog"
	"time"
)

type CacheSummary struct {
	Cached        int `json:"cached"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Failed        int `json:"failed"`
	EntitiesAdded int `json:"entities_added"`
}

type CacheService interface {
	CacheTweets(ctx context.Context, tweets []*model.Tweet, name model.GenerationName) (*CacheSummary, error)
	GetGeneration(ctx context.Context, name model.GenerationName) ([]*model.Tweet, error)
	PublishSelected(ctx context.Context, tweetRefs []uint64) (int, error)
	PruneExpired(ctx context.Context) (int64, error)
}

type cacheServiceImpl struct {
	tweetRepo  repository.TweetRepo
	entityRepo repository.EntityRepo
	cacheRepo  repository.CacheRepo
	cfg        config.CacheConfig
}

func NewCacheService(tweetRepo repository.TweetRepo, entityRepo repository.EntityRepo, cacheRepo repository.CacheRepo, cfg config.CacheConfig) CacheService {
	return &cacheServiceImpl{
		tweetRepo:  tweetRepo,
		entityRepo: entityRepo,
		cacheRepo:  cacheRepo,
		cfg:        cfg,
	}
}

// CacheTweets 逐条幂等 upsert 后做缓存代轮换。单条失败记日志跳过，
// 不让一条坏数据拖垮整批。
func (s *cacheServiceImpl) CacheTweets(ctx context.Context, tweets []*model.Tweet, name model.GenerationName) (*CacheSummary, error) {
	summary := &CacheSummary{}
	refs := make([]uint64, 0, len(tweets))

	for _, tweet := range tweets {
		ref, created, added, err := s.upsertTweet(ctx, tweet)
		if err != nil {
			log.ErrorContext(ctx, "cache tweet failed", "tweet_id", tweet.TweetID, "err", err)
			summary.Failed++
			continue
		}
		refs = append(refs, ref)
		summary.Cached++
		summary.EntitiesAdded += added
		if created {
			summary.Created++
		} else {
			summary.Updated++
		}
	}

	if name == model.GenerationCurrent {
		if err := s.rotatePrevious(ctx); err != nil {
			log.WarnContext(ctx, "previous generation rotation failed", "err", err)
		}
	}

	gen := &model.CacheGeneration{Name: name}
	if name == model.GenerationCurrent {
		expiresAt := time.Now().Add(time.Duration(s.cfg.CurrentTTLMin) * time.Minute)
		gen.ExpiresAt = &expiresAt
	}
	links := make([]model.CacheGenerationTweet, 0, len(refs))
	for i, ref := range refs {
		links = append(links, model.CacheGenerationTweet{TweetRef: ref, Position: i})
	}
	if err := s.cacheRepo.SwapGeneration(ctx, gen, links); err != nil {
		return summary, err
	}

	log.InfoContext(ctx, "cache generation swapped", "name", name,
		"cached", summary.Cached, "created", summary.Created,
		"updated", summary.Updated, "failed", summary.Failed)
	return summary, nil
}

// upsertTweet 已存在则刷新可变字段并只补缺失实体，创建时间一律保留；
// 不存在则连实体一并创建
func (s *cacheServiceImpl) upsertTweet(ctx context.Context, tweet *model.Tweet) (uint64, bool, int, error) {
	existing, err := s.tweetRepo.GetByTweetID(ctx, tweet.TweetID)
	if err != nil {
		return 0, false, 0, err
	}

	if existing == nil {
		if err = s.tweetRepo.CreateWithEntities(ctx, tweet); err != nil {
			return 0, false, 0, err
		}
		return tweet.ID, true, len(tweet.Entities), nil
	}

	existing.Text = tweet.Text
	existing.LikeCount = tweet.LikeCount
	existing.ReplyCount = tweet.ReplyCount
	existing.RetweetCount = tweet.RetweetCount
	existing.Score = tweet.Score
	existing.Source = tweet.Source
	if err = s.tweetRepo.UpdateRefreshable(ctx, existing); err != nil {
		return 0, false, 0, err
	}

	added := 0
	for i := range tweet.Entities {
		entity := tweet.Entities[i]
		if containsIdentityValue(existing.Entities, &entity) {
			continue
		}
		entity.TweetRef = existing.ID
		if err = s.entityRepo.Create(ctx, &entity); err != nil {
			log.ErrorContext(ctx, "append entity failed", "tweet_id", tweet.TweetID, "type", entity.Type, "err", err)
			continue
		}
		existing.Entities = append(existing.Entities, entity)
		added++
	}
	return existing.ID, false, added, nil
}

func containsIdentityValue(stored []model.TweetEntity, entity *model.TweetEntity) bool {
	for i := range stored {
		if stored[i].SameIdentity(entity) {
			return true
		}
	}
	return false
}

// rotatePrevious 把即将被替换的 current 快照改挂为新的 previous 代，
// 留作回滚和排查
func (s *cacheServiceImpl) rotatePrevious(ctx context.Context) error {
	current, err := s.cacheRepo.GetActive(ctx, model.GenerationCurrent)
	if err != nil {
		return err
	}
	if current == nil || len(current.Links) == 0 {
		return nil
	}

	links := make([]model.CacheGenerationTweet, 0, len(current.Links))
	for _, link := range current.Links {
		links = append(links, model.CacheGenerationTweet{TweetRef: link.TweetRef, Position: link.Position})
	}
	return s.cacheRepo.SwapGeneration(ctx, &model.CacheGeneration{Name: model.GenerationPrevious}, links)
}

// GetGeneration 返回指定名字活跃代的推文，selected 按发布顺序
func (s *cacheServiceImpl) GetGeneration(ctx context.Context, name model.GenerationName) ([]*model.Tweet, error) {
	gen, err := s.cacheRepo.GetActive(ctx, name)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, ErrGenerationEmpty
	}

	tweets := make([]*model.Tweet, 0, len(gen.Links))
	for i := range gen.Links {
		tweet := gen.Links[i].Tweet
		tweets = append(tweets, &tweet)
	}
	return tweets, nil
}

// PublishSelected 发布精选代，超出上限只取前 N 个
func (s *cacheServiceImpl) PublishSelected(ctx context.Context, tweetRefs []uint64) (int, error) {
	if len(tweetRefs) > s.cfg.SelectedSize {
		tweetRefs = tweetRefs[:s.cfg.SelectedSize]
	}

	links := make([]model.CacheGenerationTweet, 0, len(tweetRefs))
	for i, ref := range tweetRefs {
		links = append(links, model.CacheGenerationTweet{TweetRef: ref, Position: i})
	}

	// selected 永不过期，数量有界
	if err := s.cacheRepo.SwapGeneration(ctx, &model.CacheGeneration{Name: model.GenerationSelected}, links); err != nil {
		return 0, err
	}
	return len(links), nil
}

func (s *cacheServiceImpl) PruneExpired(ctx context.Context) (int64, error) {
	return s.cacheRepo.PruneExpired(ctx, time.Now())
}
