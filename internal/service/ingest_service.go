package service

import (
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/model"
	"Birdfeed/internal/pkg/consts"
	"Birdfeed/internal/pkg/twitter"
	"Birdfeed/internal/pkg/util"
	"Birdfeed/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"
)

// selectPoolSize 参与精选重排的缓存池大小
const selectPoolSize = 200

type IngestState string

const (
	StateIdle           IngestState = "idle"
	StateRateLimitCheck IngestState = "rate_limit_check"
	StateFetching       IngestState = "fetching"
	StateValidating     IngestState = "validating"
	StateCaching        IngestState = "caching"
	StateSelecting      IngestState = "selecting"
	StateBlocked        IngestState = "blocked"
)

type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusBlocked   RunStatus = "blocked"
	StatusFailed    RunStatus = "failed"
)

// RunResult 每轮摄取的结构化结果，调度方只记日志，从不因它崩溃
type RunResult struct {
	Status     RunStatus     `json:"status"`
	States     []IngestState `json:"states"`
	Fetched    int           `json:"fetched"`
	Validated  int           `json:"validated"`
	Cached     int           `json:"cached"`
	Failed     int           `json:"failed"`
	Selected   int           `json:"selected"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Err        string        `json:"err,omitempty"`
}

type IngestService interface {
	Run(ctx context.Context) *RunResult
	PublishTweet(ctx context.Context, text string) (string, error)
}

type ingestServiceImpl struct {
	api          twitter.API
	rateLimitSvc RateLimitService
	cacheSvc     CacheService
	scorer       *Scorer
	tweetRepo    repository.TweetRepo
	twitterCfg   config.TwitterConfig
	cacheCfg     config.CacheConfig

	now func() time.Time
}

func NewIngestService(
	api twitter.API,
	rateLimitSvc RateLimitService,
	cacheSvc CacheService,
	scorer *Scorer,
	tweetRepo repository.TweetRepo,
	twitterCfg config.TwitterConfig,
	cacheCfg config.CacheConfig,
) IngestService {
	return &ingestServiceImpl{
		api:          api,
		rateLimitSvc: rateLimitSvc,
		cacheSvc:     cacheSvc,
		scorer:       scorer,
		tweetRepo:    tweetRepo,
		twitterCfg:   twitterCfg,
		cacheCfg:     cacheCfg,
		now:          time.Now,
	}
}

// Run 执行一轮摄取：限流检查 → 抓取 → 校验 → 缓存 → 精选。
// 一轮内第二次被限流直接终止，不做无界退避；
// 被限流的轮次依然执行精选，下游始终能拿到新鲜的一批。
func (s *ingestServiceImpl) Run(ctx context.Context) *RunResult {
	result := &RunResult{Status: StatusCompleted, StartedAt: s.now()}
	trace := func(state IngestState) {
		result.States = append(result.States, state)
	}
	defer func() {
		trace(StateIdle)
		result.FinishedAt = s.now()
	}()

	trace(StateIdle)
	trace(StateRateLimitCheck)

	if err := s.rateLimitSvc.ConsumeFetchQuota(ctx); err != nil {
		if errors.Is(err, ErrDailyQuotaUsed) {
			result.Status = StatusBlocked
			result.Err = err.Error()
			s.selectAndPublish(ctx, result, trace)
			return result
		}
		result.Status = StatusFailed
		result.Err = err.Error()
		return result
	}

	trace(StateFetching)
	blockedOnce := false
	merged := make(map[string]twitter.TweetData)
	order := make([]string, 0)
	media := make(map[string]twitter.Media)
	users := make(map[string]twitter.User)

	fetches := []struct {
		endpoint string
		call     func(context.Context) (*twitter.FetchResult, error)
	}{
		{consts.EndpointSearch, func(ctx context.Context) (*twitter.FetchResult, error) {
			return s.api.SearchRecent(ctx, s.twitterCfg.SearchQuery, s.twitterCfg.MaxResults)
		}},
		{consts.EndpointTimeline, func(ctx context.Context) (*twitter.FetchResult, error) {
			return s.api.UserTimeline(ctx, s.twitterCfg.AccountID, s.twitterCfg.MaxResults)
		}},
	}

	for _, f := range fetches {
		fetched, err := s.fetchGated(ctx, f.endpoint, f.call, &blockedOnce, trace)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				result.Status = StatusBlocked
				result.Err = err.Error()
				s.selectAndPublish(ctx, result, trace)
				return result
			}
			result.Status = StatusFailed
			result.Err = err.Error()
			return result
		}
		// 新条目覆盖同 id 的旧条目
		for _, t := range fetched.Tweets {
			if _, ok := merged[t.ID]; !ok {
				order = append(order, t.ID)
			}
			merged[t.ID] = t
		}
		for k, m := range fetched.Media {
			media[k] = m
		}
		for k, u := range fetched.Users {
			users[k] = u
		}
	}

	result.Fetched = len(merged)
	if result.Fetched == 0 {
		// 两路都为空宁可失败，不静默缓存空集
		result.Status = StatusFailed
		result.Err = ErrEmptyFetch.Error()
		return result
	}

	trace(StateValidating)
	tweets := make([]*model.Tweet, 0, len(order))
	for _, id := range order {
		tweets = append(tweets, s.buildTweet(merged[id], media, users))
	}
	result.Validated = len(tweets)

	trace(StateCaching)
	summary, err := s.cacheSvc.CacheTweets(ctx, tweets, model.GenerationCurrent)
	if summary != nil {
		result.Cached = summary.Cached
		result.Failed = summary.Failed
	}
	if err != nil {
		result.Status = StatusFailed
		result.Err = err.Error()
		return result
	}

	s.selectAndPublish(ctx, result, trace)
	return result
}

// fetchGated 带限流闸门的单端点抓取。等待一次后再次被限流即认定致命
func (s *ingestServiceImpl) fetchGated(
	ctx context.Context,
	endpoint string,
	call func(context.Context) (*twitter.FetchResult, error),
	blockedOnce *bool,
	trace func(IngestState),
) (*twitter.FetchResult, error) {
	var transportRetried bool

	for {
		ok, err := s.rateLimitSvc.CanProceed(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if !ok {
			if *blockedOnce {
				return nil, ErrRateLimited
			}
			*blockedOnce = true
			trace(StateBlocked)
			if err = s.rateLimitSvc.WaitIfNeeded(ctx, endpoint); err != nil {
				return nil, err
			}
			trace(StateFetching)
			continue
		}

		fetched, err := call(ctx)
		if fetched != nil && fetched.RateLimit != nil {
			if recErr := s.rateLimitSvc.RecordUsage(ctx, endpoint, fetched.RateLimit.Remaining, fetched.RateLimit.ResetAt); recErr != nil {
				log.WarnContext(ctx, "record rate limit usage failed", "endpoint", endpoint, "err", recErr)
			}
		}
		if err == nil {
			return fetched, nil
		}

		if errors.Is(err, twitter.ErrRateLimited) {
			if *blockedOnce {
				return nil, ErrRateLimited
			}
			*blockedOnce = true
			trace(StateBlocked)
			if waitErr := s.rateLimitSvc.WaitIfNeeded(ctx, endpoint); waitErr != nil {
				return nil, waitErr
			}
			trace(StateFetching)
			continue
		}

		// 传输错误最多重试一次
		if !transportRetried {
			transportRetried = true
			log.WarnContext(ctx, "fetch transport error, retrying once", "endpoint", endpoint, "err", err)
			continue
		}
		return nil, err
	}
}

// buildTweet 校验时间戳、拼装实体并打分
func (s *ingestServiceImpl) buildTweet(data twitter.TweetData, media map[string]twitter.Media, users map[string]twitter.User) *model.Tweet {
	tweet := &model.Tweet{
		TweetID:        data.ID,
		Text:           data.Text,
		AuthorID:       data.AuthorID,
		AuthorUsername: users[data.AuthorID].Username,
		LikeCount:      data.PublicMetrics.LikeCount,
		ReplyCount:     data.PublicMetrics.ReplyCount,
		RetweetCount:   data.PublicMetrics.RetweetCount,
		Source:         consts.SourceSearch,
		TweetCreatedAt: util.ParseTweetTime(data.CreatedAt),
	}
	if data.AuthorID == s.twitterCfg.AccountID {
		tweet.Source = consts.SourceTimeline
	}

	entities := entitiesFromAPI(data, media)

	// API 没给全的，用文本检测补齐
	for _, d := range util.DetectEntities(data.Text) {
		candidate := DetectedToEntity(d)
		if !containsIdentityValue(entities, &candidate) {
			entities = append(entities, candidate)
		}
	}

	tweet.Entities = entities
	tweet.Score = s.scorer.Score(tweet.Text, entities)
	return tweet
}

// entitiesFromAPI API 自带实体优先，其结构化字段比文本检测更完整
func entitiesFromAPI(data twitter.TweetData, media map[string]twitter.Media) []model.TweetEntity {
	var entities []model.TweetEntity

	if data.Entities != nil {
		for _, m := range data.Entities.Mentions {
			entity := model.TweetEntity{Type: model.EntityMention, Text: m.Username}
			_ = entity.SetMetadata(model.TextSpanMetadata{Start: m.Start, End: m.End})
			entities = append(entities, entity)
		}
		for _, h := range data.Entities.Hashtags {
			entity := model.TweetEntity{Type: model.EntityHashtag, Text: h.Tag}
			_ = entity.SetMetadata(model.TextSpanMetadata{Start: h.Start, End: h.End})
			entities = append(entities, entity)
		}
		for _, u := range data.Entities.URLs {
			entity := model.TweetEntity{
				Type:        model.EntityURL,
				Text:        u.URL,
				URL:         u.URL,
				ExpandedURL: u.ExpandedURL,
				DisplayURL:  u.DisplayURL,
			}
			if entity.DisplayURL == "" {
				entity.DisplayURL = util.TruncateDisplayURL(u.ExpandedURL)
			}
			_ = entity.SetMetadata(model.URLMetadata{
				Start: u.Start, End: u.End,
				Title: u.Title, Description: u.Description,
			})
			entities = append(entities, entity)
		}
	}

	if data.Attachments != nil {
		for _, key := range data.Attachments.MediaKeys {
			entity := model.TweetEntity{Type: model.EntityMedia, Text: key, MediaKey: key}
			if m, ok := media[key]; ok {
				entity.URL = m.URL
				_ = entity.SetMetadata(model.MediaMetadata{
					Width: m.Width, Height: m.Height, PreviewURL: m.PreviewImageURL,
				})
			}
			entities = append(entities, entity)
		}
	}
	return entities
}

// selectAndPublish 从全量缓存重排并发布 selected 代
func (s *ingestServiceImpl) selectAndPublish(ctx context.Context, result *RunResult, trace func(IngestState)) {
	trace(StateSelecting)

	pool, err := s.tweetRepo.ListRecent(ctx, selectPoolSize)
	if err != nil {
		log.ErrorContext(ctx, "load selection pool failed", "err", err)
		return
	}
	if len(pool) == 0 {
		return
	}

	seed := s.now().UnixNano()
	selected := s.scorer.SelectTweets(pool, seed, s.cacheCfg.SelectedSize, s.now())

	refs := make([]uint64, 0, len(selected))
	for _, t := range selected {
		refs = append(refs, t.ID)
	}
	published, err := s.cacheSvc.PublishSelected(ctx, refs)
	if err != nil {
		log.ErrorContext(ctx, "publish selected generation failed", "err", err)
		return
	}
	result.Selected = published
}

// PublishTweet 对外发推，受当日配额约束，成功后累计计数
func (s *ingestServiceImpl) PublishTweet(ctx context.Context, text string) (string, error) {
	if err := s.rateLimitSvc.CheckTweetQuota(ctx); err != nil {
		return "", err
	}

	id, err := s.api.CreateTweet(ctx, text)
	if err != nil {
		if errors.Is(err, twitter.ErrRateLimited) {
			return "", ErrRateLimited
		}
		return "", err
	}

	if err = s.rateLimitSvc.RecordTweetCreated(ctx); err != nil {
		log.ErrorContext(ctx, "record tweet quota failed", "err", err)
	}
	return id, nil
}
