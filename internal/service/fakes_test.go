package service

import (
	"Birdfeed/internal/model"
	"Birdfeed/internal/pkg/twitter"
	"context"
	"time"
)

// 测试替身集中放这里，按仓储接口手写，不引桩件生成器

type fakeTweetRepo struct {
	tweets  map[string]*model.Tweet
	recent  []*model.Tweet
	updated []*model.Tweet
	nextID  uint64
	err     error
}

func newFakeTweetRepo() *fakeTweetRepo {
	return &fakeTweetRepo{tweets: map[string]*model.Tweet{}}
}

func (f *fakeTweetRepo) GetByTweetID(_ context.Context, tweetID string) (*model.Tweet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tweets[tweetID], nil
}

func (f *fakeTweetRepo) GetByRefs(_ context.Context, refs []uint64) ([]*model.Tweet, error) {
	var out []*model.Tweet
	for _, ref := range refs {
		for _, t := range f.tweets {
			if t.ID == ref {
				out = append(out, t)
			}
		}
	}
	return out, f.err
}

func (f *fakeTweetRepo) CreateWithEntities(_ context.Context, tweet *model.Tweet) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	tweet.ID = f.nextID
	for i := range tweet.Entities {
		tweet.Entities[i].TweetRef = tweet.ID
	}
	f.tweets[tweet.TweetID] = tweet
	return nil
}

func (f *fakeTweetRepo) UpdateRefreshable(_ context.Context, tweet *model.Tweet) error {
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, tweet)
	return nil
}

func (f *fakeTweetRepo) ListRecent(_ context.Context, limit int) ([]*model.Tweet, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

type fakeEntityRepo struct {
	entities   map[uint64][]*model.TweetEntity
	created    []*model.TweetEntity
	updated    []*model.TweetEntity
	unexpanded []*model.TweetEntity
	nextID     uint64
	createErr  error
}

func newFakeEntityRepo() *fakeEntityRepo {
	return &fakeEntityRepo{entities: map[uint64][]*model.TweetEntity{}}
}

func (f *fakeEntityRepo) ListByTweetRef(_ context.Context, tweetRef uint64) ([]*model.TweetEntity, error) {
	return f.entities[tweetRef], nil
}

func (f *fakeEntityRepo) Create(_ context.Context, entity *model.TweetEntity) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	entity.ID = f.nextID
	f.entities[entity.TweetRef] = append(f.entities[entity.TweetRef], entity)
	f.created = append(f.created, entity)
	return nil
}

func (f *fakeEntityRepo) Update(_ context.Context, entity *model.TweetEntity) error {
	f.updated = append(f.updated, entity)
	return nil
}

func (f *fakeEntityRepo) ListUnexpandedURLs(_ context.Context, _ []uint64, limit int) ([]*model.TweetEntity, error) {
	if limit < len(f.unexpanded) {
		return f.unexpanded[:limit], nil
	}
	return f.unexpanded, nil
}

type fakeCacheRepo struct {
	active  map[model.GenerationName]*model.CacheGeneration
	swaps   []*model.CacheGeneration
	pruned  int64
	swapErr error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{active: map[model.GenerationName]*model.CacheGeneration{}}
}

func (f *fakeCacheRepo) GetActive(_ context.Context, name model.GenerationName) (*model.CacheGeneration, error) {
	return f.active[name], nil
}

func (f *fakeCacheRepo) SwapGeneration(_ context.Context, gen *model.CacheGeneration, links []model.CacheGenerationTweet) error {
	if f.swapErr != nil {
		return f.swapErr
	}
	gen.IsActive = true
	gen.Links = links
	f.swaps = append(f.swaps, gen)
	f.active[gen.Name] = gen
	return nil
}

func (f *fakeCacheRepo) PruneExpired(_ context.Context, _ time.Time) (int64, error) {
	return f.pruned, nil
}

type fakeRateLimitRepo struct {
	records map[string]*model.RateLimitRecord
	saves   int
}

func newFakeRateLimitRepo() *fakeRateLimitRepo {
	return &fakeRateLimitRepo{records: map[string]*model.RateLimitRecord{}}
}

func (f *fakeRateLimitRepo) GetByEndpoint(_ context.Context, endpoint string) (*model.RateLimitRecord, error) {
	return f.records[endpoint], nil
}

func (f *fakeRateLimitRepo) Create(_ context.Context, record *model.RateLimitRecord) error {
	f.records[record.Endpoint] = record
	return nil
}

func (f *fakeRateLimitRepo) Save(_ context.Context, record *model.RateLimitRecord) error {
	f.saves++
	f.records[record.Endpoint] = record
	return nil
}

func (f *fakeRateLimitRepo) ListAll(_ context.Context) ([]*model.RateLimitRecord, error) {
	var out []*model.RateLimitRecord
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

type fakeQuotaRepo struct {
	days map[string]*model.QuotaUsage
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{days: map[string]*model.QuotaUsage{}}
}

func (f *fakeQuotaRepo) GetDay(_ context.Context, day string) (*model.QuotaUsage, error) {
	if usage, ok := f.days[day]; ok {
		return usage, nil
	}
	return &model.QuotaUsage{Day: day}, nil
}

func (f *fakeQuotaRepo) day(day string) *model.QuotaUsage {
	if _, ok := f.days[day]; !ok {
		f.days[day] = &model.QuotaUsage{Day: day}
	}
	return f.days[day]
}

func (f *fakeQuotaRepo) IncrementTweetsCreated(_ context.Context, day string) error {
	f.day(day).TweetsCreated++
	return nil
}

func (f *fakeQuotaRepo) IncrementFetchRuns(_ context.Context, day string) error {
	f.day(day).FetchRuns++
	return nil
}

// fakeRateLimitService 按端点脚本回答 CanProceed，默认放行
type fakeRateLimitService struct {
	script        map[string][]bool
	fetchQuotaErr error
	tweetQuotaErr error
	waited        []string
	usageRecorded []string
	tweetsCreated int
}

func (f *fakeRateLimitService) CanProceed(_ context.Context, endpoint string) (bool, error) {
	if answers, ok := f.script[endpoint]; ok && len(answers) > 0 {
		answer := answers[0]
		f.script[endpoint] = answers[1:]
		return answer, nil
	}
	return true, nil
}

func (f *fakeRateLimitService) RecordUsage(_ context.Context, endpoint string, _ int, _ time.Time) error {
	f.usageRecorded = append(f.usageRecorded, endpoint)
	return nil
}

func (f *fakeRateLimitService) WaitIfNeeded(_ context.Context, endpoint string) error {
	f.waited = append(f.waited, endpoint)
	return nil
}

func (f *fakeRateLimitService) ConsumeFetchQuota(_ context.Context) error {
	return f.fetchQuotaErr
}

func (f *fakeRateLimitService) CheckTweetQuota(_ context.Context) error {
	return f.tweetQuotaErr
}

func (f *fakeRateLimitService) RecordTweetCreated(_ context.Context) error {
	f.tweetsCreated++
	return nil
}

func (f *fakeRateLimitService) ListRecords(_ context.Context) ([]*model.RateLimitRecord, error) {
	return nil, nil
}

type fakeCacheService struct {
	cachedTweets []*model.Tweet
	cachedName   model.GenerationName
	cacheErr     error
	published    [][]uint64
	publishErr   error
	prunedErr    error
}

func (f *fakeCacheService) CacheTweets(_ context.Context, tweets []*model.Tweet, name model.GenerationName) (*CacheSummary, error) {
	f.cachedTweets = tweets
	f.cachedName = name
	return &CacheSummary{Cached: len(tweets), Created: len(tweets)}, f.cacheErr
}

func (f *fakeCacheService) GetGeneration(_ context.Context, _ model.GenerationName) ([]*model.Tweet, error) {
	return nil, ErrGenerationEmpty
}

func (f *fakeCacheService) PublishSelected(_ context.Context, tweetRefs []uint64) (int, error) {
	if f.publishErr != nil {
		return 0, f.publishErr
	}
	f.published = append(f.published, tweetRefs)
	return len(tweetRefs), nil
}

func (f *fakeCacheService) PruneExpired(_ context.Context) (int64, error) {
	return 0, f.prunedErr
}

// fakeTwitterAPI 固定返回预置结果的平台客户端
type fakeTwitterAPI struct {
	searchResult   *twitter.FetchResult
	searchErr      error
	searchCalls    int
	timelineResult *twitter.FetchResult
	timelineErr    error
	timelineCalls  int
	createdID      string
	createErr      error
	createdTexts   []string
}

func (f *fakeTwitterAPI) SearchRecent(_ context.Context, _ string, _ int) (*twitter.FetchResult, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return f.searchResult, f.searchErr
	}
	return f.searchResult, nil
}

func (f *fakeTwitterAPI) UserTimeline(_ context.Context, _ string, _ int) (*twitter.FetchResult, error) {
	f.timelineCalls++
	if f.timelineErr != nil {
		return f.timelineResult, f.timelineErr
	}
	return f.timelineResult, nil
}

func (f *fakeTwitterAPI) CreateTweet(_ context.Context, text string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createdTexts = append(f.createdTexts, text)
	return f.createdID, nil
}
