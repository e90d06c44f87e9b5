package service

import (
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/model"
	"Birdfeed/internal/pkg/util"
	"Birdfeed/internal/repository"
	"context"
	log "log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// repairBatchDefault 单次修复的默认批量上限
const repairBatchDefault = 50

type RepairOptions struct {
	DryRun    bool
	Limit     int
	TargetIDs []string
}

type RepairSummary struct {
	DryRun   bool `json:"dry_run"`
	Scanned  int  `json:"scanned"`
	Expanded int  `json:"expanded"`
	Skipped  int  `json:"skipped"`
	Failed   int  `json:"failed"`
}

type LinkService interface {
	Expand(ctx context.Context, raw string) string
	RepairLinks(ctx context.Context, opts RepairOptions) (*RepairSummary, error)
}

type linkServiceImpl struct {
	entityRepo repository.EntityRepo
	tweetRepo  repository.TweetRepo
	cfg        config.ResolverConfig
	httpClient *resty.Client
	limiter    *rate.Limiter
	providers  map[string]struct{}
}

func NewLinkService(entityRepo repository.EntityRepo, tweetRepo repository.TweetRepo, cfg config.ResolverConfig) LinkService {
	client := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", "Birdfeed/1.0")

	providers := make(map[string]struct{}, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers[strings.ToLower(p)] = struct{}{}
	}

	return &linkServiceImpl{
		entityRepo: entityRepo,
		tweetRepo:  tweetRepo,
		cfg:        cfg,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		providers:  providers,
	}
}

// Expand 展开短链。非短链直接原样返回，不发起任何网络请求；
// 展开失败也返回原始链接，降级为"未展开"，从不对调用方报错。
func (s *linkServiceImpl) Expand(ctx context.Context, raw string) string {
	if !s.isShort(raw) {
		return raw
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return raw
	}

	resolved, err := s.resolve(ctx, raw)
	if err != nil {
		log.WarnContext(ctx, "link expansion failed, keeping original", "url", raw, "err", err)
		return raw
	}
	return s.normalize(resolved)
}

// isShort 已知短链域名命中，或命中通用启发式：短域名 + 不透明短路径
func (s *linkServiceImpl) isShort(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
	if _, ok := s.providers[host]; ok {
		return true
	}

	if len(host) > 10 || !strings.Contains(host, ".") {
		return false
	}
	segment := strings.Trim(parsed.Path, "/")
	if segment == "" || strings.Contains(segment, "/") || len(segment) > 12 {
		return false
	}
	for _, r := range segment {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// resolve 先 HEAD，部分服务器拒绝 HEAD 时退化为一次 GET
func (s *linkServiceImpl) resolve(ctx context.Context, raw string) (string, error) {
	resp, err := s.httpClient.R().SetContext(ctx).Head(raw)
	if err == nil && !resp.IsError() {
		return finalURL(resp, raw), nil
	}

	resp, err = s.httpClient.R().SetContext(ctx).Get(raw)
	if err != nil {
		return "", err
	}
	return finalURL(resp, raw), nil
}

func finalURL(resp *resty.Response, fallback string) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return fallback
}

// normalize 平台旧域名归一到现域名，并剥离已知跟踪参数
func (s *linkServiceImpl) normalize(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "twitter.com" || host == "www.twitter.com" || host == "mobile.twitter.com" {
		parsed.Host = "x.com"
	}

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for _, p := range s.cfg.StripParams {
			query.Del(p)
		}
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

// fetchPreview 抓取 og:title / og:description 作为链接预览，尽力而为
func (s *linkServiceImpl) fetchPreview(ctx context.Context, raw string) (string, string) {
	resp, err := s.httpClient.R().SetContext(ctx).Get(raw)
	if err != nil || resp.IsError() {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", ""
	}

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	description, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	if description == "" {
		description, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	return title, description
}

// RepairLinks 对已缓存的 url 实体批量补展开。单条失败记日志继续，
// 这是尽力而为的修复任务，不是事务操作。
func (s *linkServiceImpl) RepairLinks(ctx context.Context, opts RepairOptions) (*RepairSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = repairBatchDefault
	}

	refs, err := s.resolveTargets(ctx, opts.TargetIDs)
	if err != nil {
		return nil, err
	}

	entities, err := s.entityRepo.ListUnexpandedURLs(ctx, refs, limit)
	if err != nil {
		return nil, err
	}

	summary := &RepairSummary{DryRun: opts.DryRun, Scanned: len(entities)}
	for _, entity := range entities {
		target := entity.URL
		if target == "" {
			target = entity.Text
		}

		expanded := s.Expand(ctx, target)
		if expanded == target {
			summary.Skipped++
			continue
		}
		if opts.DryRun {
			summary.Expanded++
			continue
		}

		if err = s.applyExpansion(ctx, entity, target, expanded); err != nil {
			log.ErrorContext(ctx, "link repair failed for entity", "entity_id", entity.ID, "err", err)
			summary.Failed++
			continue
		}
		summary.Expanded++
	}

	log.InfoContext(ctx, "link repair finished",
		"scanned", summary.Scanned, "expanded", summary.Expanded,
		"skipped", summary.Skipped, "failed", summary.Failed, "dry_run", summary.DryRun)
	return summary, nil
}

func (s *linkServiceImpl) applyExpansion(ctx context.Context, entity *model.TweetEntity, original, expanded string) error {
	entity.URL = original
	entity.ExpandedURL = expanded
	entity.DisplayURL = util.TruncateDisplayURL(expanded)

	meta := model.URLMetadata{}
	if existing, err := entity.DecodeMetadata(); err == nil {
		if m, ok := existing.(*model.URLMetadata); ok && m != nil {
			meta = *m
		}
	}
	title, description := s.fetchPreview(ctx, expanded)
	if title != "" {
		meta.Title = title
	}
	if description != "" {
		meta.Description = description
	}
	if err := entity.SetMetadata(meta); err != nil {
		return err
	}

	return s.entityRepo.Update(ctx, entity)
}

// resolveTargets 把外部 tweet id 列表换算成内部引用
func (s *linkServiceImpl) resolveTargets(ctx context.Context, targetIDs []string) ([]uint64, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	refs := make([]uint64, 0, len(targetIDs))
	for _, id := range targetIDs {
		tweet, err := s.tweetRepo.GetByTweetID(ctx, id)
		if err != nil {
			return nil, err
		}
		if tweet == nil {
			continue
		}
		refs = append(refs, tweet.ID)
	}
	return refs, nil
}
