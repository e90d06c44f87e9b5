package twitter

import (
	"Birdfeed/internal/api/config"
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// ErrRateLimited 平台返回 429
var ErrRateLimited = stderrors.New("rate limited by platform api")

const tweetFields = "created_at,public_metrics,entities,attachments,author_id"
const mediaFields = "media_key,type,url,preview_image_url,width,height"
const userFields = "username,name"

type API interface {
	SearchRecent(ctx context.Context, query string, maxResults int) (*FetchResult, error)
	UserTimeline(ctx context.Context, userID string, maxResults int) (*FetchResult, error)
	CreateTweet(ctx context.Context, text string) (string, error)
}

type Client struct {
	httpClient *resty.Client
}

func NewClient(cfg config.TwitterConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second).
		SetAuthToken(cfg.BearerToken).
		SetHeader("User-Agent", "Birdfeed/1.0")

	return &Client{
		httpClient: client,
	}
}

// SearchRecent 按主题查询最近推文
func (s *Client) SearchRecent(ctx context.Context, query string, maxResults int) (*FetchResult, error) {
	return s.fetchTweets(ctx, "/tweets/search/recent", map[string]string{
		"query":        query,
		"max_results":  strconv.Itoa(maxResults),
		"tweet.fields": tweetFields,
		"media.fields": mediaFields,
		"user.fields":  userFields,
		"expansions":   "attachments.media_keys,author_id",
	})
}

// UserTimeline 拉取配置账号的时间线
func (s *Client) UserTimeline(ctx context.Context, userID string, maxResults int) (*FetchResult, error) {
	return s.fetchTweets(ctx, "/users/"+userID+"/tweets", map[string]string{
		"max_results":  strconv.Itoa(maxResults),
		"tweet.fields": tweetFields,
		"media.fields": mediaFields,
		"user.fields":  userFields,
		"expansions":   "attachments.media_keys,author_id",
	})
}

func (s *Client) fetchTweets(ctx context.Context, path string, params map[string]string) (*FetchResult, error) {
	var body tweetListResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get(path)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s failed", path)
	}

	info := parseRateLimitHeaders(resp)

	if resp.StatusCode() == http.StatusTooManyRequests {
		return &FetchResult{RateLimit: info}, ErrRateLimited
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetch %s failed: status %d: %s", path, resp.StatusCode(), resp.String())
	}

	result := &FetchResult{
		Tweets:    body.Data,
		Media:     map[string]Media{},
		Users:     map[string]User{},
		RateLimit: info,
	}
	if body.Includes != nil {
		for _, m := range body.Includes.Media {
			result.Media[m.MediaKey] = m
		}
		for _, u := range body.Includes.Users {
			result.Users[u.ID] = u
		}
	}
	return result, nil
}

// CreateTweet 对外发推，返回新推文 id
func (s *Client) CreateTweet(ctx context.Context, text string) (string, error) {
	var body createTweetResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(createTweetRequest{Text: text}).
		SetResult(&body).
		Post("/tweets")
	if err != nil {
		return "", errors.Wrap(err, "create tweet failed")
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.IsError() {
		return "", errors.Errorf("create tweet failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	return body.Data.ID, nil
}

// parseRateLimitHeaders 读取 x-rate-limit-remaining / x-rate-limit-reset
func parseRateLimitHeaders(resp *resty.Response) *RateLimitInfo {
	remainingStr := resp.Header().Get("x-rate-limit-remaining")
	resetStr := resp.Header().Get("x-rate-limit-reset")
	if remainingStr == "" || resetStr == "" {
		return nil
	}
	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return nil
	}
	resetEpoch, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return nil
	}
	return &RateLimitInfo{
		Remaining: remaining,
		ResetAt:   time.Unix(resetEpoch, 0),
	}
}
