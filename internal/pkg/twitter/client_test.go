package twitter

import (
	"Birdfeed/internal/api/config"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.TwitterConfig{
		BaseURL:     baseURL,
		BearerToken: "test-token",
		TimeoutSec:  5,
	})
}

func TestSearchRecent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tweets/search/recent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "golang" {
			t.Errorf("query = %q, want golang", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("x-rate-limit-remaining", "42")
		w.Header().Set("x-rate-limit-reset", "1767225600")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": "100", "text": "hello #go", "author_id": "1",
				 "created_at": "2026-03-09T08:30:00Z",
				 "public_metrics": {"like_count": 3, "reply_count": 1, "retweet_count": 2},
				 "attachments": {"media_keys": ["m1"]}}
			],
			"includes": {
				"media": [{"media_key": "m1", "type": "photo", "url": "https://pic/1", "width": 800, "height": 600}],
				"users": [{"id": "1", "username": "gopher", "name": "Go Pher"}]
			},
			"meta": {"result_count": 1}
		}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).SearchRecent(context.Background(), "golang", 10)
	if err != nil {
		t.Fatalf("SearchRecent: %v", err)
	}

	if len(result.Tweets) != 1 {
		t.Fatalf("got %d tweets, want 1", len(result.Tweets))
	}
	tweet := result.Tweets[0]
	if tweet.ID != "100" || tweet.PublicMetrics.LikeCount != 3 {
		t.Errorf("tweet parsed wrong: %+v", tweet)
	}
	if m, ok := result.Media["m1"]; !ok || m.Width != 800 {
		t.Errorf("media not indexed by key: %+v", result.Media)
	}
	if u, ok := result.Users["1"]; !ok || u.Username != "gopher" {
		t.Errorf("users not indexed by id: %+v", result.Users)
	}
	if result.RateLimit == nil {
		t.Fatal("rate limit headers not parsed")
	}
	if result.RateLimit.Remaining != 42 || !result.RateLimit.ResetAt.Equal(time.Unix(1767225600, 0)) {
		t.Errorf("rate limit = %+v", result.RateLimit)
	}
}

func TestFetchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-rate-limit-remaining", "0")
		w.Header().Set("x-rate-limit-reset", "1767225600")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).UserTimeline(context.Background(), "1", 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	// 429 也必须带回配额元数据，调用方要靠它回写余量
	if result == nil || result.RateLimit == nil || result.RateLimit.Remaining != 0 {
		t.Fatalf("rate limit info missing on 429: %+v", result)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).SearchRecent(context.Background(), "q", 10); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestCreateTweet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tweets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data": {"id": "900", "text": "posted"}}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv.URL).CreateTweet(context.Background(), "posted")
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	if id != "900" {
		t.Errorf("id = %q, want 900", id)
	}
}

func TestCreateTweetRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).CreateTweet(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}
