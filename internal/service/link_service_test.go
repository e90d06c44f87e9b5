package service

import (
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/model"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testResolverConfig() config.ResolverConfig {
	return config.ResolverConfig{
		Providers:   []string{"t.co", "bit.ly"},
		StripParams: []string{"utm_source", "utm_medium"},
		TimeoutSec:  5,
		RatePerSec:  100,
	}
}

func newTestLinkService(entityRepo *fakeEntityRepo, tweetRepo *fakeTweetRepo) *linkServiceImpl {
	return NewLinkService(entityRepo, tweetRepo, testResolverConfig()).(*linkServiceImpl)
}

// newRedirectServer 短路径一律 302 到 /article，落地页带预览元数据
func newRedirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
			<meta property="og:title" content="Landing Title"/>
			<meta property="og:description" content="Landing description"/>
			</head><body>ok</body></html>`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/article?utm_source=feed&id=42", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIsShort(t *testing.T) {
	svc := newTestLinkService(newFakeEntityRepo(), newFakeTweetRepo())

	tests := []struct {
		raw  string
		want bool
	}{
		{"https://t.co/abc123", true},
		{"https://www.t.co/abc123", true},
		{"https://bit.ly/xyz", true},
		// 通用启发式：短域名 + 不透明短路径
		{"https://ex.am/Ab3", true},
		{"https://example.com/some/long/path", false},
		{"https://ex.am/two/segments", false},
		{"https://ex.am/", false},
		{"https://ex.am/with-dash", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		if got := svc.isShort(tt.raw); got != tt.want {
			t.Errorf("isShort(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestExpandNonShortNoNetwork(t *testing.T) {
	svc := newTestLinkService(newFakeEntityRepo(), newFakeTweetRepo())

	// 非短链原样返回，不发请求；可达性不影响结果
	raw := "https://example.com/articles/2026/go-release"
	if got := svc.Expand(context.Background(), raw); got != raw {
		t.Errorf("Expand = %q, want unchanged", got)
	}
}

func TestExpandFollowsRedirectAndStripsParams(t *testing.T) {
	srv := newRedirectServer(t)
	svc := newTestLinkService(newFakeEntityRepo(), newFakeTweetRepo())

	// httptest 的 127.0.0.1 域名短，命中启发式
	got := svc.Expand(context.Background(), srv.URL+"/Ab3")
	want := srv.URL + "/article?id=42"
	if got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

func TestExpandFallsBackToGetWhenHeadRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newTestLinkService(newFakeEntityRepo(), newFakeTweetRepo())
	got := svc.Expand(context.Background(), srv.URL+"/Ab3")
	if got != srv.URL+"/final" {
		t.Errorf("Expand = %q, want GET fallback to resolve %s/final", got, srv.URL)
	}
}

func TestExpandUnreachableKeepsOriginal(t *testing.T) {
	svc := newTestLinkService(newFakeEntityRepo(), newFakeTweetRepo())

	raw := "https://a.invalid/Ab3"
	if got := svc.Expand(context.Background(), raw); got != raw {
		t.Errorf("failed expansion must return the original, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	svc := newTestLinkService(newFakeEntityRepo(), newFakeTweetRepo())

	tests := []struct {
		raw  string
		want string
	}{
		{"https://twitter.com/user/status/1", "https://x.com/user/status/1"},
		{"https://www.twitter.com/user", "https://x.com/user"},
		{"https://mobile.twitter.com/user", "https://x.com/user"},
		{"https://example.com/p?utm_source=a&keep=1", "https://example.com/p?keep=1"},
		{"https://example.com/p", "https://example.com/p"},
	}
	for _, tt := range tests {
		if got := svc.normalize(tt.raw); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRepairLinks(t *testing.T) {
	srv := newRedirectServer(t)
	entityRepo := newFakeEntityRepo()
	entityRepo.unexpanded = []*model.TweetEntity{
		{ID: 1, TweetRef: 1, Type: model.EntityURL, Text: srv.URL + "/Ab3", URL: srv.URL + "/Ab3"},
		{ID: 2, TweetRef: 1, Type: model.EntityURL, Text: "https://example.com/already/long", URL: "https://example.com/already/long"},
	}
	svc := newTestLinkService(entityRepo, newFakeTweetRepo())

	summary, err := svc.RepairLinks(context.Background(), RepairOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Scanned != 2 || summary.Expanded != 1 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(entityRepo.updated) != 1 {
		t.Fatalf("updated = %+v", entityRepo.updated)
	}

	repaired := entityRepo.updated[0]
	if repaired.ExpandedURL != srv.URL+"/article?id=42" {
		t.Errorf("expanded url = %q", repaired.ExpandedURL)
	}
	if repaired.URL != srv.URL+"/Ab3" {
		t.Errorf("original url lost: %q", repaired.URL)
	}

	meta, err := repaired.DecodeMetadata()
	if err != nil {
		t.Fatal(err)
	}
	urlMeta, ok := meta.(*model.URLMetadata)
	if !ok || urlMeta.Title != "Landing Title" || urlMeta.Description != "Landing description" {
		t.Errorf("preview metadata = %+v", meta)
	}
}

func TestRepairLinksDryRun(t *testing.T) {
	srv := newRedirectServer(t)
	entityRepo := newFakeEntityRepo()
	entityRepo.unexpanded = []*model.TweetEntity{
		{ID: 1, TweetRef: 1, Type: model.EntityURL, Text: srv.URL + "/Ab3", URL: srv.URL + "/Ab3"},
	}
	svc := newTestLinkService(entityRepo, newFakeTweetRepo())

	summary, err := svc.RepairLinks(context.Background(), RepairOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Expanded != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(entityRepo.updated) != 0 {
		t.Errorf("dry run wrote entities: %+v", entityRepo.updated)
	}
}
