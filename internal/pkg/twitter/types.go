package twitter

import (
	"time"
)

// RateLimitInfo 响应头中的配额元数据
type RateLimitInfo struct {
	Remaining int
	ResetAt   time.Time
}

type PublicMetrics struct {
	LikeCount    int `json:"like_count"`
	ReplyCount   int `json:"reply_count"`
	RetweetCount int `json:"retweet_count"`
	QuoteCount   int `json:"quote_count"`
}

type RawHashtag struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
}

type RawMention struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Username string `json:"username"`
}

type RawURL struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RawEntities API 自带的结构化实体
type RawEntities struct {
	Hashtags []RawHashtag `json:"hashtags"`
	Mentions []RawMention `json:"mentions"`
	URLs     []RawURL     `json:"urls"`
}

type Attachments struct {
	MediaKeys []string `json:"media_keys"`
}

type TweetData struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	CreatedAt     string        `json:"created_at"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
	Entities      *RawEntities  `json:"entities,omitempty"`
	Attachments   *Attachments  `json:"attachments,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Media struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

type tweetListResponse struct {
	Data     []TweetData `json:"data"`
	Includes *struct {
		Media []Media `json:"media"`
		Users []User  `json:"users"`
	} `json:"includes,omitempty"`
	Meta *struct {
		ResultCount int `json:"result_count"`
	} `json:"meta,omitempty"`
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// FetchResult 单次读取的结果及其配额元数据
type FetchResult struct {
	Tweets    []TweetData
	Media     map[string]Media
	Users     map[string]User
	RateLimit *RateLimitInfo
}
