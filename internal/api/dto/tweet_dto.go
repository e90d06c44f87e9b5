package dto

// EntityDTO 展示层期望的实体形状
type EntityDTO struct {
	Type        string      `json:"type"`
	Text        string      `json:"text"`
	URL         string      `json:"url,omitempty"`
	ExpandedURL string      `json:"expandedUrl,omitempty"`
	DisplayURL  string      `json:"displayUrl,omitempty"`
	MediaKey    string      `json:"mediaKey,omitempty"`
	Metadata    interface{} `json:"metadata,omitempty"`
}

type TweetDTO struct {
	TweetID        string      `json:"tweet_id"`
	Text           string      `json:"text"`
	AuthorUsername string      `json:"author_username,omitempty"`
	LikeCount      int         `json:"like_count"`
	ReplyCount     int         `json:"reply_count"`
	RetweetCount   int         `json:"retweet_count"`
	Score          float64     `json:"score"`
	TweetCreatedAt string      `json:"tweet_created_at"`
	Entities       []EntityDTO `json:"entities"`
}

type FeedDTO struct {
	Generation string      `json:"generation"`
	Tweets     []*TweetDTO `json:"tweets"`
}
