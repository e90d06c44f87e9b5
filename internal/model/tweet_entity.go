package model

import (
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

type EntityType string

const (
	EntityMention EntityType = "mention"
	EntityHashtag EntityType = "hashtag"
	EntityURL     EntityType = "url"
	EntityMedia   EntityType = "media"
)

type TweetEntity struct {
	ID          uint64         `gorm:"primaryKey"`
	TweetRef    uint64         `gorm:"not null;index:idx_tweet_ref" json:"tweet_ref"`
	Type        EntityType     `gorm:"type:varchar(16);not null" json:"type"`
	Text        string         `gorm:"type:varchar(512);not null" json:"text"`
	URL         string         `gorm:"type:varchar(2048)" json:"url,omitempty"`
	ExpandedURL string         `gorm:"type:varchar(2048)" json:"expanded_url,omitempty"`
	DisplayURL  string         `gorm:"type:varchar(128)" json:"display_url,omitempty"`
	MediaKey    string         `gorm:"type:varchar(64)" json:"media_key,omitempty"`
	Metadata    datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (TweetEntity) TableName() string {
	return "tweet_entities"
}

// SameIdentity 实体同一性按 (type, text) 判定，位置信息不参与比较
func (e *TweetEntity) SameIdentity(other *TweetEntity) bool {
	return e.Type == other.Type && e.Text == other.Text
}

// TextSpanMetadata mention/hashtag 元数据：原文中的位置区间
type TextSpanMetadata struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// URLMetadata url 元数据：位置区间 + 链接预览
type URLMetadata struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// MediaMetadata media 元数据：预览图尺寸
type MediaMetadata struct {
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// SetMetadata 按实体类型序列化元数据
func (e *TweetEntity) SetMetadata(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.Metadata = b
	return nil
}

// DecodeMetadata 按实体类型反序列化元数据，类型不匹配返回错误
func (e *TweetEntity) DecodeMetadata() (any, error) {
	if len(e.Metadata) == 0 {
		return nil, nil
	}
	switch e.Type {
	case EntityURL:
		var m URLMetadata
		if err := json.Unmarshal(e.Metadata, &m); err != nil {
			return nil, err
		}
		return &m, nil
	case EntityMedia:
		var m MediaMetadata
		if err := json.Unmarshal(e.Metadata, &m); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		var m TextSpanMetadata
		if err := json.Unmarshal(e.Metadata, &m); err != nil {
			return nil, err
		}
		return &m, nil
	}
}
