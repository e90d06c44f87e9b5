package model

import (
	"time"
)

type GenerationName string

const (
	GenerationCurrent  GenerationName = "current"
	GenerationPrevious GenerationName = "previous"
	GenerationSelected GenerationName = "selected"
)

type CacheGeneration struct {
	ID        uint64         `gorm:"primaryKey"`
	Name      GenerationName `gorm:"type:varchar(16);not null;index:idx_name_active,priority:1" json:"name"`
	IsActive  bool           `gorm:"type:tinyint(1);not null;default:0;index:idx_name_active,priority:2" json:"is_active"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// 关联关系
	Links []CacheGenerationTweet `gorm:"foreignKey:GenerationID;references:ID"`
}

func (CacheGeneration) TableName() string {
	return "cache_generations"
}

// CacheGenerationTweet 缓存代与推文的关联，Position 记录 selected 的排序
type CacheGenerationTweet struct {
	ID           uint64 `gorm:"primaryKey"`
	GenerationID uint64 `gorm:"not null;index:idx_generation_id" json:"generation_id"`
	TweetRef     uint64 `gorm:"not null;index:idx_link_tweet_ref" json:"tweet_ref"`
	Position     int    `gorm:"not null;default:0" json:"position"`

	Tweet Tweet `gorm:"foreignKey:TweetRef;references:ID"`
}

func (CacheGenerationTweet) TableName() string {
	return "cache_generation_tweets"
}
