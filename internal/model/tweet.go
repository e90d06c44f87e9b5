package model

import (
	"time"
)

type Tweet struct {
	ID             uint64    `gorm:"primaryKey"`
	TweetID        string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_tweet_id" json:"tweet_id"`
	Text           string    `gorm:"not null" json:"text"`
	AuthorID       string    `gorm:"type:varchar(32)" json:"author_id"`
	AuthorUsername string    `gorm:"type:varchar(64)" json:"author_username"`
	LikeCount      int       `gorm:"not null;default:0" json:"like_count"`
	ReplyCount     int       `gorm:"not null;default:0" json:"reply_count"`
	RetweetCount   int       `gorm:"not null;default:0" json:"retweet_count"`
	Score          float64   `gorm:"not null;default:0" json:"score"`
	Source         string    `gorm:"type:varchar(16)" json:"source"` // search 或 timeline
	TweetCreatedAt time.Time `gorm:"not null" json:"tweet_created_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// 关联关系
	Entities []TweetEntity `gorm:"foreignKey:TweetRef;references:ID"`
}

func (Tweet) TableName() string {
	return "tweets"
}

// HasEntities 是否带有任何实体
func (t *Tweet) HasEntities() bool {
	return len(t.Entities) > 0
}

// HasEntityType 是否带有指定类型的实体
func (t *Tweet) HasEntityType(typ EntityType) bool {
	for _, e := range t.Entities {
		if e.Type == typ {
			return true
		}
	}
	return false
}
