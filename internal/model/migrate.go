package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Tweet{},
		&TweetEntity{},
		&CacheGeneration{},
		&CacheGenerationTweet{},
		&RateLimitRecord{},
		&QuotaUsage{},
	)
}
