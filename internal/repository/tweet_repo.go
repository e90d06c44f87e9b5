package repository

import (
	"Birdfeed/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type TweetRepo interface {
	GetByTweetID(ctx context.Context, tweetID string) (*model.Tweet, error)
	GetByRefs(ctx context.Context, refs []uint64) ([]*model.Tweet, error)
	CreateWithEntities(ctx context.Context, tweet *model.Tweet) error
	UpdateRefreshable(ctx context.Context, tweet *model.Tweet) error
	ListRecent(ctx context.Context, limit int) ([]*model.Tweet, error)
}

type TweetRepoImpl struct {
	db *gorm.DB
}

func NewTweetRepository(db *gorm.DB) TweetRepo {
	return &TweetRepoImpl{
		db: db,
	}
}

// GetByTweetID 按外部 id 查询，未找到返回 nil 而非错误
func (s TweetRepoImpl) GetByTweetID(ctx context.Context, tweetID string) (*model.Tweet, error) {
	var tweet model.Tweet
	err := s.db.WithContext(ctx).Preload("Entities").Where("tweet_id = ?", tweetID).First(&tweet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tweet, nil
}

func (s TweetRepoImpl) GetByRefs(ctx context.Context, refs []uint64) ([]*model.Tweet, error) {
	var tweets []*model.Tweet
	err := s.db.WithContext(ctx).Preload("Entities").Where("id IN ?", refs).Find(&tweets).Error
	if err != nil {
		return nil, err
	}
	return tweets, nil
}

// CreateWithEntities 推文连同实体在一个事务内创建
func (s TweetRepoImpl) CreateWithEntities(ctx context.Context, tweet *model.Tweet) error {
	if len(tweet.Entities) == 0 {
		return s.db.WithContext(ctx).Create(tweet).Error
	}
	entities := tweet.Entities
	tweet.Entities = nil
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tweet).Error; err != nil {
			return err
		}
		for i := range entities {
			entities[i].TweetRef = tweet.ID
		}
		if err := tx.Create(&entities).Error; err != nil {
			return err
		}
		tweet.Entities = entities
		return nil
	})
}

// UpdateRefreshable 只更新可刷新字段，tweet_created_at 一经写入不再覆盖
func (s TweetRepoImpl) UpdateRefreshable(ctx context.Context, tweet *model.Tweet) error {
	return s.db.WithContext(ctx).Model(&model.Tweet{}).Where("id = ?", tweet.ID).
		Updates(map[string]interface{}{
			"text":          tweet.Text,
			"like_count":    tweet.LikeCount,
			"reply_count":   tweet.ReplyCount,
			"retweet_count": tweet.RetweetCount,
			"score":         tweet.Score,
			"source":        tweet.Source,
		}).Error
}

func (s TweetRepoImpl) ListRecent(ctx context.Context, limit int) ([]*model.Tweet, error) {
	var tweets []*model.Tweet
	err := s.db.WithContext(ctx).Preload("Entities").
		Order("tweet_created_at DESC").Limit(limit).Find(&tweets).Error
	if err != nil {
		return nil, err
	}
	return tweets, nil
}
