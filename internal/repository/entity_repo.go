package repository

import (
	"Birdfeed/internal/model"
	"context"

	"gorm.io/gorm"
)

type EntityRepo interface {
	ListByTweetRef(ctx context.Context, tweetRef uint64) ([]*model.TweetEntity, error)
	Create(ctx context.Context, entity *model.TweetEntity) error
	Update(ctx context.Context, entity *model.TweetEntity) error
	ListUnexpandedURLs(ctx context.Context, tweetRefs []uint64, limit int) ([]*model.TweetEntity, error)
}

type EntityRepoImpl struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) EntityRepo {
	return &EntityRepoImpl{
		db: db,
	}
}

func (s EntityRepoImpl) ListByTweetRef(ctx context.Context, tweetRef uint64) ([]*model.TweetEntity, error) {
	var entities []*model.TweetEntity
	err := s.db.WithContext(ctx).Where("tweet_ref = ?", tweetRef).Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (s EntityRepoImpl) Create(ctx context.Context, entity *model.TweetEntity) error {
	return s.db.WithContext(ctx).Create(entity).Error
}

func (s EntityRepoImpl) Update(ctx context.Context, entity *model.TweetEntity) error {
	return s.db.WithContext(ctx).Model(&model.TweetEntity{}).Where("id = ?", entity.ID).
		Updates(map[string]interface{}{
			"url":          entity.URL,
			"expanded_url": entity.ExpandedURL,
			"display_url":  entity.DisplayURL,
			"metadata":     entity.Metadata,
		}).Error
}

// ListUnexpandedURLs 查询尚未展开的 url 实体，按创建时间倒序
func (s EntityRepoImpl) ListUnexpandedURLs(ctx context.Context, tweetRefs []uint64, limit int) ([]*model.TweetEntity, error) {
	var entities []*model.TweetEntity
	query := s.db.WithContext(ctx).Where("type = ?", model.EntityURL).
		Where("expanded_url = '' OR expanded_url = url")
	if len(tweetRefs) > 0 {
		query = query.Where("tweet_ref IN ?", tweetRefs)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return entities, nil
}
