package repository

import (
	"Birdfeed/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CacheRepo interface {
	GetActive(ctx context.Context, name model.GenerationName) (*model.CacheGeneration, error)
	SwapGeneration(ctx context.Context, gen *model.CacheGeneration, links []model.CacheGenerationTweet) error
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}

type CacheRepoImpl struct {
	db *gorm.DB
}

func NewCacheRepository(db *gorm.DB) CacheRepo {
	return &CacheRepoImpl{
		db: db,
	}
}

// GetActive 返回指定名字当前唯一的活跃代，未找到返回 nil
func (s CacheRepoImpl) GetActive(ctx context.Context, name model.GenerationName) (*model.CacheGeneration, error) {
	var gen model.CacheGeneration
	err := s.db.WithContext(ctx).
		Preload("Links", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Links.Tweet").
		Preload("Links.Tweet.Entities").
		Where("name = ? AND is_active = ?", name, true).
		Order("id DESC").
		First(&gen).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gen, nil
}

// SwapGeneration 同一事务内先停用同名活跃代，再创建新的活跃代，
// 读侧永远不会观察到同名活跃代同时为零的状态
func (s CacheRepoImpl) SwapGeneration(ctx context.Context, gen *model.CacheGeneration, links []model.CacheGenerationTweet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CacheGeneration{}).
			Where("name = ? AND is_active = ?", gen.Name, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		gen.IsActive = true
		if err := tx.Create(gen).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		for i := range links {
			links[i].GenerationID = gen.ID
		}
		return tx.Create(&links).Error
	})
}

// PruneExpired 删除已停用且过期的缓存代及其关联
func (s CacheRepoImpl) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	var expired []model.CacheGeneration
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", false, now).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]uint64, 0, len(expired))
	for _, g := range expired {
		ids = append(ids, g.ID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.CacheGenerationTweet{}, "generation_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&model.CacheGeneration{}, "id IN ?", ids).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}
