package repository

import (
	"Birdfeed/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type RateLimitRepo interface {
	GetByEndpoint(ctx context.Context, endpoint string) (*model.RateLimitRecord, error)
	Create(ctx context.Context, record *model.RateLimitRecord) error
	Save(ctx context.Context, record *model.RateLimitRecord) error
	ListAll(ctx context.Context) ([]*model.RateLimitRecord, error)
}

type RateLimitRepoImpl struct {
	db *gorm.DB
}

func NewRateLimitRepository(db *gorm.DB) RateLimitRepo {
	return &RateLimitRepoImpl{
		db: db,
	}
}

// GetByEndpoint 未找到返回 nil，由调用方懒创建
func (s RateLimitRepoImpl) GetByEndpoint(ctx context.Context, endpoint string) (*model.RateLimitRecord, error) {
	var record model.RateLimitRecord
	err := s.db.WithContext(ctx).Where("endpoint = ?", endpoint).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (s RateLimitRepoImpl) Create(ctx context.Context, record *model.RateLimitRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s RateLimitRepoImpl) Save(ctx context.Context, record *model.RateLimitRecord) error {
	return s.db.WithContext(ctx).Model(&model.RateLimitRecord{}).Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"remaining": record.Remaining,
			"reset_at":  record.ResetAt,
		}).Error
}

func (s RateLimitRepoImpl) ListAll(ctx context.Context) ([]*model.RateLimitRecord, error) {
	var records []*model.RateLimitRecord
	err := s.db.WithContext(ctx).Order("endpoint ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
