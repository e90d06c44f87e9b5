package repository

import (
	"Birdfeed/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuotaRepo interface {
	GetDay(ctx context.Context, day string) (*model.QuotaUsage, error)
	IncrementTweetsCreated(ctx context.Context, day string) error
	IncrementFetchRuns(ctx context.Context, day string) error
}

type QuotaRepoImpl struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) QuotaRepo {
	return &QuotaRepoImpl{
		db: db,
	}
}

// GetDay 当日记录不存在时返回零值记录，配额记录按需创建
func (s QuotaRepoImpl) GetDay(ctx context.Context, day string) (*model.QuotaUsage, error) {
	var usage model.QuotaUsage
	err := s.db.WithContext(ctx).Where("day = ?", day).Limit(1).Find(&usage).Error
	if err != nil {
		return nil, err
	}
	usage.Day = day
	return &usage, nil
}

// IncrementTweetsCreated 原子自增当日创建计数
func (s QuotaRepoImpl) IncrementTweetsCreated(ctx context.Context, day string) error {
	return s.increment(ctx, day, "tweets_created", &model.QuotaUsage{Day: day, TweetsCreated: 1})
}

// IncrementFetchRuns 原子自增当日抓取计数
func (s QuotaRepoImpl) IncrementFetchRuns(ctx context.Context, day string) error {
	return s.increment(ctx, day, "fetch_runs", &model.QuotaUsage{Day: day, FetchRuns: 1})
}

func (s QuotaRepoImpl) increment(ctx context.Context, day string, column string, seed *model.QuotaUsage) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{column: gorm.Expr(column + " + 1")}),
	}).Create(seed).Error
}
