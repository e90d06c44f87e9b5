package model

import (
	"time"
)

type RateLimitRecord struct {
	ID        uint64    `gorm:"primaryKey"`
	Endpoint  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_endpoint" json:"endpoint"`
	Remaining int       `gorm:"not null;default:0" json:"remaining"`
	ResetAt   time.Time `gorm:"not null" json:"reset_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RateLimitRecord) TableName() string {
	return "rate_limit_records"
}

// WindowExpired 当前窗口是否已过期
func (r *RateLimitRecord) WindowExpired(now time.Time) bool {
	return !now.Before(r.ResetAt)
}
