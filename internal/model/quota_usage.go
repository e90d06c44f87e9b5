package model

import (
	"time"
)

// QuotaUsage 按自然日累计的对外写入/抓取配额
type QuotaUsage struct {
	ID            uint64    `gorm:"primaryKey"`
	Day           string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_day" json:"day"` // 2006-01-02
	TweetsCreated int       `gorm:"not null;default:0" json:"tweets_created"`
	FetchRuns     int       `gorm:"not null;default:0" json:"fetch_runs"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (QuotaUsage) TableName() string {
	return "quota_usages"
}

// DayKey 配额记录的主键格式
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
