package util

import (
	log "log/slog"
	"math"
	"time"

	"github.com/araddon/dateparse"
)

// twitterLegacyLayout 平台旧版时间格式
const twitterLegacyLayout = "Mon Jan 02 15:04:05 -0700 2006"

// futureSkewBuffer 容忍的时钟偏差，超出即视为坏数据
const futureSkewBuffer = 5 * time.Minute

// nowFn 可注入的时钟，测试用
var nowFn = time.Now

// ParseTweetTime 解析来源不定形的时间戳，永远返回有效时间。
// 解析顺序：time.Time → 秒/毫秒时间戳 → RFC3339 → 平台旧版格式 → 通用兜底。
// 解析失败或超前超过容差时替换为当前时间，只记日志不报错。
func ParseTweetTime(v any) time.Time {
	now := nowFn()

	parsed, ok := parseAny(v)
	if !ok {
		log.Warn("unparsable tweet timestamp, substituting now", "value", v)
		return now
	}

	if parsed.After(now.Add(futureSkewBuffer)) {
		log.Warn("tweet timestamp in the future, substituting now", "value", parsed)
		return now
	}
	return parsed
}

func parseAny(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case int64:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	case float64:
		return fromEpoch(t)
	case string:
		if t == "" {
			return time.Time{}, false
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(twitterLegacyLayout, t); err == nil {
			return parsed, true
		}
		if parsed, err := dateparse.ParseAny(t); err == nil {
			return parsed, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// fromEpoch 按数量级区分秒和毫秒时间戳
func fromEpoch(epoch float64) (time.Time, bool) {
	if epoch <= 0 || math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return time.Time{}, false
	}
	if epoch > 1e12 {
		return time.UnixMilli(int64(epoch)), true
	}
	return time.Unix(int64(epoch), 0), true
}
