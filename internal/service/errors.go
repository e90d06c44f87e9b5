package service

import (
	"errors"
)

const (
	BadRequest          = 400
	NotFound            = 404
	TooManyRequests     = 429
	InternalServerError = 500
)

var (
	ErrParamInvalid     = errors.New("参数错误")
	ErrTweetNotFound    = errors.New("推文不存在")
	ErrGenerationEmpty  = errors.New("缓存代不存在或为空")
	ErrRateLimited      = errors.New("触发平台限流")
	ErrDailyQuotaUsed   = errors.New("当日配额已用尽")
	ErrEmptyFetch       = errors.New("两路抓取均为空")
	ErrRepairInProgress = errors.New("修复任务进行中")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:     BadRequest,
	ErrTweetNotFound:    NotFound,
	ErrGenerationEmpty:  NotFound,
	ErrRateLimited:      TooManyRequests,
	ErrDailyQuotaUsed:   TooManyRequests,
	ErrEmptyFetch:       InternalServerError,
	ErrRepairInProgress: BadRequest,
	UnExpectedError:     InternalServerError,
}
