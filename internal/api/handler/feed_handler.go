package handler

import (
	"Birdfeed/internal/api/dto"
	"Birdfeed/internal/model"
	"Birdfeed/internal/pkg/response"
	"Birdfeed/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type FeedHandler struct {
	cacheSvc service.CacheService
}

func NewFeedHandler(cacheSvc service.CacheService) *FeedHandler {
	return &FeedHandler{
		cacheSvc: cacheSvc,
	}
}

// GetSelected 精选代，展示层的主入口
func (s *FeedHandler) GetSelected(c *gin.Context) {
	s.getGeneration(c, model.GenerationSelected)
}

// GetGeneration 按名字读缓存代，用于排查
func (s *FeedHandler) GetGeneration(c *gin.Context) {
	name := model.GenerationName(c.Param("name"))
	switch name {
	case model.GenerationCurrent, model.GenerationPrevious, model.GenerationSelected:
	default:
		response.Error(c, service.ErrParamInvalid)
		return
	}
	s.getGeneration(c, name)
}

func (s *FeedHandler) getGeneration(c *gin.Context, name model.GenerationName) {
	tweets, err := s.cacheSvc.GetGeneration(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}

	feed := &dto.FeedDTO{Generation: string(name), Tweets: make([]*dto.TweetDTO, 0, len(tweets))}
	for _, tweet := range tweets {
		feed.Tweets = append(feed.Tweets, toTweetDTO(tweet))
	}
	response.Success(c, feed)
}

func toTweetDTO(tweet *model.Tweet) *dto.TweetDTO {
	var out dto.TweetDTO
	_ = copier.Copy(&out, tweet)
	out.TweetCreatedAt = tweet.TweetCreatedAt.Format(time.RFC3339)

	out.Entities = make([]dto.EntityDTO, 0, len(tweet.Entities))
	for i := range tweet.Entities {
		entity := &tweet.Entities[i]
		item := dto.EntityDTO{
			Type:        string(entity.Type),
			Text:        entity.Text,
			URL:         entity.URL,
			ExpandedURL: entity.ExpandedURL,
			DisplayURL:  entity.DisplayURL,
			MediaKey:    entity.MediaKey,
		}
		if meta, err := entity.DecodeMetadata(); err == nil && meta != nil {
			item.Metadata = meta
		}
		out.Entities = append(out.Entities, item)
	}
	return &out
}
