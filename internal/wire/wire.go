package wire

import (
	"Birdfeed/internal/api"
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/api/handler"
	"Birdfeed/internal/job"
	"Birdfeed/internal/pkg/cron"
	"Birdfeed/internal/pkg/twitter"
	"Birdfeed/internal/repository"
	"Birdfeed/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	CronMgr *cron.Manager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	tweetRepo := repository.NewTweetRepository(db)
	entityRepo := repository.NewEntityRepository(db)
	cacheRepo := repository.NewCacheRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)

	twitterClient := twitter.NewClient(cfg.Twitter)
	scorer := service.NewScorer(cfg.Scoring)

	rateLimitService := service.NewRateLimitService(rateLimitRepo, quotaRepo, cfg.RateLimit)
	cacheService := service.NewCacheService(tweetRepo, entityRepo, cacheRepo, cfg.Cache)
	entityService := service.NewEntityService(tweetRepo, entityRepo)
	linkService := service.NewLinkService(entityRepo, tweetRepo, cfg.Resolver)
	ingestService := service.NewIngestService(twitterClient, rateLimitService, cacheService, scorer, tweetRepo, cfg.Twitter, cfg.Cache)

	handlers := &api.HandlersGroup{
		FeedHandler:  handler.NewFeedHandler(cacheService),
		AdminHandler: handler.NewAdminHandler(ingestService, entityService, linkService, rateLimitService),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(cfg.Cron,
		job.NewIngestJob(ingestService),
		job.NewCachePruneJob(cacheService),
	)

	return &ApplicationContainer{
		Router:  router,
		DB:      db,
		CronMgr: cronMgr,
	}, nil
}
