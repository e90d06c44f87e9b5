package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.DB.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if cfg.Twitter.BearerToken == "" {
		return errors.New("twitter.bearer_token is required")
	}

	Cfg = &cfg

	return nil
}

// applyDefaults 未配置项回退到默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Twitter.BaseURL == "" {
		cfg.Twitter.BaseURL = "https://api.x.com/2"
	}
	if cfg.Twitter.TimeoutSec == 0 {
		cfg.Twitter.TimeoutSec = 15
	}
	if cfg.Twitter.MaxResults == 0 {
		cfg.Twitter.MaxResults = 50
	}
	if cfg.RateLimit.WindowMin == 0 {
		cfg.RateLimit.WindowMin = 15
	}
	if cfg.RateLimit.BufferSec == 0 {
		cfg.RateLimit.BufferSec = 5
	}
	if cfg.RateLimit.DefaultCeiling == 0 {
		cfg.RateLimit.DefaultCeiling = 180
	}
	if cfg.RateLimit.DailyTweetCeiling == 0 {
		cfg.RateLimit.DailyTweetCeiling = 17
	}
	if cfg.RateLimit.DailyFetchCeiling == 0 {
		cfg.RateLimit.DailyFetchCeiling = 288
	}
	if cfg.Scoring.DensityWeight == 0 {
		cfg.Scoring.DensityWeight = 5.0
	}
	if cfg.Scoring.LinkBonus == 0 {
		cfg.Scoring.LinkBonus = 0.2
	}
	if cfg.Scoring.LengthBonus == 0 {
		cfg.Scoring.LengthBonus = 0.1
	}
	if cfg.Scoring.MinWords == 0 {
		cfg.Scoring.MinWords = 10
	}
	if len(cfg.Resolver.Providers) == 0 {
		cfg.Resolver.Providers = []string{"t.co", "bit.ly", "buff.ly", "tinyurl.com", "ow.ly", "goo.gl", "dlvr.it"}
	}
	if len(cfg.Resolver.StripParams) == 0 {
		cfg.Resolver.StripParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "ref_src", "ref_url", "s", "t"}
	}
	if cfg.Resolver.TimeoutSec == 0 {
		cfg.Resolver.TimeoutSec = 8
	}
	if cfg.Resolver.RatePerSec == 0 {
		cfg.Resolver.RatePerSec = 2
	}
	if cfg.Cache.CurrentTTLMin == 0 {
		cfg.Cache.CurrentTTLMin = 60
	}
	if cfg.Cache.SelectedSize == 0 {
		cfg.Cache.SelectedSize = 10
	}
	if cfg.Cron.IngestSpec == "" {
		cfg.Cron.IngestSpec = "0 */5 * * * *"
	}
	if cfg.Cron.PruneSpec == "" {
		cfg.Cron.PruneSpec = "@daily"
	}
}
