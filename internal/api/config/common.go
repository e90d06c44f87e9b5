package config

// Config 配置主体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logstash  LogstashConfig  `mapstructure:"logstash"`
	Twitter   TwitterConfig   `mapstructure:"twitter"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Cron      CronConfig      `mapstructure:"cron"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// LogstashConfig 远程日志配置，Address 为空则只输出到 stdout
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// TwitterConfig 平台 API 配置
type TwitterConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	BearerToken string `mapstructure:"bearer_token"`
	AccountID   string `mapstructure:"account_id"`
	SearchQuery string `mapstructure:"search_query"`
	TimeoutSec  int    `mapstructure:"timeout_sec"`
	MaxResults  int    `mapstructure:"max_results"`
}

// RateLimitConfig 配额配置，Ceilings 按端点名覆盖默认上限
type RateLimitConfig struct {
	WindowMin         int            `mapstructure:"window_min"`
	BufferSec         int            `mapstructure:"buffer_sec"`
	DefaultCeiling    int            `mapstructure:"default_ceiling"`
	Ceilings          map[string]int `mapstructure:"ceilings"`
	DailyTweetCeiling int            `mapstructure:"daily_tweet_ceiling"`
	DailyFetchCeiling int            `mapstructure:"daily_fetch_ceiling"`
}

// ScoringConfig 相关度打分配置
type ScoringConfig struct {
	Keywords      []string `mapstructure:"keywords"`
	DensityWeight float64  `mapstructure:"density_weight"`
	LinkBonus     float64  `mapstructure:"link_bonus"`
	LengthBonus   float64  `mapstructure:"length_bonus"`
	MinWords      int      `mapstructure:"min_words"`
}

// ResolverConfig 短链展开配置
type ResolverConfig struct {
	Providers   []string `mapstructure:"providers"`
	StripParams []string `mapstructure:"strip_params"`
	TimeoutSec  int      `mapstructure:"timeout_sec"`
	RatePerSec  float64  `mapstructure:"rate_per_sec"`
}

// CacheConfig 缓存代配置
type CacheConfig struct {
	CurrentTTLMin int `mapstructure:"current_ttl_min"`
	SelectedSize  int `mapstructure:"selected_size"`
}

type CronConfig struct {
	IngestSpec string `mapstructure:"ingest_spec"`
	PruneSpec  string `mapstructure:"prune_spec"`
}
