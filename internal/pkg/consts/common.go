package consts

// API 端点名，作为限流记录的主键
const (
	EndpointSearch      = "search"
	EndpointTimeline    = "timeline"
	EndpointCreateTweet = "create_tweet"
)

const (
	SourceSearch   = "search"
	SourceTimeline = "timeline"
)
