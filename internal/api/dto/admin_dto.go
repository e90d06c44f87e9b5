package dto

// RepairJobDTO 调和/修链任务的触发参数
type RepairJobDTO struct {
	DryRun    bool     `json:"dry_run"`
	Limit     int      `json:"limit" binding:"omitempty,gte=1,lte=500"`
	TargetIDs []string `json:"target_ids" binding:"omitempty,max=100"`
}

type PublishTweetDTO struct {
	Text string `json:"text" binding:"required,max=280"`
}
