package service

import (
	"Birdfeed/internal/api/config"
	"Birdfeed/internal/model"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// 选取时的时效半衰参数与抖动幅度
const (
	recencyHalfLifeHours = 48.0
	selectionJitter      = 0.05
)

// Scorer 单调启发式打分器，不是分类器；同分由选取器处理
type Scorer struct {
	cfg config.ScoringConfig
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score 关键词密度 + 链接加成 + 篇幅加成，收敛到 [0, 1]
func (s *Scorer) Score(text string, entities []model.TweetEntity) float64 {
	words := strings.Fields(text)
	wordCount := len(words)
	if wordCount == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, keyword := range s.cfg.Keywords {
		kw := strings.ToLower(keyword)
		matches += strings.Count(lower, kw)
	}
	for _, entity := range entities {
		if entity.Type != model.EntityHashtag {
			continue
		}
		tag := strings.ToLower(entity.Text)
		for _, keyword := range s.cfg.Keywords {
			if strings.Contains(tag, strings.ToLower(keyword)) {
				matches++
			}
		}
	}

	score := float64(matches) / float64(wordCount) * s.cfg.DensityWeight

	for _, entity := range entities {
		if entity.Type == model.EntityURL {
			score += s.cfg.LinkBonus
			break
		}
	}
	if wordCount >= s.cfg.MinWords {
		score += s.cfg.LengthBonus
	}

	return math.Min(1.0, score)
}

// SelectTweets 重排全量缓存：带实体的优先，其余按时效加权分数排序，
// 叠加可复现的随机抖动避免每轮都选出同一批。seed 固定时结果确定。
func (s *Scorer) SelectTweets(tweets []*model.Tweet, seed int64, n int, now time.Time) []*model.Tweet {
	if len(tweets) == 0 || n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))

	type candidate struct {
		tweet *model.Tweet
		key   float64
	}
	candidates := make([]candidate, 0, len(tweets))
	for _, t := range tweets {
		age := now.Sub(t.TweetCreatedAt)
		recency := math.Exp(-age.Hours() / recencyHalfLifeHours)
		jitter := (rng.Float64() - 0.5) * selectionJitter
		candidates = append(candidates, candidate{
			tweet: t,
			key:   t.Score*recency + jitter,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		iHas, jHas := candidates[i].tweet.HasEntities(), candidates[j].tweet.HasEntities()
		if iHas != jHas {
			return iHas
		}
		return candidates[i].key > candidates[j].key
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	selected := make([]*model.Tweet, 0, n)
	for _, c := range candidates[:n] {
		selected = append(selected, c.tweet)
	}
	return selected
}
