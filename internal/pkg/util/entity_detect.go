package util

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// DetectedEntity 文本扫描出的实体，Start/End 为源文本中的字节区间
type DetectedEntity struct {
	Type       string
	Text       string
	Start      int
	End        int
	DisplayURL string
}

const (
	DetectedMention = "mention"
	DetectedHashtag = "hashtag"
	DetectedURL     = "url"
)

// displayURLMax 展示用链接的最大长度
const displayURLMax = 30

var (
	mentionRegex = regexp.MustCompile(`@(\w+)`)
	hashtagRegex = regexp.MustCompile(`#([\w\p{L}\p{M}]+)`)
	urlRegex     = regexp.MustCompile(`https?://\S+`)
)

// DetectEntities 纯文本扫描，三类模式独立匹配后按起始位置合并排序。
// 重叠的匹配在这里不去重，交给调和器对照存量处理。
func DetectEntities(text string) []DetectedEntity {
	var detected []DetectedEntity

	for _, m := range mentionRegex.FindAllStringSubmatchIndex(text, -1) {
		detected = append(detected, DetectedEntity{
			Type:  DetectedMention,
			Text:  text[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		})
	}

	for _, m := range hashtagRegex.FindAllStringSubmatchIndex(text, -1) {
		detected = append(detected, DetectedEntity{
			Type:  DetectedHashtag,
			Text:  text[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		})
	}

	for _, m := range urlRegex.FindAllStringIndex(text, -1) {
		raw := text[m[0]:m[1]]
		detected = append(detected, DetectedEntity{
			Type:       DetectedURL,
			Text:       raw,
			Start:      m[0],
			End:        m[1],
			DisplayURL: TruncateDisplayURL(raw),
		})
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Start < detected[j].Start
	})
	return detected
}

// TruncateDisplayURL 生成 host+path 形式的展示链接，超长截断加省略号
func TruncateDisplayURL(raw string) string {
	display := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
		display = parsed.Host + parsed.Path
	} else {
		display = strings.TrimPrefix(display, "https://")
		display = strings.TrimPrefix(display, "http://")
	}

	runes := []rune(display)
	if len(runes) <= displayURLMax {
		return display
	}
	return string(runes[:displayURLMax]) + "…"
}
