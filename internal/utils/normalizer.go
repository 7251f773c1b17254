package utils

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ExtractionService 响应中标识本服务的名称
const ExtractionService = "multi_platform_ytdlp"

// ShapedMetadata 对外返回的元数据
type ShapedMetadata struct {
	Filename           string   `json:"filename"`
	Type               string   `json:"type"`
	Channel            string   `json:"channel"`
	CommentCount       any      `json:"comment_count"`
	AspectRatio        any      `json:"aspect_ratio"`
	Description        string   `json:"description"`
	Title              string   `json:"title"`
	Duration           any      `json:"duration"`
	Ext                string   `json:"ext"`
	Comments           any      `json:"comments"`
	WebpageURL         string   `json:"webpage_url"`
	WebpageURLDomain   string   `json:"webpage_url_domain"`
	Width              any      `json:"width"`
	Height             any      `json:"height"`
	ViewCount          any      `json:"view_count"`
	LikeCount          any      `json:"like_count"`
	UploadDate         any      `json:"upload_date"`
	Formats            any      `json:"formats"`
	AvailableQualities []string `json:"available_qualities"`
	DetectedPlatform   string   `json:"detected_platform"`
	ExtractionMethod   string   `json:"extraction_method"`
	ExtractionService  string   `json:"extraction_service"`
	Attempt            int      `json:"attempt"`
	FallbackIndex      int      `json:"fallback_index"`
	ExtractedAt        string   `json:"extracted_at"`
}

// ShapeMetadata 将 yt-dlp 原始输出映射为响应结构, 缺失字段使用默认值
func ShapeMetadata(raw map[string]any, requestURL string) *ShapedMetadata {
	shaped := &ShapedMetadata{
		Filename:          firstString(raw, "Unknown", "_filename", "filename"),
		Type:              firstString(raw, "video", "_type"),
		Channel:           SanitizeString(firstString(raw, "Unknown", "channel", "uploader")),
		CommentCount:      valueOr(raw, "comment_count", 0),
		AspectRatio:       raw["aspect_ratio"],
		Description:       firstString(raw, "", "description"),
		Title:             SanitizeString(firstString(raw, "Unknown", "title")),
		Duration:          raw["duration"],
		Ext:               firstString(raw, "mp4", "ext"),
		Comments:          valueOr(raw, "comments", []any{}),
		WebpageURL:        firstString(raw, requestURL, "webpage_url"),
		WebpageURLDomain:  firstString(raw, "", "webpage_url_domain"),
		Width:             raw["width"],
		Height:            raw["height"],
		ViewCount:         raw["view_count"],
		LikeCount:         raw["like_count"],
		UploadDate:        raw["upload_date"],
		Formats:           valueOr(raw, "formats", []any{}),
		DetectedPlatform:  firstString(raw, "", "detected_platform"),
		ExtractionMethod:  firstString(raw, "", "extraction_method"),
		ExtractionService: ExtractionService,
		ExtractedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	shaped.AvailableQualities = AvailableQualities(raw["formats"])
	return shaped
}

// AvailableQualities 从格式列表中汇总视频质量标签, 按清晰度从高到低
func AvailableQualities(formats any) []string {
	list, ok := formats.([]any)
	if !ok {
		return []string{}
	}

	heights := make(map[int]struct{})
	for _, item := range list {
		f, ok := item.(map[string]any)
		if !ok {
			continue
		}
		// 过滤掉纯音频格式
		if vcodec, _ := f["vcodec"].(string); vcodec == "none" {
			continue
		}

		height := 0
		if h, ok := f["height"].(float64); ok {
			height = int(h)
		}
		if height == 0 {
			res, _ := f["resolution"].(string)
			height = extractHeight(res)
		}
		if height > 0 {
			heights[height] = struct{}{}
		}
	}

	sorted := make([]int, 0, len(heights))
	for h := range heights {
		sorted = append(sorted, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	result := make([]string, 0, len(sorted))
	seen := make(map[string]bool)
	for _, h := range sorted {
		q := formatQuality(h)
		if !seen[q] {
			seen[q] = true
			result = append(result, q)
		}
	}
	return result
}

// extractHeight 从分辨率字符串提取高度
func extractHeight(resolution string) int {
	if resolution == "" {
		return 0
	}

	// 格式: "1920x1080" 或 "1080p"
	parts := strings.Split(resolution, "x")
	if len(parts) == 2 {
		height, _ := strconv.Atoi(parts[1])
		return height
	}

	height, _ := strconv.Atoi(strings.TrimSuffix(resolution, "p"))
	return height
}

// formatQuality 将高度转换为质量标签
func formatQuality(height int) string {
	switch {
	case height >= 2160:
		return "4K"
	case height >= 1440:
		return "2K"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	default:
		return "240p"
	}
}

func firstString(raw map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return def
}

func valueOr(raw map[string]any, key string, def any) any {
	if v, ok := raw[key]; ok && v != nil {
		return v
	}
	return def
}
