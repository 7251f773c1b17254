package utils

import (
	"net/url"
	"strings"
)

// IsValidURL 验证URL格式是否有效
func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}

	// 必须是http或https协议
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	// 必须有host
	if u.Host == "" {
		return false
	}

	return true
}

// SanitizeURL 清理查询参数中的URL: 去除空白与包裹的引号, 缺少协议时补 https://
func SanitizeURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}

	return s
}

// SanitizeString 清理字符串中的多余空白
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Join(strings.Fields(s), " ")
}
