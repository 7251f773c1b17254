package platform

import (
	"os"
	"path/filepath"
)

const (
	desktopUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iPhoneUA       = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	minimalUA      = "Mozilla/5.0"
	instagramAppUA = "Instagram 219.0.0.12.117 Android"
	facebookAppUA  = "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36 [FBAN/FB4A;FBAV/445.0.0.34.118;]"

	instagramReferer      = "https://www.instagram.com/"
	facebookReferer       = "https://www.facebook.com/"
	facebookMobileReferer = "https://m.facebook.com/"

	userAgentPreviewLen = 50
)

// Table 平台配置表, 启动时构建一次, 之后只读
type Table struct {
	profiles map[Tag]Profile
}

// DefaultTable 构建内置平台配置表, cookie 文件位于 cookiesDir 下
func DefaultTable(cookiesDir string) *Table {
	cookie := func(name string) string {
		if cookiesDir == "" {
			return name
		}
		return filepath.Join(cookiesDir, name)
	}

	return NewTable(map[Tag]Profile{
		YouTube: {
			Config: Config{
				CookieFile:    cookie("www.youtube.com_cookies.txt"),
				UserAgent:     desktopUA,
				SleepInterval: 2,
				ExtraArgs:     []string{"--extractor-args", "youtube:player_client=android"},
			},
			Fallbacks: []FallbackStrategy{
				{
					Name:       "mobile_ua",
					UserAgent:  iPhoneUA,
					UseCookies: true,
					ExtraArgs:  []string{"--extractor-args", "youtube:player_client=ios,mweb"},
				},
				{
					Name:       "desktop_geo_bypass",
					UserAgent:  desktopUA,
					UseCookies: true,
					ExtraArgs: []string{
						"--geo-bypass",
						"--no-check-certificate",
						"--extractor-args", "youtube:player_client=web",
					},
				},
				{
					Name:          "minimal",
					UserAgent:     minimalUA,
					SleepInterval: 1,
					ExtraArgs:     []string{"--no-check-certificate", "--ignore-config"},
				},
			},
		},
		Instagram: {
			Config: Config{
				CookieFile:    cookie("www.instagram.com_cookies.txt"),
				UserAgent:     iPhoneUA,
				SleepInterval: 3,
				ExtraArgs:     []string{"--extractor-args", "instagram:api_type=graphql"},
				Referer:       instagramReferer,
			},
			Fallbacks: []FallbackStrategy{
				{
					Name:          "instagram_app",
					UserAgent:     instagramAppUA,
					SleepInterval: 4,
					Referer:       instagramReferer,
				},
			},
		},
		Facebook: {
			Config: Config{
				CookieFile:    cookie("www.facebook.com_cookies.txt"),
				UserAgent:     desktopUA,
				SleepInterval: 4,
				Referer:       facebookReferer,
			},
			Fallbacks: []FallbackStrategy{
				{
					Name:      "facebook_app",
					UserAgent: facebookAppUA,
					Referer:   facebookMobileReferer,
				},
			},
		},
	})
}

// NewTable 用给定的配置构建平台配置表, Unknown 永远不会被收录
func NewTable(profiles map[Tag]Profile) *Table {
	copied := make(map[Tag]Profile, len(profiles))
	for tag, p := range profiles {
		if tag == Unknown {
			continue
		}
		copied[tag] = p
	}
	return &Table{profiles: copied}
}

// Lookup 查找平台配置, Unknown 或未配置平台返回 false
func (t *Table) Lookup(tag Tag) (Profile, bool) {
	p, ok := t.profiles[tag]
	return p, ok
}

// Platforms 已配置的平台, 按检测顺序
func (t *Table) Platforms() []Tag {
	var tags []Tag
	for _, tag := range Supported() {
		if _, ok := t.profiles[tag]; ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Summary 面向运维的配置摘要
type Summary struct {
	Platform       Tag    `json:"platform"`
	CookiesFile    string `json:"cookies_file"`
	CookiesPresent bool   `json:"cookies_present"`
	UserAgent      string `json:"user_agent"`
	SleepInterval  int    `json:"sleep_interval"`
	HasExtraArgs   bool   `json:"has_extra_args"`
	Fallbacks      int    `json:"fallback_strategies"`
}

// Describe 返回所有平台的配置摘要, user agent 会被截断
func (t *Table) Describe() []Summary {
	var out []Summary
	for _, tag := range t.Platforms() {
		p := t.profiles[tag]
		out = append(out, Summary{
			Platform:       tag,
			CookiesFile:    p.Config.CookieFile,
			CookiesPresent: FileExists(p.Config.CookieFile),
			UserAgent:      TruncateUserAgent(p.Config.UserAgent),
			SleepInterval:  p.Config.SleepInterval,
			HasExtraArgs:   len(p.Config.ExtraArgs) > 0,
			Fallbacks:      len(p.Fallbacks),
		})
	}
	return out
}

// TruncateUserAgent 截断过长的 user agent 便于展示
func TruncateUserAgent(ua string) string {
	r := []rune(ua)
	if len(r) <= userAgentPreviewLen {
		return ua
	}
	return string(r[:userAgentPreviewLen]) + "..."
}

// FileExists 判断文件是否存在
func FileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
