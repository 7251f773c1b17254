package detector

import (
	"net/url"
	"strings"

	"ytmeta/extractor-service/internal/platform"
)

// domainList 单个平台的域名白名单
type domainList struct {
	platform platform.Tag
	domains  map[string]struct{}
}

// PlatformDetector 平台检测器
type PlatformDetector struct {
	lists []domainList // 按顺序匹配, 先命中者优先
}

// NewPlatformDetector 创建平台检测器
func NewPlatformDetector() *PlatformDetector {
	return &PlatformDetector{
		lists: []domainList{
			newDomainList(platform.YouTube,
				"youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com",
				"youtu.be", "www.youtu.be",
				"youtube-nocookie.com", "www.youtube-nocookie.com",
			),
			newDomainList(platform.Instagram,
				"instagram.com", "www.instagram.com", "m.instagram.com",
				"instagr.am", "www.instagr.am",
			),
			newDomainList(platform.Facebook,
				"facebook.com", "www.facebook.com", "m.facebook.com", "web.facebook.com",
				"fb.com", "www.fb.com", "fb.watch",
			),
		},
	}
}

func newDomainList(tag platform.Tag, domains ...string) domainList {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}
	return domainList{platform: tag, domains: set}
}

// Detect 检测URL所属平台, 无法解析或未匹配时返回 Unknown
func (d *PlatformDetector) Detect(rawURL string) platform.Tag {
	u, err := url.Parse(strings.ToLower(strings.TrimSpace(rawURL)))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return platform.Unknown
	}

	host := u.Hostname()
	for _, list := range d.lists {
		if _, ok := list.domains[host]; ok {
			return list.platform
		}
	}

	return platform.Unknown
}
