package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ytmeta/extractor-service/internal/platform"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want platform.Tag
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", platform.YouTube},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ", platform.YouTube},
		{"youtube mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", platform.YouTube},
		{"youtube nocookie embed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", platform.YouTube},
		{"youtube uppercase", "HTTPS://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ", platform.YouTube},
		{"youtube with port", "https://www.youtube.com:443/watch?v=dQw4w9WgXcQ", platform.YouTube},
		{"instagram post", "https://www.instagram.com/p/ABC123/", platform.Instagram},
		{"instagram short domain", "https://instagr.am/p/ABC123/", platform.Instagram},
		{"facebook watch", "https://www.facebook.com/watch?v=123456", platform.Facebook},
		{"facebook watch link", "https://fb.watch/abcdef/", platform.Facebook},
		{"facebook mobile", "http://m.facebook.com/story.php?id=1", platform.Facebook},
		{"unknown domain", "https://example.com/video", platform.Unknown},
		{"lookalike domain", "https://notyoutube.com/watch?v=1", platform.Unknown},
		{"youtube in path only", "https://example.com/youtube.com/watch", platform.Unknown},
		{"no scheme", "www.youtube.com/watch?v=dQw4w9WgXcQ", platform.Unknown},
		{"empty", "", platform.Unknown},
		{"malformed", "https://%zz", platform.Unknown},
	}

	d := NewPlatformDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.url))
		})
	}
}
