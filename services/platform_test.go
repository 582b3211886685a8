package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		url      string
		platform string
		postID   string
		handle   string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "youtube", "dQw4w9WgXcQ", ""},
		{"https://youtu.be/dQw4w9WgXcQ?t=3", "youtube", "dQw4w9WgXcQ", ""},
		{"https://youtube.com/shorts/abc123", "youtube", "abc123", ""},
		{"https://m.youtube.com/watch?v=xyz", "youtube", "xyz", ""},
		{"https://www.tiktok.com/@brand/video/7312345", "tiktok", "7312345", "@brand"},
		{"https://vm.tiktok.com/ZMabc/", "tiktok", "ZMabc", ""},
		{"https://www.tiktok.com/t/ZTshort/", "tiktok", "ZTshort", ""},
		{"https://www.instagram.com/reel/Cx1/", "instagram", "Cx1", ""},
		{"https://instagram.com/p/Bq9", "instagram", "Bq9", ""},
		{"https://x.com/someone/status/1799", "x", "1799", "someone"},
		{"https://twitter.com/someone/status/42", "x", "42", "someone"},
	}

	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			ref, err := DetectPlatform(tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.platform, ref.Platform)
			assert.Equal(t, tc.postID, ref.PostID)
			assert.Equal(t, tc.handle, ref.Handle)
		})
	}
}

func TestDetectPlatformErrors(t *testing.T) {
	_, err := DetectPlatform("https://vimeo.com/123")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	for _, raw := range []string{
		"not a url",
		"ftp://youtube.com/watch?v=1",
		"https://www.youtube.com/channel/UC123",
		"https://www.tiktok.com/@brand",
		"https://www.instagram.com/brand/",
		"https://x.com/someone",
	} {
		_, err := DetectPlatform(raw)
		assert.ErrorIs(t, err, ErrInvalidContentURL, raw)
	}
}
