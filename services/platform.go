package services

import (
	"errors"
	"net/url"
	"strings"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
)

var (
	ErrInvalidContentURL   = errors.New("invalid content url")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// PostRef identifies a post on a social platform.
type PostRef struct {
	Platform string
	PostID   string
	Handle   string // may be empty (short links, instagram)
}

// DetectPlatform parses a content URL into its platform and post id.
func DetectPlatform(rawURL string) (PostRef, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return PostRef{}, ErrInvalidContentURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return PostRef{}, ErrInvalidContentURL
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := splitPathSegments(parsed.Path)

	switch {
	case host == "youtu.be" || strings.HasSuffix(host, "youtube.com"):
		return parseYouTube(host, parsed.Query().Get("v"), segments)
	case strings.HasSuffix(host, "tiktok.com"):
		return parseTikTok(host, segments)
	case strings.HasSuffix(host, "instagram.com"):
		return parseInstagram(segments)
	case host == "x.com" || host == "twitter.com":
		return parseX(segments)
	}
	return PostRef{}, ErrUnsupportedPlatform
}

func parseYouTube(host, queryVideoID string, segments []string) (PostRef, error) {
	ref := PostRef{Platform: models.PlatformYouTube}
	switch {
	case host == "youtu.be" && len(segments) >= 1:
		ref.PostID = segments[0]
	case strings.TrimSpace(queryVideoID) != "":
		ref.PostID = strings.TrimSpace(queryVideoID)
	case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "live" || segments[0] == "embed"):
		ref.PostID = segments[1]
	default:
		return PostRef{}, ErrInvalidContentURL
	}
	return ref, nil
}

func parseTikTok(host string, segments []string) (PostRef, error) {
	if len(segments) >= 3 && strings.HasPrefix(segments[0], "@") && segments[1] == "video" {
		return PostRef{Platform: models.PlatformTikTok, PostID: segments[2], Handle: segments[0]}, nil
	}
	// vm.tiktok.com/<code> and tiktok.com/t/<code> short links
	if host == "vm.tiktok.com" && len(segments) >= 1 {
		return PostRef{Platform: models.PlatformTikTok, PostID: segments[0]}, nil
	}
	if len(segments) >= 2 && segments[0] == "t" {
		return PostRef{Platform: models.PlatformTikTok, PostID: segments[1]}, nil
	}
	return PostRef{}, ErrInvalidContentURL
}

func parseInstagram(segments []string) (PostRef, error) {
	if len(segments) >= 2 && (segments[0] == "p" || segments[0] == "reel" || segments[0] == "reels") {
		return PostRef{Platform: models.PlatformInstagram, PostID: segments[1]}, nil
	}
	return PostRef{}, ErrInvalidContentURL
}

func parseX(segments []string) (PostRef, error) {
	if len(segments) >= 3 && segments[1] == "status" {
		return PostRef{Platform: models.PlatformX, PostID: segments[2], Handle: segments[0]}, nil
	}
	return PostRef{}, ErrInvalidContentURL
}

func splitPathSegments(rawPath string) []string {
	parts := strings.Split(strings.Trim(strings.TrimSpace(rawPath), "/"), "/")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			items = append(items, value)
		}
	}
	return items
}
