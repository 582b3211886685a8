package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
	"github.com/VeinDevTtv/ugcbounty-sub000/utils"
)

const defaultYouTubeAPIBase = "https://www.googleapis.com/youtube/v3"

// ViewCounter returns the current public view count of a submission's post.
type ViewCounter interface {
	CountViews(ctx context.Context, sub *models.Submission) (int64, error)
}

// PlatformViewCounter reads YouTube counts from the Data API and everything
// else from a scraper service answering GET ?url=... with {"views": n}.
type PlatformViewCounter struct {
	HTTP           utils.Doer
	YouTubeAPIKey  string
	YouTubeAPIBase string
	ScraperURL     string
}

func NewPlatformViewCounter(client utils.Doer, youtubeAPIKey, scraperURL string) *PlatformViewCounter {
	return &PlatformViewCounter{
		HTTP:           client,
		YouTubeAPIKey:  youtubeAPIKey,
		YouTubeAPIBase: defaultYouTubeAPIBase,
		ScraperURL:     strings.TrimRight(scraperURL, "/"),
	}
}

type youtubeVideosResponse struct {
	Items []struct {
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type scraperResponse struct {
	Views int64 `json:"views"`
}

func (p *PlatformViewCounter) CountViews(ctx context.Context, sub *models.Submission) (int64, error) {
	ref, err := DetectPlatform(sub.VideoURL)
	if err != nil {
		return 0, err
	}

	if ref.Platform == models.PlatformYouTube && p.YouTubeAPIKey != "" {
		return p.youtubeViews(ctx, ref.PostID)
	}
	if p.ScraperURL == "" {
		return 0, fmt.Errorf("%w: %s", ErrViewsUnavailable, ref.Platform)
	}

	var out scraperResponse
	if err := utils.GetJSON(ctx, p.HTTP, p.ScraperURL+"?url="+url.QueryEscape(sub.VideoURL), nil, &out); err != nil {
		return 0, err
	}
	return out.Views, nil
}

func (p *PlatformViewCounter) youtubeViews(ctx context.Context, videoID string) (int64, error) {
	q := url.Values{}
	q.Set("part", "statistics")
	q.Set("id", videoID)
	q.Set("key", p.YouTubeAPIKey)

	var out youtubeVideosResponse
	if err := utils.GetJSON(ctx, p.HTTP, p.YouTubeAPIBase+"/videos?"+q.Encode(), nil, &out); err != nil {
		return 0, err
	}
	if len(out.Items) == 0 {
		return 0, fmt.Errorf("youtube video %s not found", videoID)
	}
	views, err := strconv.ParseInt(out.Items[0].Statistics.ViewCount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid youtube view count %q: %w", out.Items[0].Statistics.ViewCount, err)
	}
	return views, nil
}
