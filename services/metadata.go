package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/VeinDevTtv/ugcbounty-sub000/models"
	"github.com/VeinDevTtv/ugcbounty-sub000/utils"
)

const metadataTTL = 24 * time.Hour

// LinkMetadata is what we can learn about a post without platform auth.
type LinkMetadata struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	Author        string `json:"author,omitempty"`
	Platform      string `json:"platform,omitempty"`
}

// MetadataSource fetches link metadata for a detected post.
type MetadataSource interface {
	Fetch(ctx context.Context, rawURL string, ref PostRef) (LinkMetadata, error)
}

var defaultOEmbedEndpoints = map[string]string{
	models.PlatformYouTube: "https://www.youtube.com/oembed",
	models.PlatformTikTok:  "https://www.tiktok.com/oembed",
}

// MetadataFetcher tries the platform's public oEmbed endpoint first and
// falls back to a generic link preview API. Results are cached per URL.
type MetadataFetcher struct {
	HTTP           utils.Doer
	Cache          utils.Cache
	OEmbed         map[string]string
	LinkPreviewURL string
}

func NewMetadataFetcher(client utils.Doer, cache utils.Cache, linkPreviewURL string) *MetadataFetcher {
	return &MetadataFetcher{
		HTTP:           client,
		Cache:          cache,
		OEmbed:         defaultOEmbedEndpoints,
		LinkPreviewURL: strings.TrimRight(linkPreviewURL, "/"),
	}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type linkPreviewResponse struct {
	Status string `json:"status"`
	Data   struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Author      string `json:"author"`
		Image       struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"data"`
}

func (f *MetadataFetcher) Fetch(ctx context.Context, rawURL string, ref PostRef) (LinkMetadata, error) {
	load := func() (LinkMetadata, error) { return f.fetch(ctx, rawURL, ref) }
	if f.Cache == nil {
		return load()
	}
	return utils.UseCache(ctx, f.Cache, "metadata:"+rawURL, metadataTTL, load)
}

func (f *MetadataFetcher) fetch(ctx context.Context, rawURL string, ref PostRef) (LinkMetadata, error) {
	if endpoint, ok := f.OEmbed[ref.Platform]; ok {
		var out oembedResponse
		err := utils.GetJSON(ctx, f.HTTP, endpoint+"?format=json&url="+url.QueryEscape(rawURL), nil, &out)
		if err == nil && out.Title != "" {
			return LinkMetadata{
				Title:         out.Title,
				Author:        out.AuthorName,
				CoverImageURL: out.ThumbnailURL,
				Platform:      ref.Platform,
			}, nil
		}
		zap.L().Debug("[METADATA] oembed miss, using link preview",
			zap.String("url", rawURL), zap.Error(err))
	}

	var out linkPreviewResponse
	if err := utils.GetJSON(ctx, f.HTTP, f.LinkPreviewURL+"?url="+url.QueryEscape(rawURL), nil, &out); err != nil {
		return LinkMetadata{Platform: ref.Platform}, err
	}
	return LinkMetadata{
		Title:         out.Data.Title,
		Description:   out.Data.Description,
		Author:        out.Data.Author,
		CoverImageURL: out.Data.Image.URL,
		Platform:      ref.Platform,
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
