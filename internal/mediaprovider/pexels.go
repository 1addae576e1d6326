package mediaprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/errors"
	"github.com/wayfarerhq/wayfarer-go/internal/httpclient"
	"github.com/wayfarerhq/wayfarer-go/internal/observability/metrics"
)

const pexelsLicense = "Pexels License"

// PexelsProvider supplies secondary city photos and is the sole video source.
type PexelsProvider struct {
	cfg       conf.ProviderSettings
	transport *transport
	log       *slog.Logger
}

// NewPexels creates a Pexels client from explicit settings.
func NewPexels(cfg conf.ProviderSettings, client *httpclient.Client, failureBackoff time.Duration, pm *metrics.ProviderMetrics) *PexelsProvider {
	return &PexelsProvider{
		cfg:       cfg,
		transport: newTransport(NamePexels, client, cfg, failureBackoff, pm),
		log:       providerLogger.With("provider", NamePexels),
	}
}

func (p *PexelsProvider) Name() string { return NamePexels }

type pexelsPhotoResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

type pexelsPhoto struct {
	ID              int    `json:"id"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	URL             string `json:"url"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Src             struct {
		Large2x string `json:"large2x"`
		Medium  string `json:"medium"`
	} `json:"src"`
}

type pexelsVideoResponse struct {
	Videos []pexelsVideo `json:"videos"`
}

type pexelsVideo struct {
	ID       int    `json:"id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	User     struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"user"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsVideoFile struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

// SearchPhotos returns normalized photos for the query, or an empty slice on
// any failure.
func (p *PexelsProvider) SearchPhotos(ctx context.Context, query string, opts SearchOptions) []Photo {
	cooldownKey := "photos:" + query
	if p.transport.inCooldown(cooldownKey) {
		p.log.Debug("query in failure cooldown, skipping", "query", query)
		return nil
	}

	photos, err := p.searchPhotos(ctx, query, opts)
	if err != nil {
		p.transport.markFailure(cooldownKey)
		logSearchFailure(p.log, query, err)
		return nil
	}
	p.transport.observeResults(len(photos))
	return photos
}

func (p *PexelsProvider) searchPhotos(ctx context.Context, query string, opts SearchOptions) ([]Photo, error) {
	body, err := p.get(ctx, "/v1/search", query, opts.PerPage)
	if err != nil {
		return nil, err
	}

	var parsed pexelsPhotoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, p.parseError(err, "parse_photo_response")
	}

	photos := make([]Photo, 0, len(parsed.Photos))
	for _, result := range parsed.Photos {
		if result.Src.Large2x == "" {
			continue
		}
		photos = append(photos, Photo{
			SourceID:         strconv.Itoa(result.ID),
			URL:              result.Src.Large2x,
			ThumbnailURL:     result.Src.Medium,
			Width:            result.Width,
			Height:           result.Height,
			PhotographerName: result.Photographer,
			PhotographerURL:  result.PhotographerURL,
			SourceName:       "Pexels",
			SourceURL:        result.URL,
			License:          pexelsLicense,
		})
	}

	p.log.Debug("photo search completed", "query", query, "results", len(photos))
	return photos, nil
}

// SearchVideos returns normalized videos for the query, or an empty slice on
// any failure.
func (p *PexelsProvider) SearchVideos(ctx context.Context, query string, opts SearchOptions) []Video {
	cooldownKey := "videos:" + query
	if p.transport.inCooldown(cooldownKey) {
		p.log.Debug("query in failure cooldown, skipping", "query", query)
		return nil
	}

	videos, err := p.searchVideos(ctx, query, opts)
	if err != nil {
		p.transport.markFailure(cooldownKey)
		logSearchFailure(p.log, query, err)
		return nil
	}
	p.transport.observeResults(len(videos))
	return videos
}

func (p *PexelsProvider) searchVideos(ctx context.Context, query string, opts SearchOptions) ([]Video, error) {
	body, err := p.get(ctx, "/videos/search", query, opts.PerPage)
	if err != nil {
		return nil, err
	}

	var parsed pexelsVideoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, p.parseError(err, "parse_video_response")
	}

	videos := make([]Video, 0, len(parsed.Videos))
	for _, result := range parsed.Videos {
		file := bestVideoFile(result.VideoFiles)
		if file.Link == "" {
			continue
		}
		videos = append(videos, Video{
			SourceID:         strconv.Itoa(result.ID),
			URL:              file.Link,
			ThumbnailURL:     result.Image,
			PreviewURL:       result.Image,
			Width:            file.Width,
			Height:           file.Height,
			Duration:         result.Duration,
			PhotographerName: result.User.Name,
			PhotographerURL:  result.User.URL,
			SourceName:       "Pexels",
			SourceURL:        result.URL,
			License:          pexelsLicense,
		})
	}

	p.log.Debug("video search completed", "query", query, "results", len(videos))
	return videos, nil
}

// bestVideoFile prefers an HD rendition that is still reasonable to stream,
// falls back to the largest SD file, then to whatever is first.
func bestVideoFile(files []pexelsVideoFile) pexelsVideoFile {
	var best pexelsVideoFile
	for _, f := range files {
		if f.Link == "" {
			continue
		}
		switch {
		case f.Quality == "hd" && f.Width <= 1920 && f.Width > best.Width:
			best = f
		case best.Quality != "hd" && f.Quality == "sd" && f.Width > best.Width:
			best = f
		case best.Link == "":
			best = f
		}
	}
	return best
}

func (p *PexelsProvider) get(ctx context.Context, path, query string, perPage int) ([]byte, error) {
	if p.cfg.APIKey == "" {
		return nil, errors.Newf("pexels API key is not configured").
			Component("mediaprovider").
			Category(errors.CategoryConfiguration).
			Build()
	}

	params := url.Values{}
	params.Set("query", query)
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}
	searchURL := fmt.Sprintf("%s%s?%s", p.cfg.Endpoint, path, params.Encode())

	return p.transport.fetch(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", p.cfg.APIKey)
		return req, nil
	})
}

func (p *PexelsProvider) parseError(err error, operation string) error {
	return errors.New(err).
		Component("mediaprovider").
		Category(errors.CategoryMediaFetch).
		Context("provider", NamePexels).
		Context("operation", operation).
		Build()
}
