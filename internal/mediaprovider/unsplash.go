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

const unsplashLicense = "Unsplash License"

// UnsplashProvider is the primary city photo source.
type UnsplashProvider struct {
	cfg       conf.ProviderSettings
	transport *transport
	log       *slog.Logger
}

// NewUnsplash creates an Unsplash client from explicit settings.
func NewUnsplash(cfg conf.ProviderSettings, client *httpclient.Client, failureBackoff time.Duration, pm *metrics.ProviderMetrics) *UnsplashProvider {
	return &UnsplashProvider{
		cfg:       cfg,
		transport: newTransport(NameUnsplash, client, cfg, failureBackoff, pm),
		log:       providerLogger.With("provider", NameUnsplash),
	}
}

func (p *UnsplashProvider) Name() string { return NameUnsplash }

type unsplashSearchResponse struct {
	Results []unsplashPhoto `json:"results"`
}

type unsplashPhoto struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URLs   struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	Links struct {
		HTML             string `json:"html"`
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

// SearchPhotos returns normalized photos for the query, or an empty slice on
// any failure. Result order follows the provider's relevance ranking.
func (p *UnsplashProvider) SearchPhotos(ctx context.Context, query string, opts SearchOptions) []Photo {
	if p.transport.inCooldown(query) {
		p.log.Debug("query in failure cooldown, skipping", "query", query)
		return nil
	}

	photos, err := p.searchPhotos(ctx, query, opts)
	if err != nil {
		p.transport.markFailure(query)
		logSearchFailure(p.log, query, err)
		return nil
	}
	p.transport.observeResults(len(photos))
	return photos
}

func (p *UnsplashProvider) searchPhotos(ctx context.Context, query string, opts SearchOptions) ([]Photo, error) {
	if p.cfg.APIKey == "" {
		return nil, errors.Newf("unsplash API key is not configured").
			Component("mediaprovider").
			Category(errors.CategoryConfiguration).
			Build()
	}

	params := url.Values{}
	params.Set("query", query)
	if opts.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Orientation != "" {
		params.Set("orientation", opts.Orientation)
	}
	searchURL := fmt.Sprintf("%s/search/photos?%s", p.cfg.Endpoint, params.Encode())

	body, err := p.transport.fetch(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Client-ID "+p.cfg.APIKey)
		req.Header.Set("Accept-Version", "v1")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed unsplashSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.New(err).
			Component("mediaprovider").
			Category(errors.CategoryMediaFetch).
			Context("provider", NameUnsplash).
			Context("operation", "parse_search_response").
			Build()
	}

	photos := make([]Photo, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		if result.URLs.Regular == "" {
			continue
		}
		photos = append(photos, Photo{
			SourceID:         result.ID,
			URL:              result.URLs.Regular,
			ThumbnailURL:     result.URLs.Small,
			Width:            result.Width,
			Height:           result.Height,
			PhotographerName: result.User.Name,
			PhotographerURL:  result.User.Links.HTML,
			SourceName:       "Unsplash",
			SourceURL:        result.Links.HTML,
			License:          unsplashLicense,
			DownloadLocation: result.Links.DownloadLocation,
		})
	}

	p.log.Debug("search completed", "query", query, "results", len(photos))
	return photos, nil
}

// TrackDownloads pings each photo's download endpoint as Unsplash's terms
// require once a photo is actually used. Failures are logged and dropped.
func (p *UnsplashProvider) TrackDownloads(ctx context.Context, photos []Photo) {
	for _, photo := range photos {
		if photo.DownloadLocation == "" {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, photo.DownloadLocation, http.NoBody)
		if err != nil {
			p.log.Warn("building download ping failed", "photo_id", photo.SourceID, "error", err)
			continue
		}
		req.Header.Set("Authorization", "Client-ID "+p.cfg.APIKey)

		resp, err := p.transport.client.Do(ctx, req)
		if err != nil {
			p.log.Warn("download ping failed", "photo_id", photo.SourceID, "error", err)
			continue
		}
		_ = resp.Body.Close()
	}
}
