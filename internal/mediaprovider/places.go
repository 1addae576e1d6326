package mediaprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/k3a/html2text"
	"golang.org/x/net/html"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/errors"
	"github.com/wayfarerhq/wayfarer-go/internal/httpclient"
	"github.com/wayfarerhq/wayfarer-go/internal/observability/metrics"
)

const (
	placesDisplayMaxWidth = 1200
	placesThumbMaxWidth   = 400
)

// PlacesProvider fetches attraction photos through the Google Places text
// search and photo endpoints.
type PlacesProvider struct {
	cfg       conf.ProviderSettings
	transport *transport
	log       *slog.Logger
}

// NewPlaces creates a Google Places client from explicit settings.
func NewPlaces(cfg conf.ProviderSettings, client *httpclient.Client, failureBackoff time.Duration, pm *metrics.ProviderMetrics) *PlacesProvider {
	return &PlacesProvider{
		cfg:       cfg,
		transport: newTransport(NameGooglePlaces, client, cfg, failureBackoff, pm),
		log:       providerLogger.With("provider", NameGooglePlaces),
	}
}

func (p *PlacesProvider) Name() string { return NameGooglePlaces }

type placesSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name   string `json:"name"`
		Photos []struct {
			PhotoReference   string   `json:"photo_reference"`
			Width            int      `json:"width"`
			Height           int      `json:"height"`
			HTMLAttributions []string `json:"html_attributions"`
		} `json:"photos"`
	} `json:"results"`
}

// SearchPhotos runs a text search for the query and returns photos of the
// first matching place, or an empty slice on any failure. html_attributions
// from the API are carried verbatim on each photo.
func (p *PlacesProvider) SearchPhotos(ctx context.Context, query string, opts SearchOptions) []Photo {
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

func (p *PlacesProvider) searchPhotos(ctx context.Context, query string, opts SearchOptions) ([]Photo, error) {
	if p.cfg.APIKey == "" {
		return nil, errors.Newf("google places API key is not configured").
			Component("mediaprovider").
			Category(errors.CategoryConfiguration).
			Build()
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", p.cfg.APIKey)
	searchURL := fmt.Sprintf("%s/textsearch/json?%s", p.cfg.Endpoint, params.Encode())

	body, err := p.transport.fetch(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	})
	if err != nil {
		return nil, err
	}

	var parsed placesSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.New(err).
			Component("mediaprovider").
			Category(errors.CategoryMediaFetch).
			Context("provider", NameGooglePlaces).
			Context("operation", "parse_search_response").
			Build()
	}

	if parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		return nil, errors.Newf("places text search returned status %s", parsed.Status).
			Component("mediaprovider").
			Category(errors.CategoryMediaFetch).
			Context("provider", NameGooglePlaces).
			Context("api_status", parsed.Status).
			Build()
	}
	if len(parsed.Results) == 0 {
		p.log.Debug("no place found", "query", query)
		return nil, nil
	}

	place := parsed.Results[0]
	limit := opts.PerPage
	if limit <= 0 || limit > len(place.Photos) {
		limit = len(place.Photos)
	}

	photos := make([]Photo, 0, limit)
	for _, raw := range place.Photos[:limit] {
		if raw.PhotoReference == "" {
			continue
		}
		photo := Photo{
			SourceID:         raw.PhotoReference,
			URL:              p.photoURL(raw.PhotoReference, placesDisplayMaxWidth),
			ThumbnailURL:     p.photoURL(raw.PhotoReference, placesThumbMaxWidth),
			Width:            raw.Width,
			Height:           raw.Height,
			SourceName:       "Google Places",
			HTMLAttributions: raw.HTMLAttributions,
		}
		if len(raw.HTMLAttributions) > 0 {
			photo.PhotographerURL, photo.PhotographerName = extractAttribution(raw.HTMLAttributions[0])
		}
		photos = append(photos, photo)
	}

	p.log.Debug("place photo search completed", "query", query, "place", place.Name, "results", len(photos))
	return photos, nil
}

// photoURL builds a Place Photo endpoint URL for the given reference.
func (p *PlacesProvider) photoURL(reference string, maxWidth int) string {
	params := url.Values{}
	params.Set("maxwidth", fmt.Sprintf("%d", maxWidth))
	params.Set("photo_reference", reference)
	params.Set("key", p.cfg.APIKey)
	return fmt.Sprintf("%s/photo?%s", p.cfg.Endpoint, params.Encode())
}

// extractAttribution pulls the contributor link and name out of an
// html_attributions entry. Falls back to the plain text rendering when the
// markup has no anchor.
func extractAttribution(attributionHTML string) (href, name string) {
	doc, err := html.Parse(strings.NewReader(attributionHTML))
	if err != nil {
		return "", html2text.HTML2Text(attributionHTML)
	}

	links := findLinks(doc)
	if len(links) == 0 {
		return "", html2text.HTML2Text(attributionHTML)
	}
	return extractHref(links[0]), extractText(links[0])
}

func findLinks(node *html.Node) []*html.Node {
	var links []*html.Node
	if node.Type == html.ElementNode && node.Data == "a" {
		links = append(links, node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		links = append(links, findLinks(child)...)
	}
	return links
}

func extractHref(link *html.Node) string {
	for _, attr := range link.Attr {
		if attr.Key == "href" {
			return attr.Val
		}
	}
	return ""
}

func extractText(link *html.Node) string {
	var sb strings.Builder
	for child := link.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}
