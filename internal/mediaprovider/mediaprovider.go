// Package mediaprovider fetches destination photos and videos from external
// media APIs and normalizes them into a common shape. Provider failures are
// absorbed here: a search that cannot be served returns an empty slice and a
// log line, never an error to the caller.
package mediaprovider

import (
	"context"
	"log/slog"

	"github.com/wayfarerhq/wayfarer-go/internal/logging"
)

var providerLogger = logging.ForService("mediaprovider")

// Provider name identifiers, matching the values stored in cache rows.
const (
	NameUnsplash     = "unsplash"
	NamePexels       = "pexels"
	NameGooglePlaces = "googleplaces"
)

// Photo is a normalized photo result from any provider.
type Photo struct {
	SourceID         string
	URL              string // display size
	ThumbnailURL     string
	Width            int
	Height           int
	PhotographerName string
	PhotographerURL  string
	SourceName       string
	SourceURL        string // provider page for this photo
	License          string
	HTMLAttributions []string // Google Places only, carried verbatim
	DownloadLocation string   // Unsplash only, ping target for download tracking
}

// Video is a normalized video result.
type Video struct {
	SourceID         string
	URL              string // playable file link
	ThumbnailURL     string
	PreviewURL       string // poster image
	Width            int
	Height           int
	Duration         int // seconds
	PhotographerName string
	PhotographerURL  string
	SourceName       string
	SourceURL        string
	License          string
}

// SearchOptions carries per-call tuning for a provider search.
type SearchOptions struct {
	PerPage     int
	Orientation string // unsplash only
}

// PhotoProvider is the contract every photo source satisfies. SearchPhotos
// never returns an error: any failure yields an empty slice.
type PhotoProvider interface {
	Name() string
	SearchPhotos(ctx context.Context, query string, opts SearchOptions) []Photo
}

// VideoProvider is satisfied by sources that can return videos.
type VideoProvider interface {
	SearchVideos(ctx context.Context, query string, opts SearchOptions) []Video
}

// DownloadTracker is an optional capability. Providers whose terms require
// download reporting implement it; the aggregator asserts for it after a
// successful cache write. Best effort, never surfaces errors.
type DownloadTracker interface {
	TrackDownloads(ctx context.Context, photos []Photo)
}

func logSearchFailure(log *slog.Logger, query string, err error) {
	log.Warn("search failed, returning no results", "query", query, "error", err)
}
