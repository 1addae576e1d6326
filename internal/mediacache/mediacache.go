// Package mediacache aggregates destination photos and videos from multiple
// external providers into a database-backed cache. Reads are always served
// from the cache; a refresh fans out to every provider in parallel, scores
// and deduplicates the results, and replaces the destination's cached rows
// in one delete-then-insert generation.
package mediacache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/datastore"
	"github.com/wayfarerhq/wayfarer-go/internal/errors"
	"github.com/wayfarerhq/wayfarer-go/internal/logging"
	"github.com/wayfarerhq/wayfarer-go/internal/mediaprovider"
	"github.com/wayfarerhq/wayfarer-go/internal/observability/metrics"
)

var cacheLogger = logging.ForService("mediacache")

// Quality scores by fetch role. The hero photo always outranks everything
// else so view assembly and header image selection agree on it.
const (
	scoreHero            = 100
	scoreAttractionPhoto = 85
	scoreCityPhoto       = 80
	scoreVideo           = 75
	scoreSecondaryPhoto  = 70
)

// concurrent attraction searches per refresh
const attractionSearchConcurrency = 3

// Providers bundles the external sources a Cache aggregates from. Any of
// them may be nil; a missing source simply contributes nothing.
type Providers struct {
	CityPhotos       mediaprovider.PhotoProvider // primary source, supplies the hero
	SecondaryPhotos  mediaprovider.PhotoProvider
	Videos           mediaprovider.VideoProvider
	AttractionPhotos mediaprovider.PhotoProvider
}

// FetchRequest describes one destination refresh.
type FetchRequest struct {
	City        string
	Country     string
	Attractions []string // optional named attractions to fetch photos for
}

// AggregatedMedia is the assembled view of a destination's cached media.
type AggregatedMedia struct {
	City         string                           `json:"city"`
	Country      string                           `json:"country"`
	Hero         *datastore.MediaItem             `json:"hero,omitempty"`
	Gallery      []datastore.MediaItem            `json:"gallery"`
	Videos       []datastore.MediaItem            `json:"videos"`
	ByAttraction map[string][]datastore.MediaItem `json:"byAttraction,omitempty"`
	TotalItems   int                              `json:"totalItems"`
}

// Cache is the destination media aggregator.
type Cache struct {
	store     datastore.Interface
	providers Providers
	settings  conf.MediaCacheSettings
	metrics   *metrics.MediaCacheMetrics
	log       *slog.Logger
	debug     bool
}

// New creates a media cache over the given store and providers. metrics may
// be nil.
func New(store datastore.Interface, providers Providers, settings conf.MediaCacheSettings, m *metrics.MediaCacheMetrics) *Cache {
	return &Cache{
		store:     store,
		providers: providers,
		settings:  settings,
		metrics:   m,
		log:       cacheLogger,
		debug:     settings.Debug,
	}
}

// GetCachedMedia assembles the media view for a destination purely from
// cached rows. It never contacts a provider.
func (c *Cache) GetCachedMedia(ctx context.Context, city, country string) (*AggregatedMedia, error) {
	items, err := c.store.GetDestinationMedia(city, country)
	if err != nil {
		return nil, err
	}
	return c.assembleView(city, country, items), nil
}

// GetMediaForCity is the external read entry point: it serves from the cache
// when it is fresh and transparently refreshes it otherwise.
func (c *Cache) GetMediaForCity(ctx context.Context, city, country string) (*AggregatedMedia, error) {
	return c.FetchAndCacheMedia(ctx, FetchRequest{City: city, Country: country})
}

// FetchAndCacheMedia returns the destination's media view, refreshing the
// cache first when it is empty, too small, or past its expiry. Provider
// failures never fail the call; only a persistence failure does.
func (c *Cache) FetchAndCacheMedia(ctx context.Context, req FetchRequest) (*AggregatedMedia, error) {
	if req.City == "" || req.Country == "" {
		return nil, errors.Newf("city and country are required").
			Component("mediacache").
			Category(errors.CategoryValidation).
			Build()
	}

	cached, err := c.store.GetDestinationMedia(req.City, req.Country)
	if err != nil {
		return nil, err
	}

	if c.isFresh(cached) {
		if c.metrics != nil {
			c.metrics.IncrementCacheHits()
		}
		if c.debug {
			c.log.Debug("serving fresh cached media", "city", req.City, "country", req.Country, "items", len(cached))
		}
		return c.assembleView(req.City, req.Country, cached), nil
	}

	if c.metrics != nil {
		c.metrics.IncrementCacheMisses()
	}
	return c.refresh(ctx, req, cached)
}

// isFresh reports whether the cached rows can be served without a refresh:
// enough of them, and none past its expiry.
func (c *Cache) isFresh(items []datastore.MediaItem) bool {
	if len(items) <= c.settings.MinCachedItems {
		return false
	}
	now := time.Now()
	for i := range items {
		if !items[i].ExpiresAt.After(now) {
			return false
		}
	}
	return true
}

// fetchResults collects the raw provider output of one refresh fan-out.
type fetchResults struct {
	cityPhotos       []mediaprovider.Photo
	secondaryPhotos  []mediaprovider.Photo
	videos           []mediaprovider.Video
	attractionPhotos map[string][]mediaprovider.Photo // keyed by attraction name
}

func (c *Cache) refresh(ctx context.Context, req FetchRequest, previous []datastore.MediaItem) (*AggregatedMedia, error) {
	start := time.Now()
	c.log.Info("refreshing destination media",
		"city", req.City,
		"country", req.Country,
		"attractions", len(req.Attractions),
		"previous_items", len(previous))

	results := c.fetchAll(ctx, req)
	items := c.transform(req, results)

	if len(items) == 0 {
		c.log.Warn("all providers returned no media",
			"city", req.City, "country", req.Country)
	}

	// the stored generation always mirrors the latest fan-out, even when
	// that fan-out came back empty
	if err := c.store.DeleteDestinationMedia(req.City, req.Country); err != nil {
		if c.metrics != nil {
			c.metrics.IncrementRefreshErrors()
		}
		return nil, err
	}
	if len(items) > 0 {
		if err := c.store.SaveMediaBatch(items); err != nil {
			if c.metrics != nil {
				c.metrics.IncrementRefreshErrors()
			}
			return nil, err
		}
	}

	c.runPostSteps(ctx, req, items, results)

	if c.metrics != nil {
		c.metrics.IncrementRefreshes()
		c.metrics.ObserveRefreshDuration(time.Since(start).Seconds())
		c.metrics.ObserveItemsCached(float64(len(items)))
	}
	c.log.Info("destination media refreshed",
		"city", req.City,
		"country", req.Country,
		"items", len(items),
		"duration_ms", time.Since(start).Milliseconds())

	// reread so the caller sees exactly what future reads will see
	return c.GetCachedMedia(ctx, req.City, req.Country)
}

// fetchAll runs the provider fan-out. Each source runs concurrently and
// recovers its own failures, so a slow or broken provider only costs its own
// results.
func (c *Cache) fetchAll(ctx context.Context, req FetchRequest) fetchResults {
	var (
		wg      sync.WaitGroup
		results fetchResults
	)

	if c.providers.CityPhotos != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results.cityPhotos = c.providers.CityPhotos.SearchPhotos(ctx, req.City, mediaprovider.SearchOptions{
				PerPage:     c.settings.CityPhotoCount,
				Orientation: "landscape",
			})
		}()
	}

	if c.providers.SecondaryPhotos != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			query := fmt.Sprintf("%s %s", req.City, req.Country)
			results.secondaryPhotos = c.providers.SecondaryPhotos.SearchPhotos(ctx, query, mediaprovider.SearchOptions{
				PerPage: c.settings.SecondaryPhotoCount,
			})
		}()
	}

	if c.providers.Videos != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			query := fmt.Sprintf("%s %s", req.City, req.Country)
			results.videos = c.providers.Videos.SearchVideos(ctx, query, mediaprovider.SearchOptions{
				PerPage: c.settings.VideoCount,
			})
		}()
	}

	if c.providers.AttractionPhotos != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results.attractionPhotos = c.fetchAttractionPhotos(ctx, req)
		}()
	}

	wg.Wait()
	return results
}

// fetchAttractionPhotos searches each named attraction, capped at the
// configured maximum. Without named attractions it falls back to a single
// landmarks query for the city.
func (c *Cache) fetchAttractionPhotos(ctx context.Context, req FetchRequest) map[string][]mediaprovider.Photo {
	attractions := req.Attractions
	if c.settings.MaxAttractions > 0 && len(attractions) > c.settings.MaxAttractions {
		attractions = attractions[:c.settings.MaxAttractions]
	}

	opts := mediaprovider.SearchOptions{PerPage: c.settings.AttractionPhotoCount}

	if len(attractions) == 0 {
		query := fmt.Sprintf("%s landmarks", req.City)
		photos := c.providers.AttractionPhotos.SearchPhotos(ctx, query, opts)
		if len(photos) == 0 {
			return nil
		}
		return map[string][]mediaprovider.Photo{"": photos}
	}

	var mu sync.Mutex
	found := make(map[string][]mediaprovider.Photo, len(attractions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(attractionSearchConcurrency)
	for _, attraction := range attractions {
		name := strings.TrimSpace(attraction)
		if name == "" {
			continue
		}
		g.Go(func() error {
			query := fmt.Sprintf("%s %s", name, req.City)
			photos := c.providers.AttractionPhotos.SearchPhotos(gctx, query, opts)
			if len(photos) > 0 {
				mu.Lock()
				found[name] = photos
				mu.Unlock()
			}
			return nil
		})
	}
	// workers never return errors, Wait only orders the map writes
	_ = g.Wait()
	return found
}

// dedupKey identifies a media item within one refresh run.
type dedupKey struct {
	mediaType string
	source    string
	sourceID  string
}

// transform converts raw provider results into scored cache rows. The first
// city photo that passes the id and dedupe checks becomes the hero;
// duplicates across sources are dropped on (type, source, id).
func (c *Cache) transform(req FetchRequest, results fetchResults) []datastore.MediaItem {
	now := time.Now()
	expires := now.Add(c.settings.TTL)
	seen := make(map[dedupKey]bool)
	var items []datastore.MediaItem

	addPhoto := func(photo mediaprovider.Photo, source, context, contextQuery, attraction string, score int, primary bool) bool {
		key := dedupKey{datastore.MediaTypePhoto, source, photo.SourceID}
		if photo.SourceID == "" || seen[key] {
			return false
		}
		seen[key] = true
		items = append(items, datastore.MediaItem{
			DestinationName:  req.City,
			Country:          req.Country,
			Source:           source,
			MediaType:        datastore.MediaTypePhoto,
			SourceID:         photo.SourceID,
			URL:              photo.URL,
			ThumbnailURL:     photo.ThumbnailURL,
			Width:            photo.Width,
			Height:           photo.Height,
			Context:          context,
			ContextQuery:     contextQuery,
			AttractionName:   attraction,
			PhotographerName: photo.PhotographerName,
			PhotographerURL:  photo.PhotographerURL,
			SourceName:       photo.SourceName,
			SourceURL:        photo.SourceURL,
			License:          photo.License,
			HTMLAttributions: photo.HTMLAttributions,
			QualityScore:     score,
			IsPrimary:        primary,
			ExpiresAt:        expires,
			CachedAt:         now,
		})
		return true
	}

	// the first city photo that survives the id and dedupe checks becomes
	// the hero
	heroAssigned := false
	for _, photo := range results.cityPhotos {
		if !heroAssigned {
			heroAssigned = addPhoto(photo, c.providerName(c.providers.CityPhotos), datastore.ContextHero, req.City, "", scoreHero, true)
			continue
		}
		addPhoto(photo, c.providerName(c.providers.CityPhotos), datastore.ContextGeneral, req.City, "", scoreCityPhoto, false)
	}

	secondaryQuery := fmt.Sprintf("%s %s", req.City, req.Country)
	for _, photo := range results.secondaryPhotos {
		addPhoto(photo, c.providerName(c.providers.SecondaryPhotos), datastore.ContextGeneral, secondaryQuery, "", scoreSecondaryPhoto, false)
	}

	for attraction, photos := range results.attractionPhotos {
		query := fmt.Sprintf("%s %s", attraction, req.City)
		if attraction == "" {
			query = fmt.Sprintf("%s landmarks", req.City)
		}
		for _, photo := range photos {
			addPhoto(photo, c.providerName(c.providers.AttractionPhotos), datastore.ContextAttraction, query, attraction, scoreAttractionPhoto, false)
		}
	}

	videoSource := mediaprovider.NamePexels
	for _, video := range results.videos {
		key := dedupKey{datastore.MediaTypeVideo, videoSource, video.SourceID}
		if video.SourceID == "" || seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, datastore.MediaItem{
			DestinationName:  req.City,
			Country:          req.Country,
			Source:           videoSource,
			MediaType:        datastore.MediaTypeVideo,
			SourceID:         video.SourceID,
			URL:              video.URL,
			ThumbnailURL:     video.ThumbnailURL,
			PreviewURL:       video.PreviewURL,
			Width:            video.Width,
			Height:           video.Height,
			Duration:         video.Duration,
			Context:          datastore.ContextGeneral,
			ContextQuery:     secondaryQuery,
			PhotographerName: video.PhotographerName,
			PhotographerURL:  video.PhotographerURL,
			SourceName:       video.SourceName,
			SourceURL:        video.SourceURL,
			License:          video.License,
			QualityScore:     scoreVideo,
			ExpiresAt:        expires,
			CachedAt:         now,
		})
	}

	return items
}

func (c *Cache) providerName(p mediaprovider.PhotoProvider) string {
	if p == nil {
		return ""
	}
	return p.Name()
}

// runPostSteps performs the best-effort side effects of a successful refresh.
// Each one recovers independently; none can fail the refresh.
func (c *Cache) runPostSteps(ctx context.Context, req FetchRequest, items []datastore.MediaItem, results fetchResults) {
	c.updateHeaderImage(req, items)
	c.trackDownloads(ctx, results.cityPhotos)
}

func (c *Cache) updateHeaderImage(req FetchRequest, items []datastore.MediaItem) {
	var hero *datastore.MediaItem
	for i := range items {
		if items[i].IsPrimary {
			hero = &items[i]
			break
		}
	}
	if hero == nil {
		return
	}
	if err := c.store.UpdateDestinationHeaderImage(req.City, req.Country, hero.URL, hero.ThumbnailURL); err != nil {
		c.log.Warn("header image update failed",
			"city", req.City, "country", req.Country, "error", err)
	}
}

func (c *Cache) trackDownloads(ctx context.Context, photos []mediaprovider.Photo) {
	if len(photos) == 0 {
		return
	}
	tracker, ok := c.providers.CityPhotos.(mediaprovider.DownloadTracker)
	if !ok {
		return
	}
	tracker.TrackDownloads(ctx, photos)
}

// assembleView shapes cached rows, already ordered best first, into the
// aggregated response.
func (c *Cache) assembleView(city, country string, items []datastore.MediaItem) *AggregatedMedia {
	view := &AggregatedMedia{
		City:       city,
		Country:    country,
		Gallery:    []datastore.MediaItem{},
		Videos:     []datastore.MediaItem{},
		TotalItems: len(items),
	}

	for i := range items {
		item := items[i]
		switch item.MediaType {
		case datastore.MediaTypePhoto:
			if view.Hero == nil && item.IsPrimary {
				hero := item
				view.Hero = &hero
			}
			if len(view.Gallery) < c.settings.GalleryLimit {
				view.Gallery = append(view.Gallery, item)
			}
			if item.AttractionName != "" {
				if view.ByAttraction == nil {
					view.ByAttraction = make(map[string][]datastore.MediaItem)
				}
				view.ByAttraction[item.AttractionName] = append(view.ByAttraction[item.AttractionName], item)
			}
		case datastore.MediaTypeVideo:
			if len(view.Videos) < c.settings.VideoLimit {
				view.Videos = append(view.Videos, item)
			}
		}
	}

	// no primary survived, promote the best photo so the view still leads
	// with an image
	if view.Hero == nil && len(view.Gallery) > 0 {
		hero := view.Gallery[0]
		view.Hero = &hero
	}

	return view
}
