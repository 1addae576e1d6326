package mediaprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/httpclient"
	"github.com/wayfarerhq/wayfarer-go/internal/observability/metrics"
)

const unsplashSearchBody = `{
	"results": [
		{
			"id": "abc123",
			"width": 4000,
			"height": 3000,
			"urls": {"regular": "https://images.unsplash.com/abc123?w=1080", "small": "https://images.unsplash.com/abc123?w=400"},
			"links": {"html": "https://unsplash.com/photos/abc123", "download_location": "https://api.unsplash.com/photos/abc123/download"},
			"user": {"name": "Aiko Tanaka", "links": {"html": "https://unsplash.com/@aiko"}}
		},
		{
			"id": "def456",
			"width": 3200,
			"height": 2400,
			"urls": {"regular": "https://images.unsplash.com/def456?w=1080", "small": "https://images.unsplash.com/def456?w=400"},
			"links": {"html": "https://unsplash.com/photos/def456"},
			"user": {"name": "Jo Marsh", "links": {"html": "https://unsplash.com/@jo"}}
		}
	]
}`

func newTestUnsplash(t *testing.T) *UnsplashProvider {
	t.Helper()

	client := httpclient.New(nil)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	cfg := conf.ProviderSettings{
		Enabled:           true,
		APIKey:            "test-key",
		Endpoint:          "https://api.unsplash.com",
		RequestsPerSecond: 100,
	}
	return NewUnsplash(cfg, client, time.Minute, nil)
}

func TestUnsplashSearchPhotos(t *testing.T) {
	provider := newTestUnsplash(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.unsplash.com/search/photos",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Client-ID test-key", req.Header.Get("Authorization"))
			assert.Equal(t, "Kyoto", req.URL.Query().Get("query"))
			assert.Equal(t, "8", req.URL.Query().Get("per_page"))
			assert.Equal(t, "landscape", req.URL.Query().Get("orientation"))
			return httpmock.NewStringResponse(http.StatusOK, unsplashSearchBody), nil
		})

	photos := provider.SearchPhotos(context.Background(), "Kyoto",
		SearchOptions{PerPage: 8, Orientation: "landscape"})

	require.Len(t, photos, 2)
	assert.Equal(t, "abc123", photos[0].SourceID)
	assert.Equal(t, "https://images.unsplash.com/abc123?w=1080", photos[0].URL)
	assert.Equal(t, "https://images.unsplash.com/abc123?w=400", photos[0].ThumbnailURL)
	assert.Equal(t, "Aiko Tanaka", photos[0].PhotographerName)
	assert.Equal(t, "https://unsplash.com/@aiko", photos[0].PhotographerURL)
	assert.Equal(t, "Unsplash License", photos[0].License)
	assert.Equal(t, "https://api.unsplash.com/photos/abc123/download", photos[0].DownloadLocation)
}

func TestUnsplashSearchPhotosUnauthorized(t *testing.T) {
	provider := newTestUnsplash(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.unsplash.com/search/photos",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"errors":["OAuth error"]}`))

	photos := provider.SearchPhotos(context.Background(), "Kyoto", SearchOptions{PerPage: 8})
	assert.Empty(t, photos)
	// auth failures are not retried
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestUnsplashSearchPhotosMalformedJSON(t *testing.T) {
	provider := newTestUnsplash(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.unsplash.com/search/photos",
		httpmock.NewStringResponder(http.StatusOK, `{"results": [`))

	photos := provider.SearchPhotos(context.Background(), "Kyoto", SearchOptions{PerPage: 8})
	assert.Empty(t, photos)
}

func TestUnsplashFailureCooldownSuppressesRetry(t *testing.T) {
	provider := newTestUnsplash(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.unsplash.com/search/photos",
		httpmock.NewStringResponder(http.StatusForbidden, `{"errors":["Rate Limit Exceeded"]}`))

	assert.Empty(t, provider.SearchPhotos(context.Background(), "Kyoto", SearchOptions{}))
	callsAfterFirst := httpmock.GetTotalCallCount()

	// second attempt short-circuits on the cooldown cache
	assert.Empty(t, provider.SearchPhotos(context.Background(), "Kyoto", SearchOptions{}))
	assert.Equal(t, callsAfterFirst, httpmock.GetTotalCallCount())
}

func TestUnsplashMissingAPIKey(t *testing.T) {
	client := httpclient.New(nil)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	provider := NewUnsplash(conf.ProviderSettings{Endpoint: "https://api.unsplash.com"}, client, time.Minute, nil)

	photos := provider.SearchPhotos(context.Background(), "Kyoto", SearchOptions{})
	assert.Empty(t, photos)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestUnsplashConfiguredTimeoutCutsSlowCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(unsplashSearchBody))
	}))
	t.Cleanup(server.Close)

	cfg := conf.ProviderSettings{
		Enabled:           true,
		APIKey:            "test-key",
		Endpoint:          server.URL,
		Timeout:           50 * time.Millisecond,
		RequestsPerSecond: 100,
	}
	provider := NewUnsplash(cfg, httpclient.New(nil), time.Minute, nil)

	start := time.Now()
	photos := provider.SearchPhotos(context.Background(), "Kyoto", SearchOptions{PerPage: 8})

	assert.Empty(t, photos)
	assert.Less(t, time.Since(start), 400*time.Millisecond,
		"configured timeout must cut the call well before the responder finishes")
}

func TestUnsplashSearchRecordsProviderMetrics(t *testing.T) {
	client := httpclient.New(nil)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	pm, err := metrics.NewProviderMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	cfg := conf.ProviderSettings{
		Enabled:           true,
		APIKey:            "test-key",
		Endpoint:          "https://api.unsplash.com",
		RequestsPerSecond: 100,
	}
	provider := NewUnsplash(cfg, client, time.Minute, pm)

	httpmock.RegisterResponder(http.MethodGet, "https://api.unsplash.com/search/photos",
		httpmock.NewStringResponder(http.StatusOK, unsplashSearchBody))

	provider.SearchPhotos(context.Background(), "Kyoto", SearchOptions{PerPage: 8})
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.Requests.WithLabelValues(NameUnsplash)))
	assert.Equal(t, float64(0), testutil.ToFloat64(pm.Errors.WithLabelValues(NameUnsplash)))

	httpmock.Reset()
	httpmock.RegisterResponder(http.MethodGet, "https://api.unsplash.com/search/photos",
		httpmock.NewStringResponder(http.StatusNotFound, `{}`))

	provider.SearchPhotos(context.Background(), "Osaka", SearchOptions{PerPage: 8})
	assert.Equal(t, float64(2), testutil.ToFloat64(pm.Requests.WithLabelValues(NameUnsplash)))
	assert.Equal(t, float64(1), testutil.ToFloat64(pm.Errors.WithLabelValues(NameUnsplash)))
}

func TestUnsplashTrackDownloads(t *testing.T) {
	provider := newTestUnsplash(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.unsplash.com/photos/abc123/download",
		httpmock.NewStringResponder(http.StatusOK, `{"url":"https://images.unsplash.com/abc123"}`))

	provider.TrackDownloads(context.Background(), []Photo{
		{SourceID: "abc123", DownloadLocation: "https://api.unsplash.com/photos/abc123/download"},
		{SourceID: "no-location"},
	})

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["GET https://api.unsplash.com/photos/abc123/download"])
}
