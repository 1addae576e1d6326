package mediaprovider

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/httpclient"
)

const placesSearchBody = `{
	"status": "OK",
	"results": [
		{
			"name": "Fushimi Inari Taisha",
			"photos": [
				{
					"photo_reference": "ref-one",
					"width": 4032,
					"height": 3024,
					"html_attributions": ["<a href=\"https://maps.google.com/maps/contrib/42\">Haruto Sato</a>"]
				},
				{
					"photo_reference": "ref-two",
					"width": 3024,
					"height": 4032,
					"html_attributions": ["Plain text contributor"]
				},
				{
					"photo_reference": "ref-three",
					"width": 1000,
					"height": 800,
					"html_attributions": []
				}
			]
		}
	]
}`

func newTestPlaces(t *testing.T) *PlacesProvider {
	t.Helper()

	client := httpclient.New(nil)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	cfg := conf.ProviderSettings{
		Enabled:           true,
		APIKey:            "places-key",
		Endpoint:          "https://maps.googleapis.com/maps/api/place",
		RequestsPerSecond: 100,
	}
	return NewPlaces(cfg, client, time.Minute, nil)
}

func TestPlacesSearchPhotos(t *testing.T) {
	provider := newTestPlaces(t)

	httpmock.RegisterResponder(http.MethodGet, "https://maps.googleapis.com/maps/api/place/textsearch/json",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Fushimi Inari Kyoto", req.URL.Query().Get("query"))
			assert.Equal(t, "places-key", req.URL.Query().Get("key"))
			return httpmock.NewStringResponse(http.StatusOK, placesSearchBody), nil
		})

	photos := provider.SearchPhotos(context.Background(), "Fushimi Inari Kyoto", SearchOptions{PerPage: 2})

	require.Len(t, photos, 2)

	first := photos[0]
	assert.Equal(t, "ref-one", first.SourceID)
	assert.Contains(t, first.URL, "maxwidth=1200")
	assert.Contains(t, first.URL, "photo_reference=ref-one")
	assert.Contains(t, first.ThumbnailURL, "maxwidth=400")
	assert.Equal(t, "Haruto Sato", first.PhotographerName)
	assert.Equal(t, "https://maps.google.com/maps/contrib/42", first.PhotographerURL)
	// markup carried through untouched
	require.Len(t, first.HTMLAttributions, 1)
	assert.Equal(t, `<a href="https://maps.google.com/maps/contrib/42">Haruto Sato</a>`, first.HTMLAttributions[0])

	// anchor-less attribution falls back to plain text
	assert.Equal(t, "Plain text contributor", photos[1].PhotographerName)
	assert.Empty(t, photos[1].PhotographerURL)
}

func TestPlacesSearchPhotosZeroResults(t *testing.T) {
	provider := newTestPlaces(t)

	httpmock.RegisterResponder(http.MethodGet, "https://maps.googleapis.com/maps/api/place/textsearch/json",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`))

	photos := provider.SearchPhotos(context.Background(), "nowhere at all", SearchOptions{PerPage: 2})
	assert.Empty(t, photos)
}

func TestPlacesSearchPhotosAPIErrorStatus(t *testing.T) {
	provider := newTestPlaces(t)

	httpmock.RegisterResponder(http.MethodGet, "https://maps.googleapis.com/maps/api/place/textsearch/json",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"REQUEST_DENIED","results":[]}`))

	photos := provider.SearchPhotos(context.Background(), "Fushimi Inari Kyoto", SearchOptions{PerPage: 2})
	assert.Empty(t, photos)

	// a denied query enters cooldown
	assert.Empty(t, provider.SearchPhotos(context.Background(), "Fushimi Inari Kyoto", SearchOptions{PerPage: 2}))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestExtractAttribution(t *testing.T) {
	href, name := extractAttribution(`<a href="https://maps.google.com/maps/contrib/7">Rin Ito</a>`)
	assert.Equal(t, "https://maps.google.com/maps/contrib/7", href)
	assert.Equal(t, "Rin Ito", name)

	href, name = extractAttribution("Just a name")
	assert.Empty(t, href)
	assert.Equal(t, "Just a name", name)
}
