// model.go this code defines the data model for the application
package datastore

import "time"

// Media source identifiers as stored in MediaItem.Source.
const (
	SourceUnsplash     = "unsplash"
	SourcePexels       = "pexels"
	SourceGooglePlaces = "googleplaces"
)

// Media type identifiers as stored in MediaItem.MediaType.
const (
	MediaTypePhoto = "photo"
	MediaTypeVideo = "video"
)

// Fetch context identifiers as stored in MediaItem.Context.
const (
	ContextHero       = "hero"
	ContextGeneral    = "general"
	ContextAttraction = "attraction"
)

// MediaItem represents a single cached photo or video for a destination
type MediaItem struct {
	ID              uint   `gorm:"primaryKey"`
	DestinationName string `gorm:"index:idx_media_destination;not null"`
	Country         string `gorm:"index:idx_media_destination;not null"`
	Source          string `gorm:"type:varchar(32);not null"` // unsplash, pexels, googleplaces
	MediaType       string `gorm:"type:varchar(16);not null"` // photo or video
	SourceID        string `gorm:"type:varchar(255)"`         // provider-native identity

	URL          string `gorm:"type:text"`
	ThumbnailURL string `gorm:"type:text"`
	PreviewURL   string `gorm:"type:text"` // video poster image
	Width        int
	Height       int
	Duration     int // video length in seconds

	Context        string `gorm:"type:varchar(32)"` // hero, general or attraction
	ContextQuery   string `gorm:"type:text"`        // the provider query that produced this item
	AttractionName string `gorm:"type:varchar(255)"`

	PhotographerName string   `gorm:"type:varchar(255)"`
	PhotographerURL  string   `gorm:"type:text"`
	SourceName       string   `gorm:"type:varchar(255)"`
	SourceURL        string   `gorm:"type:text"`
	License          string   `gorm:"type:varchar(128)"`
	HTMLAttributions []string `gorm:"serializer:json"` // carried verbatim from Google Places

	QualityScore int  `gorm:"index"`
	IsPrimary    bool // at most one per destination group, always a photo

	ExpiresAt time.Time `gorm:"index"` // set once at write time, never refreshed in place
	IsActive  bool      `gorm:"index;default:true"`
	CachedAt  time.Time `gorm:"index"`
}

// Destination holds per-destination presentation state, currently the
// header image written as a refresh side effect.
type Destination struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"uniqueIndex:idx_destination_name_country;not null"`
	Country        string `gorm:"uniqueIndex:idx_destination_name_country;not null"`
	ImageURL       string `gorm:"type:text"`
	ThumbnailURL   string `gorm:"type:text"`
	ImageUpdatedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
