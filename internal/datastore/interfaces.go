// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations the media cache depends on.
type Interface interface {
	Open() error
	Close() error
	// media cache rows
	SaveMediaBatch(items []MediaItem) error
	DeleteDestinationMedia(name, country string) error
	GetDestinationMedia(name, country string) ([]MediaItem, error)
	// destination header image
	GetDestination(name, country string) (Destination, error)
	UpdateDestinationHeaderImage(name, country, imageURL, thumbnailURL string) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// SaveMediaBatch inserts a refresh generation of media rows in a single
// transaction. Rows missing lifecycle fields get them filled in here so
// callers only describe the media itself.
func (ds *DataStore) SaveMediaBatch(items []MediaItem) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	for i := range items {
		if items[i].CachedAt.IsZero() {
			items[i].CachedAt = now
		}
		items[i].IsActive = true
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_media_batch").
			Context("item_count", len(items)).
			Build()
	}
	return nil
}

// DeleteDestinationMedia removes all cached media rows for one destination
// group. Other destinations are untouched.
func (ds *DataStore) DeleteDestinationMedia(name, country string) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}

	err := ds.DB.Where("destination_name = ? AND country = ?", name, country).
		Delete(&MediaItem{}).Error
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "delete_destination_media").
			Context("destination", name).
			Build()
	}
	return nil
}

// GetDestinationMedia returns the active cached rows for a destination,
// best quality first.
func (ds *DataStore) GetDestinationMedia(name, country string) ([]MediaItem, error) {
	if ds.DB == nil {
		return nil, errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}

	var items []MediaItem
	err := ds.DB.Where("destination_name = ? AND country = ? AND is_active = ?", name, country, true).
		Order("quality_score DESC").
		Find(&items).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_destination_media").
			Context("destination", name).
			Build()
	}
	return items, nil
}

// GetDestination looks up a destination row by its (name, country) key.
func (ds *DataStore) GetDestination(name, country string) (Destination, error) {
	if ds.DB == nil {
		return Destination{}, errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}

	var dest Destination
	err := ds.DB.Where("name = ? AND country = ?", name, country).First(&dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Destination{}, errors.New(err).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("destination", name).
				Build()
		}
		return Destination{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_destination").
			Context("destination", name).
			Build()
	}
	return dest, nil
}

// UpdateDestinationHeaderImage upserts the destination row and stamps the new
// header image URLs. Used as a best-effort side effect after a cache refresh.
func (ds *DataStore) UpdateDestinationHeaderImage(name, country, imageURL, thumbnailURL string) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}

	now := time.Now()
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		var dest Destination
		result := tx.Where("name = ? AND country = ?", name, country).First(&dest)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			dest = Destination{Name: name, Country: country}
		}
		dest.ImageURL = imageURL
		dest.ThumbnailURL = thumbnailURL
		dest.ImageUpdatedAt = now
		return tx.Save(&dest).Error
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "update_destination_header_image").
			Context("destination", name).
			Build()
	}
	return nil
}
