// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateWebServerSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateMediaCacheSettings(&settings.MediaCache); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateProviderSettings(&settings.Providers); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateWebServerSettings(settings *Settings) error {
	if !settings.Webserver.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.Webserver.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid webserver port: %s", settings.Webserver.Port)
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		return fmt.Errorf("no database output enabled, either sqlite or mysql is required")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("sqlite output enabled but no path configured")
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" || settings.Output.MySQL.Database == "" {
			return fmt.Errorf("mysql output enabled but host or database is not configured")
		}
	}
	return nil
}

func validateMediaCacheSettings(mc *MediaCacheSettings) error {
	if mc.TTL <= 0 {
		return fmt.Errorf("mediacache ttl must be positive, got %v", mc.TTL)
	}
	if mc.MinCachedItems < 0 {
		return fmt.Errorf("mediacache mincacheditems must not be negative, got %d", mc.MinCachedItems)
	}
	if mc.CityPhotoCount < 1 {
		return fmt.Errorf("mediacache cityphotocount must be at least 1, got %d", mc.CityPhotoCount)
	}
	if mc.GalleryLimit < 1 || mc.VideoLimit < 0 {
		return fmt.Errorf("mediacache view limits are invalid: gallery %d, video %d", mc.GalleryLimit, mc.VideoLimit)
	}
	return nil
}

func validateProviderSettings(p *ProvidersSettings) error {
	for name, ps := range map[string]*ProviderSettings{
		"unsplash":     &p.Unsplash,
		"pexels":       &p.Pexels,
		"googleplaces": &p.GooglePlaces,
	} {
		if !ps.Enabled {
			continue
		}
		if ps.Endpoint == "" {
			return fmt.Errorf("provider %s is enabled but has no endpoint", name)
		}
		if ps.Timeout <= 0 {
			return fmt.Errorf("provider %s timeout must be positive, got %v", name, ps.Timeout)
		}
	}
	return nil
}
