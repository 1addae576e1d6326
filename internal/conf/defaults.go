// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Wayfarer")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "wayfarer.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", "Sunday")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.log.enabled", false)
	viper.SetDefault("webserver.log.path", "webapi.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "wayfarer.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "wayfarer")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "wayfarer")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("providers.unsplash.enabled", true)
	viper.SetDefault("providers.unsplash.apikey", "")
	viper.SetDefault("providers.unsplash.endpoint", "https://api.unsplash.com")
	viper.SetDefault("providers.unsplash.timeout", 5*time.Second)
	viper.SetDefault("providers.unsplash.requestspersecond", 2.0)

	viper.SetDefault("providers.pexels.enabled", true)
	viper.SetDefault("providers.pexels.apikey", "")
	viper.SetDefault("providers.pexels.endpoint", "https://api.pexels.com")
	viper.SetDefault("providers.pexels.timeout", 5*time.Second)
	viper.SetDefault("providers.pexels.requestspersecond", 2.0)

	viper.SetDefault("providers.googleplaces.enabled", true)
	viper.SetDefault("providers.googleplaces.apikey", "")
	viper.SetDefault("providers.googleplaces.endpoint", "https://maps.googleapis.com/maps/api/place")
	viper.SetDefault("providers.googleplaces.timeout", 5*time.Second)
	viper.SetDefault("providers.googleplaces.requestspersecond", 2.0)

	viper.SetDefault("mediacache.debug", false)
	viper.SetDefault("mediacache.ttl", 7*24*time.Hour)
	viper.SetDefault("mediacache.mincacheditems", 5)
	viper.SetDefault("mediacache.cityphotocount", 8)
	viper.SetDefault("mediacache.secondaryphotocount", 6)
	viper.SetDefault("mediacache.videocount", 4)
	viper.SetDefault("mediacache.attractionphotocount", 2)
	viper.SetDefault("mediacache.maxattractions", 5)
	viper.SetDefault("mediacache.gallerylimit", 12)
	viper.SetDefault("mediacache.videolimit", 4)
	viper.SetDefault("mediacache.failurebackoff", 15*time.Minute)
}
