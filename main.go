package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayfarerhq/wayfarer-go/internal/api"
	"github.com/wayfarerhq/wayfarer-go/internal/conf"
	"github.com/wayfarerhq/wayfarer-go/internal/datastore"
	"github.com/wayfarerhq/wayfarer-go/internal/httpclient"
	"github.com/wayfarerhq/wayfarer-go/internal/logging"
	"github.com/wayfarerhq/wayfarer-go/internal/mediacache"
	"github.com/wayfarerhq/wayfarer-go/internal/mediaprovider"
	"github.com/wayfarerhq/wayfarer-go/internal/observability"
)

func main() {
	var debug bool
	var closeLogFile func() error

	rootCmd := &cobra.Command{
		Use:   "wayfarer",
		Short: "Wayfarer destination media service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init()
			settings, err := conf.Load()
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			if debug {
				settings.Debug = true
			}
			level := slog.LevelInfo
			if settings.Debug {
				level = slog.LevelDebug
				logging.SetLevel(level)
			}
			if settings.Main.Log.Enabled {
				closeLogFile, err = logging.EnableFileOutput(settings.Main.Log, level)
				if err != nil {
					return fmt.Errorf("error opening log file: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")

	rootCmd.AddCommand(setupServeCommand(), setupRefreshCommand())
	err := rootCmd.Execute()
	if closeLogFile != nil {
		_ = closeLogFile()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildCache wires the datastore, providers and aggregator from settings.
func buildCache(settings *conf.Settings, metrics *observability.Metrics) (*mediacache.Cache, datastore.Interface, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, nil, fmt.Errorf("no database backend enabled, enable output.sqlite or output.mysql")
	}
	if err := store.Open(); err != nil {
		return nil, nil, fmt.Errorf("error opening database: %w", err)
	}

	client := httpclient.New(nil)
	if settings.Debug {
		client.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error) {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			logging.Debug("outbound request", "method", req.Method, "host", req.URL.Host, "status", status, "error", err)
		})
	}

	backoff := settings.MediaCache.FailureBackoff
	providers := mediacache.Providers{}

	if settings.Providers.Unsplash.Enabled {
		providers.CityPhotos = mediaprovider.NewUnsplash(settings.Providers.Unsplash, client, backoff, metrics.Provider)
	}
	if settings.Providers.Pexels.Enabled {
		pexels := mediaprovider.NewPexels(settings.Providers.Pexels, client, backoff, metrics.Provider)
		providers.SecondaryPhotos = pexels
		providers.Videos = pexels
	}
	if settings.Providers.GooglePlaces.Enabled {
		providers.AttractionPhotos = mediaprovider.NewPlaces(settings.Providers.GooglePlaces, client, backoff, metrics.Provider)
	}

	cache := mediacache.New(store, providers, settings.MediaCache, metrics.MediaCache)
	return cache, store, nil
}

func setupServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the media API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := conf.Setting()

			metrics, err := observability.NewMetrics()
			if err != nil {
				return fmt.Errorf("error initializing metrics: %w", err)
			}

			cache, store, err := buildCache(settings, metrics)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			server := api.New(settings, cache, metrics)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				logging.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}
}

func setupRefreshCommand() *cobra.Command {
	var attractions string

	cmd := &cobra.Command{
		Use:   "refresh [city] [country]",
		Short: "Refresh cached media for one destination",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := conf.Setting()

			metrics, err := observability.NewMetrics()
			if err != nil {
				return fmt.Errorf("error initializing metrics: %w", err)
			}

			cache, store, err := buildCache(settings, metrics)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			req := mediacache.FetchRequest{City: args[0], Country: args[1]}
			if attractions != "" {
				for _, name := range strings.Split(attractions, ",") {
					if name = strings.TrimSpace(name); name != "" {
						req.Attractions = append(req.Attractions, name)
					}
				}
			}

			view, err := cache.FetchAndCacheMedia(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			fmt.Printf("cached %d items for %s, %s", view.TotalItems, view.City, view.Country)
			if view.Hero != nil {
				fmt.Printf(" (hero: %s)", view.Hero.URL)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&attractions, "attractions", "", "Comma-separated attraction names to fetch photos for")
	return cmd
}
