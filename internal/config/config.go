// Package config holds the backend configuration surface.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config stores the plugin configuration. Fields are validated by the
// host before the core sees them; Load applies defaults for anything the
// environment leaves unset.
type Config struct {
	// BaseURL is the archive endpoint all requests go to.
	BaseURL string
	// BrowseLabel is the display name of the root directory.
	BrowseLabel string
	// Collections are the top-level collection identifiers, in browse
	// order.
	Collections []string
	// AudioFormats lists acceptable audio formats, most preferred first.
	AudioFormats []string
	// ImageFormats lists acceptable image formats, most preferred first.
	ImageFormats []string
	// ExcludeCollections are collections filtered out of search results.
	ExcludeCollections []string
	// ExcludeMediatypes are mediatypes filtered out of search results.
	ExcludeMediatypes []string

	BrowseLimit int
	BrowseOrder []string
	SearchLimit int
	SearchOrder []string

	// CacheSize bounds the metadata cache entry count; 0 disables the
	// size bound.
	CacheSize int
	// CacheTTL expires cached metadata; 0 disables expiry.
	CacheTTL time.Duration

	// Retries bounds how often a failed connection is retried.
	Retries int
	// Timeout applies to every HTTP request.
	Timeout time.Duration

	// BookmarksUser enables bookmark playlist sync when set.
	BookmarksUser string
	// BookmarksInterval is the playlist refresh period.
	BookmarksInterval time.Duration
}

// Load reads the configuration from the environment, with a .env file as
// fallback, and fills in defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	return &Config{
		BaseURL:            getEnv("ARCHIVIO_BASE_URL", "https://archive.org"),
		BrowseLabel:        getEnv("ARCHIVIO_BROWSE_LABEL", "Internet Archive"),
		Collections:        getEnvList("ARCHIVIO_COLLECTIONS", []string{"audio", "etree", "librivoxaudio"}),
		AudioFormats:       getEnvList("ARCHIVIO_AUDIO_FORMATS", []string{"Flac", "VBR MP3", "64Kbps MP3"}),
		ImageFormats:       getEnvList("ARCHIVIO_IMAGE_FORMATS", []string{"JPEG", "JPEG Thumb"}),
		ExcludeCollections: getEnvList("ARCHIVIO_EXCLUDE_COLLECTIONS", nil),
		ExcludeMediatypes:  getEnvList("ARCHIVIO_EXCLUDE_MEDIATYPES", nil),
		BrowseLimit:        getEnvInt("ARCHIVIO_BROWSE_LIMIT", 100),
		BrowseOrder:        getEnvList("ARCHIVIO_BROWSE_ORDER", []string{"downloads desc"}),
		SearchLimit:        getEnvInt("ARCHIVIO_SEARCH_LIMIT", 20),
		SearchOrder:        getEnvList("ARCHIVIO_SEARCH_ORDER", nil),
		CacheSize:          getEnvInt("ARCHIVIO_CACHE_SIZE", 128),
		CacheTTL:           getEnvDuration("ARCHIVIO_CACHE_TTL", 24*time.Hour),
		Retries:            getEnvInt("ARCHIVIO_RETRIES", 3),
		Timeout:            getEnvDuration("ARCHIVIO_TIMEOUT", 10*time.Second),
		BookmarksUser:      getEnv("ARCHIVIO_BOOKMARKS_USER", ""),
		BookmarksInterval:  getEnvDuration("ARCHIVIO_BOOKMARKS_INTERVAL", 15*time.Minute),
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default
// value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer in environment")
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration ("10s",
// "24h") or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration in environment")
	}
	return fallback
}

// getEnvList gets a comma-separated environment variable or returns a
// default value. An explicitly empty variable yields an empty list.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
