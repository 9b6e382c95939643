// Package bookmarks keeps a user's bookmarked archive items available as
// playlists, refreshing them in the background.
package bookmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gsandoval82/archivio-backend/internal/domain/library"
	"github.com/gsandoval82/archivio-backend/internal/infra/archive"
)

const (
	// DefaultInterval is the default delay between bookmark syncs.
	DefaultInterval = 15 * time.Minute
	// DefaultConcurrency bounds concurrent item lookups during one sync.
	DefaultConcurrency = 4
)

// Playlist is one bookmarked item with its resolved tracks.
type Playlist struct {
	URI    string          `json:"uri"`
	Name   string          `json:"name"`
	Tracks []library.Track `json:"tracks"`
}

// Lister fetches a user's bookmarked documents.
type Lister interface {
	Bookmarks(ctx context.Context, username string) ([]archive.Doc, error)
}

// Resolver resolves an item URI into its tracks.
type Resolver interface {
	Lookup(ctx context.Context, uri string) []library.Track
}

// Option configures a Worker.
type Option func(*Worker)

// WithInterval sets the delay between syncs.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithConcurrency bounds concurrent item lookups during one sync.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// Worker periodically syncs a user's bookmarks into playlists and hands
// them to the publish callback.
type Worker struct {
	lister      Lister
	resolver    Resolver
	username    string
	interval    time.Duration
	concurrency int
	publish     func([]Playlist)
}

// New creates a bookmarks worker. publish receives the result of every
// successful sync and may be nil.
func New(lister Lister, resolver Resolver, username string, publish func([]Playlist), opts ...Option) *Worker {
	w := &Worker{
		lister:      lister,
		resolver:    resolver,
		username:    username,
		interval:    DefaultInterval,
		concurrency: DefaultConcurrency,
		publish:     publish,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run syncs immediately and then on every interval tick until the context
// is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.syncAndPublish(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) syncAndPublish(ctx context.Context) {
	playlists, err := w.Sync(ctx)
	if err != nil {
		log.Error().Err(err).Str("username", w.username).Msg("Error syncing archive bookmarks")
		return
	}
	log.Info().Str("username", w.username).Int("playlists", len(playlists)).Msg("Synced archive bookmarks")
	if w.publish != nil {
		w.publish(playlists)
	}
}

// Sync fetches the user's bookmarks and resolves each bookmarked item
// into a playlist, preserving bookmark order. Bookmarked collections and
// items whose lookup yields no tracks are skipped.
func (w *Worker) Sync(ctx context.Context) ([]Playlist, error) {
	docs, err := w.lister.Bookmarks(ctx, w.username)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks for %q: %w", w.username, err)
	}

	resolved := make([]Playlist, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		if doc.Mediatype == archive.MediatypeCollection {
			log.Debug().Str("identifier", doc.Identifier).Msg("Skipping bookmarked collection")
			continue
		}
		g.Go(func() error {
			uri := library.ItemURI(doc.Identifier)
			tracks := w.resolver.Lookup(ctx, uri)
			if len(tracks) == 0 {
				log.Warn().Str("uri", uri).Msg("Skipping bookmark with no playable tracks")
				return nil
			}
			resolved[i] = Playlist{URI: uri, Name: library.DocName(doc), Tracks: tracks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	playlists := make([]Playlist, 0, len(resolved))
	for _, pl := range resolved {
		if pl.URI != "" {
			playlists = append(playlists, pl)
		}
	}
	return playlists, nil
}
