package library

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gsandoval82/archivio-backend/internal/config"
	"github.com/gsandoval82/archivio-backend/internal/infra/archive"
	"github.com/gsandoval82/archivio-backend/internal/infra/cache"
)

// queryFields maps the host's logical search fields to remote document
// fields. An empty mapping is an unqualified free-text term.
var queryFields = map[string]string{
	"any":         "",
	"album":       "title",
	"artist":      "creator",
	"albumartist": "creator",
	"date":        "date",
}

// Provider implements the host-facing browse/search/lookup contract.
// The host serializes calls into one provider instance; the shared cache
// and track map are still guarded so a background bookmarks worker may
// call through the same instance.
type Provider struct {
	cfg    *config.Config
	client *archive.Client
	cache  *cache.Cache // shared response cache; may be nil

	mu     sync.Mutex
	tracks map[string]Track // resolved track URIs of the last item
}

// NewProvider creates a library provider on top of an archive client.
// The cache must be the same one the client writes through; Refresh
// clears it.
func NewProvider(cfg *config.Config, client *archive.Client, c *cache.Cache) *Provider {
	return &Provider{
		cfg:    cfg,
		client: client,
		cache:  c,
		tracks: make(map[string]Track),
	}
}

// RootDirectory returns the reference the host mounts this source under.
func (p *Provider) RootDirectory() Ref {
	return Ref{
		URI:  Scheme + ":",
		Name: p.cfg.BrowseLabel,
		Type: RefDirectory,
	}
}

// Browse resolves a URI into its children: the configured collections for
// the root, a collection's items, or an item's tracks. Remote errors are
// logged and yield an empty list.
func (p *Provider) Browse(ctx context.Context, uri string) []Ref {
	identifier, _, err := ParseURI(uri)
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Error browsing archive")
		return nil
	}

	var refs []Ref
	switch {
	case identifier == "":
		refs, err = p.browseRoot(ctx)
	case slices.Contains(p.cfg.Collections, identifier):
		refs, err = p.browseCollection(ctx, identifier)
	default:
		refs, err = p.browseItem(ctx, identifier)
	}
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Error browsing archive")
		return nil
	}
	return refs
}

// Lookup resolves a URI into its tracks: all tracks of an item, or the
// single track a fragment names. Remote errors are logged and yield an
// empty list.
func (p *Provider) Lookup(ctx context.Context, uri string) []Track {
	p.mu.Lock()
	track, ok := p.tracks[uri]
	p.mu.Unlock()
	if ok {
		return []Track{track}
	}
	log.Debug().Str("uri", uri).Msg("Track lookup cache miss")

	identifier, filename, err := ParseURI(uri)
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Lookup failed")
		return nil
	}
	tracks, err := p.lookupItem(ctx, identifier)
	if err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Lookup failed")
		return nil
	}
	if filename == "" {
		return tracks
	}

	p.mu.Lock()
	track, ok = p.tracks[uri]
	p.mu.Unlock()
	if !ok {
		log.Error().Str("uri", uri).Msg("Lookup failed: no such file")
		return nil
	}
	return []Track{track}
}

// Search maps the host's query onto remote fields, narrows it with the
// configured filter and any collection URIs, and returns matching items
// as albums. Queries using fields this backend cannot map yield nil
// without a network call; remote errors are logged and yield nil.
func (p *Provider) Search(ctx context.Context, query map[string][]string, uris []string) *SearchResult {
	terms, err := p.queryTerms(query, uris)
	if err != nil {
		log.Debug().Err(err).Msg("Archive search not possible")
		return nil
	}

	result, err := p.client.Search(ctx,
		archive.QueryString(append(terms, p.searchFilter()...), archive.GroupOR),
		archive.SearchOptions{
			Fields: []string{"identifier", "title", "creator", "date"},
			Sort:   p.cfg.SearchOrder,
			Rows:   p.cfg.SearchLimit,
		})
	if err != nil {
		log.Error().Err(err).Msg("Error searching the archive")
		return nil
	}

	albums := make([]Album, 0, result.Len())
	for _, doc := range result.Docs {
		albums = append(albums, *NewAlbum(doc, nil))
	}
	return &SearchResult{URI: SearchURI(result.Query), Albums: albums}
}

// Refresh drops all cached metadata and resolved tracks. There is no
// persisted state; everything is re-derived from the archive.
func (p *Provider) Refresh(uri string) {
	log.Info().Msg("Clearing archive metadata cache")
	if p.cache != nil {
		p.cache.Clear()
	}
	p.mu.Lock()
	p.tracks = make(map[string]Track)
	p.mu.Unlock()
}

// GetStreamURL maps a track URI to its download URL.
func (p *Provider) GetStreamURL(uri string) (string, error) {
	identifier, filename, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	return p.client.URL(identifier, filename), nil
}

// browseRoot lists the configured collections, in configuration order.
func (p *Provider) browseRoot(ctx context.Context) ([]Ref, error) {
	collections := p.cfg.Collections
	if len(collections) == 0 {
		return nil, nil
	}
	result, err := p.client.Search(ctx,
		archive.QueryString([]archive.Term{
			{Field: "identifier", Values: collections},
			{Field: "mediatype", Value: archive.MediatypeCollection},
		}, archive.GroupOR),
		archive.SearchOptions{
			Fields: []string{"identifier", "title", "mediatype"},
			Rows:   len(collections),
		})
	if err != nil {
		return nil, err
	}

	docs := make(map[string]archive.Doc, result.Len())
	for _, doc := range result.Docs {
		docs[doc.Identifier] = doc
	}
	refs := make([]Ref, 0, len(collections))
	for _, id := range collections {
		doc, ok := docs[id]
		if !ok {
			log.Warn().Str("collection", id).Msg("Archive collection not found")
			continue
		}
		refs = append(refs, NewRef(doc))
	}
	return refs, nil
}

// browseCollection lists a collection's child items.
func (p *Provider) browseCollection(ctx context.Context, identifier string) ([]Ref, error) {
	terms := append([]archive.Term{
		{Field: "collection", Value: identifier},
	}, p.searchFilter()...)
	result, err := p.client.Search(ctx,
		archive.QueryString(terms, archive.GroupOR),
		archive.SearchOptions{
			Fields: []string{"identifier", "title", "mediatype"},
			Sort:   p.cfg.BrowseOrder,
			Rows:   p.cfg.BrowseLimit,
		})
	if err != nil {
		return nil, err
	}

	refs := make([]Ref, 0, result.Len())
	for _, doc := range result.Docs {
		refs = append(refs, NewRef(doc))
	}
	return refs, nil
}

// browseItem lists an item's tracks as references. Items declaring
// themselves a collection are browsed as one even when not configured at
// the root.
func (p *Provider) browseItem(ctx context.Context, identifier string) ([]Ref, error) {
	item, err := p.client.Metadata(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if item.Metadata.Mediatype == archive.MediatypeCollection {
		return p.browseCollection(ctx, identifier)
	}
	tracks := p.itemTracks(item)
	refs := make([]Ref, 0, len(tracks))
	for _, t := range tracks {
		refs = append(refs, Ref{URI: t.URI, Name: t.Name, Type: RefTrack})
	}
	return refs, nil
}

// lookupItem fetches an item and translates it into its track list.
func (p *Provider) lookupItem(ctx context.Context, identifier string) ([]Track, error) {
	item, err := p.client.Metadata(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return p.itemTracks(item), nil
}

// itemTracks translates a fetched item into its track list, repopulating
// the per-session track map for fragment lookups.
func (p *Provider) itemTracks(item *archive.Item) []Track {
	images := Images(item, p.cfg.ImageFormats, p.client.URL)
	album := NewAlbum(item.Metadata, images)
	tracks := Tracks(item, p.cfg.AudioFormats, album)

	p.mu.Lock()
	p.tracks = make(map[string]Track, len(tracks))
	for _, t := range tracks {
		p.tracks[t.URI] = t
	}
	p.mu.Unlock()
	return tracks
}

// searchFilter narrows every search to the configured formats, minus the
// excluded collections and mediatypes.
func (p *Provider) searchFilter() []archive.Term {
	return []archive.Term{
		{Field: "format", Values: p.cfg.AudioFormats},
		{Field: "-collection", Values: p.cfg.ExcludeCollections},
		{Field: "-mediatype", Values: p.cfg.ExcludeMediatypes},
	}
}

// queryTerms maps a host query onto remote search terms. Unknown fields
// and empty values fail fast; collection URIs become a grouped collection
// term.
func (p *Provider) queryTerms(query map[string][]string, uris []string) ([]archive.Term, error) {
	fields := make([]string, 0, len(query))
	for f := range query {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var terms []archive.Term
	for _, f := range fields {
		mapped, ok := queryFields[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedField, f)
		}
		for _, v := range query[f] {
			if v == "" {
				return nil, fmt.Errorf("empty value for search field %q", f)
			}
			terms = append(terms, archive.Term{Field: mapped, Value: v})
		}
	}
	var ids []string
	for _, u := range uris {
		id, _, err := ParseURI(u)
		if err != nil {
			return nil, err
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		terms = append(terms, archive.Term{Field: "collection", Values: ids})
	}
	return terms, nil
}
