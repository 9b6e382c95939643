package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gsandoval82/archivio-backend/internal/config"
	"github.com/gsandoval82/archivio-backend/internal/infra/archive"
	"github.com/gsandoval82/archivio-backend/internal/infra/cache"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		BaseURL:            baseURL,
		BrowseLabel:        "Internet Archive",
		Collections:        []string{"audio", "etree"},
		AudioFormats:       []string{"Flac", "VBR MP3"},
		ImageFormats:       []string{"JPEG"},
		ExcludeCollections: []string{"podcasts"},
		ExcludeMediatypes:  []string{"web"},
		BrowseLimit:        100,
		BrowseOrder:        []string{"downloads desc"},
		SearchLimit:        20,
	}
}

type fixtureServer struct {
	*httptest.Server
	requests atomic.Int64
	// lastQuery records the q parameter of the last search request.
	lastQuery atomic.Value

	searchDocs   []archive.Doc
	metadataByID map[string]string
}

func newFixtureServer(t *testing.T) *fixtureServer {
	t.Helper()
	fs := &fixtureServer{metadataByID: make(map[string]string)}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.requests.Add(1)
		switch {
		case r.URL.Path == "/advancedsearch.php":
			q := r.URL.Query().Get("q")
			fs.lastQuery.Store(q)
			resp := map[string]any{
				"responseHeader": map[string]any{
					"params": map[string]any{"q": q},
				},
				"response": map[string]any{
					"numFound": len(fs.searchDocs),
					"docs":     fs.searchDocs,
				},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		case strings.HasPrefix(r.URL.Path, "/metadata/"):
			id := strings.TrimPrefix(r.URL.Path, "/metadata/")
			body, ok := fs.metadataByID[id]
			if !ok {
				body = "{}"
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fixtureServer) query() string {
	q, _ := fs.lastQuery.Load().(string)
	return q
}

func newTestProvider(t *testing.T, fs *fixtureServer) *Provider {
	t.Helper()
	cfg := testConfig(fs.URL)
	c := cache.New(16, 0)
	client := archive.New(
		archive.WithBaseURL(fs.URL),
		archive.WithCache(c),
	)
	return NewProvider(cfg, client, c)
}

const itemBody = `{
	"metadata": {
		"identifier": "gd1977-05-08",
		"title": "Barton Hall",
		"creator": "Grateful Dead",
		"mediatype": "etree",
		"date": "1977-05-08T00:00:00Z"
	},
	"files": [
		{"name": "t2.mp3", "format": "VBR MP3", "original": "t2.flac"},
		{"name": "t1.flac", "format": "Flac", "title": "Scarlet Begonias", "track": "1", "length": "5:42"},
		{"name": "t2.flac", "format": "Flac", "title": "Fire on the Mountain", "track": "2"},
		{"name": "cover.jpg", "format": "JPEG"}
	]
}`

func TestProviderRootDirectory(t *testing.T) {
	fs := newFixtureServer(t)
	p := newTestProvider(t, fs)

	root := p.RootDirectory()
	if root.URI != "internetarchive:" || root.Name != "Internet Archive" || root.Type != RefDirectory {
		t.Errorf("root = %+v", root)
	}
}

func TestProviderBrowseRoot(t *testing.T) {
	fs := newFixtureServer(t)
	// etree answered out of configuration order, audio missing entirely
	fs.searchDocs = []archive.Doc{
		{Identifier: "etree", Title: archive.MultiString{"Live Music Archive"}, Mediatype: "collection"},
	}
	p := newTestProvider(t, fs)

	refs := p.Browse(context.Background(), "internetarchive:")
	if len(refs) != 1 {
		t.Fatalf("refs = %+v", refs)
	}
	if refs[0].Name != "Live Music Archive" || refs[0].Type != RefDirectory {
		t.Errorf("ref = %+v", refs[0])
	}
	for _, want := range []string{"identifier:(audio OR etree)", "mediatype:collection"} {
		if !strings.Contains(fs.query(), want) {
			t.Errorf("query %q missing %q", fs.query(), want)
		}
	}
}

func TestProviderBrowseCollection(t *testing.T) {
	fs := newFixtureServer(t)
	fs.searchDocs = []archive.Doc{
		{Identifier: "gd1977-05-08", Title: archive.MultiString{"Barton Hall"}, Mediatype: "etree"},
	}
	p := newTestProvider(t, fs)

	refs := p.Browse(context.Background(), "internetarchive:etree")
	if len(refs) != 1 || refs[0].Type != RefAlbum || refs[0].URI != "internetarchive:gd1977-05-08" {
		t.Fatalf("refs = %+v", refs)
	}
	q := fs.query()
	for _, want := range []string{
		"collection:etree",
		`format:(Flac OR "VBR MP3")`,
		"-collection:(podcasts)",
		"-mediatype:(web)",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestProviderBrowseItem(t *testing.T) {
	fs := newFixtureServer(t)
	fs.metadataByID["gd1977-05-08"] = itemBody
	p := newTestProvider(t, fs)

	refs := p.Browse(context.Background(), "internetarchive:gd1977-05-08")
	if len(refs) != 2 {
		t.Fatalf("refs = %+v", refs)
	}
	if refs[0].Name != "Scarlet Begonias" || refs[0].Type != RefTrack {
		t.Errorf("ref = %+v", refs[0])
	}
	if refs[0].URI != "internetarchive:gd1977-05-08#t1.flac" {
		t.Errorf("uri = %q", refs[0].URI)
	}
}

func TestProviderBrowseUnconfiguredCollection(t *testing.T) {
	fs := newFixtureServer(t)
	// not in the configured root collections, but declares itself one
	fs.metadataByID["librivoxaudio"] = `{"metadata": {"identifier": "librivoxaudio", "mediatype": "collection"}}`
	fs.searchDocs = []archive.Doc{
		{Identifier: "some_audiobook", Mediatype: "audio"},
	}
	p := newTestProvider(t, fs)

	refs := p.Browse(context.Background(), "internetarchive:librivoxaudio")
	if len(refs) != 1 || refs[0].URI != "internetarchive:some_audiobook" {
		t.Fatalf("refs = %+v", refs)
	}
	if !strings.Contains(fs.query(), "collection:librivoxaudio") {
		t.Errorf("query %q missing collection term", fs.query())
	}
}

func TestProviderBrowseBadURI(t *testing.T) {
	fs := newFixtureServer(t)
	p := newTestProvider(t, fs)

	if refs := p.Browse(context.Background(), "spotify:whatever"); refs != nil {
		t.Errorf("refs = %+v, want nil", refs)
	}
	if n := fs.requests.Load(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestProviderLookupItem(t *testing.T) {
	fs := newFixtureServer(t)
	fs.metadataByID["gd1977-05-08"] = itemBody
	p := newTestProvider(t, fs)

	tracks := p.Lookup(context.Background(), "internetarchive:gd1977-05-08")
	if len(tracks) != 2 {
		t.Fatalf("tracks = %+v", tracks)
	}

	first := tracks[0]
	if first.Name != "Scarlet Begonias" || first.TrackNo != 1 || first.Length != 342000 {
		t.Errorf("track = %+v", first)
	}
	if first.Album == nil || first.Album.Name != "Barton Hall" {
		t.Fatalf("album = %+v", first.Album)
	}
	if first.Album.Date != "1977-05-08" {
		t.Errorf("album date = %q", first.Album.Date)
	}
	if len(first.Album.Images) != 1 || !strings.HasSuffix(first.Album.Images[0], "/download/gd1977-05-08/cover.jpg") {
		t.Errorf("images = %v", first.Album.Images)
	}
	if len(first.Artists) != 1 || first.Artists[0].Name != "Grateful Dead" {
		t.Errorf("artists = %v", first.Artists)
	}
}

func TestProviderLookupTrack(t *testing.T) {
	fs := newFixtureServer(t)
	fs.metadataByID["gd1977-05-08"] = itemBody
	p := newTestProvider(t, fs)

	tracks := p.Lookup(context.Background(), "internetarchive:gd1977-05-08#t2.flac")
	if len(tracks) != 1 {
		t.Fatalf("tracks = %+v", tracks)
	}
	if tracks[0].Name != "Fire on the Mountain" || tracks[0].TrackNo != 2 {
		t.Errorf("track = %+v", tracks[0])
	}

	// resolved tracks serve follow-up lookups from memory
	before := fs.requests.Load()
	if tracks := p.Lookup(context.Background(), "internetarchive:gd1977-05-08#t1.flac"); len(tracks) != 1 {
		t.Fatalf("tracks = %+v", tracks)
	}
	if n := fs.requests.Load(); n != before {
		t.Errorf("requests = %d, want %d", n, before)
	}
}

func TestProviderLookupUnknownTrack(t *testing.T) {
	fs := newFixtureServer(t)
	fs.metadataByID["gd1977-05-08"] = itemBody
	p := newTestProvider(t, fs)

	if tracks := p.Lookup(context.Background(), "internetarchive:gd1977-05-08#missing.flac"); len(tracks) != 0 {
		t.Errorf("tracks = %+v, want none", tracks)
	}
}

func TestProviderLookupMetadataError(t *testing.T) {
	fs := newFixtureServer(t)
	fs.metadataByID["gone"] = `{"error": "no item gone: not found"}`
	p := newTestProvider(t, fs)

	if tracks := p.Lookup(context.Background(), "internetarchive:gone"); len(tracks) != 0 {
		t.Errorf("tracks = %+v, want none", tracks)
	}
}

func TestProviderSearch(t *testing.T) {
	fs := newFixtureServer(t)
	fs.searchDocs = []archive.Doc{
		{Identifier: "gd1977-05-08", Title: archive.MultiString{"Barton Hall"}, Creator: archive.MultiString{"Grateful Dead"}, Date: "1977-05-08"},
	}
	p := newTestProvider(t, fs)

	result := p.Search(context.Background(), map[string][]string{
		"artist": {"grateful dead"},
		"any":    {"cornell"},
	}, nil)
	if result == nil || len(result.Albums) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Albums[0].Name != "Barton Hall" || result.Albums[0].Date != "1977-05-08" {
		t.Errorf("album = %+v", result.Albums[0])
	}
	if !strings.HasPrefix(result.URI, "internetarchive:?q=") {
		t.Errorf("uri = %q", result.URI)
	}

	q := fs.query()
	for _, want := range []string{
		`"grateful dead"`,
		"creator:",
		"cornell",
		`format:(Flac OR "VBR MP3")`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestProviderSearchWithinCollections(t *testing.T) {
	fs := newFixtureServer(t)
	p := newTestProvider(t, fs)

	p.Search(context.Background(), map[string][]string{"any": {"cornell"}},
		[]string{"internetarchive:etree", "internetarchive:"})
	if !strings.Contains(fs.query(), "collection:(etree)") {
		t.Errorf("query %q missing collection term", fs.query())
	}
}

func TestProviderSearchUnsupportedField(t *testing.T) {
	fs := newFixtureServer(t)
	p := newTestProvider(t, fs)

	if result := p.Search(context.Background(), map[string][]string{"genre": {"rock"}}, nil); result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if result := p.Search(context.Background(), map[string][]string{"any": {""}}, nil); result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if n := fs.requests.Load(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestProviderRefresh(t *testing.T) {
	fs := newFixtureServer(t)
	fs.metadataByID["gd1977-05-08"] = itemBody
	p := newTestProvider(t, fs)

	p.Lookup(context.Background(), "internetarchive:gd1977-05-08")
	p.Lookup(context.Background(), "internetarchive:gd1977-05-08")
	if n := fs.requests.Load(); n != 1 {
		t.Fatalf("requests = %d, want 1 before refresh", n)
	}

	p.Refresh("internetarchive:")

	if tracks := p.Lookup(context.Background(), "internetarchive:gd1977-05-08#t1.flac"); len(tracks) != 1 {
		t.Fatalf("tracks = %+v", tracks)
	}
	if n := fs.requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2 after refresh", n)
	}
}

func TestProviderGetStreamURL(t *testing.T) {
	fs := newFixtureServer(t)
	p := newTestProvider(t, fs)

	u, err := p.GetStreamURL("internetarchive:gd1977-05-08#disc%201%2Ft1.flac")
	if err != nil {
		t.Fatal(err)
	}
	want := fs.URL + "/download/gd1977-05-08/disc%201/t1.flac"
	if u != want {
		t.Errorf("url = %q, want %q", u, want)
	}

	if _, err := p.GetStreamURL("spotify:x"); err == nil {
		t.Error("expected error for foreign scheme")
	}
}
