package library

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gsandoval82/archivio-backend/internal/infra/archive"
)

// placeholder is a known artifact of incompletely processed items; fields
// carrying it are treated as absent.
const placeholder = "tmp"

var (
	isoDateRE  = regexp.MustCompile(`^(\d{4})(?:-(\d{2}))?(?:-(\d{2}))?`)
	durationRE = regexp.MustCompile(`^(?:(?:(\d+):)?(\d+):)?(\d+)`)
)

// ParseDate normalizes archive date text (YYYY, YYYY-MM, YYYY-MM-DD or a
// full timestamp) to YYYY-MM-DD, defaulting missing month and day to 01.
// Unparseable input yields def.
func ParseDate(s, def string) string {
	if s == "" {
		return def
	}
	m := isoDateRE.FindStringSubmatch(s)
	if m == nil {
		log.Warn().Str("date", s).Msg("Invalid archive date")
		return def
	}
	parts := m[1:4]
	for i, p := range parts {
		if p == "" {
			parts[i] = "01"
		}
	}
	return strings.Join(parts, "-")
}

// ParseLength converts bare seconds, MM:SS or HH:MM:SS into milliseconds.
// Unparseable input yields def.
func ParseLength(s string, def int) int {
	if s == "" {
		return def
	}
	m := durationRE.FindStringSubmatch(s)
	if m == nil {
		log.Warn().Str("length", s).Msg("Invalid archive length")
		return def
	}
	hours, _ := strconv.Atoi(zeroDefault(m[1]))
	minutes, _ := strconv.Atoi(zeroDefault(m[2]))
	seconds, _ := strconv.Atoi(zeroDefault(m[3]))
	return ((hours*60+minutes)*60 + seconds) * 1000
}

// ParseBitrate parses a float string, truncating to an integer.
// Unparseable input yields def.
func ParseBitrate(s string, def int) int {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Warn().Str("bitrate", s).Msg("Invalid archive bitrate")
		return def
	}
	return int(f)
}

// ParseTrack parses "N" or "N/total" track numbers. Unparseable input
// yields def.
func ParseTrack(s string, def int) int {
	if s == "" {
		return def
	}
	before, _, _ := strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(before))
	if err != nil {
		log.Warn().Str("track", s).Msg("Invalid archive track number")
		return def
	}
	return n
}

// ParseMTime parses a unix timestamp string. Unparseable input yields
// def.
func ParseMTime(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Warn().Str("mtime", s).Msg("Invalid archive mtime")
		return def
	}
	return n
}

func zeroDefault(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// DocName returns a document's display title, falling back to its
// identifier for absent, empty or placeholder titles.
func DocName(doc archive.Doc) string {
	title := doc.Title.First()
	if title == "" || title == placeholder {
		return doc.Identifier
	}
	return title
}

// CreatorArtists converts a creator field into artists, preserving order
// without de-duplication. Absent, empty and placeholder creators yield no
// artists.
func CreatorArtists(creator archive.MultiString) []Artist {
	if len(creator) == 0 {
		return nil
	}
	if len(creator) == 1 && (creator[0] == "" || creator[0] == placeholder) {
		return nil
	}
	artists := make([]Artist, 0, len(creator))
	for _, name := range creator {
		artists = append(artists, Artist{Name: strings.TrimSpace(name)})
	}
	return artists
}

// NewRef derives a browse reference from a document. Items without a
// mediatype are presented as directories, like collections.
func NewRef(doc archive.Doc) Ref {
	ref := Ref{
		URI:  ItemURI(doc.Identifier),
		Name: DocName(doc),
		Type: RefAlbum,
	}
	if doc.Mediatype == "" || doc.Mediatype == archive.MediatypeCollection {
		ref.Type = RefDirectory
	}
	return ref
}

// NewAlbum derives an album from a document.
func NewAlbum(doc archive.Doc, images []string) *Album {
	return &Album{
		URI:     ItemURI(doc.Identifier),
		Name:    DocName(doc),
		Artists: CreatorArtists(doc.Creator),
		Date:    ParseDate(doc.Date, ""),
		Images:  images,
	}
}

// SelectFiles groups an item's files by lower-cased format and returns
// the first non-empty bucket in the configured format order, preferring
// exact format names and falling back to substring matches. Selected
// derived files inherit attributes missing from them but present on
// their original.
func SelectFiles(item *archive.Item, formats []string) []archive.File {
	byName := make(map[string]archive.File, len(item.Files))
	byFormat := make(map[string][]archive.File)
	for _, f := range item.Files {
		byName[f.Name] = f
		key := strings.ToLower(f.Format)
		byFormat[key] = append(byFormat[key], f)
	}

	bucket := matchBucket(byFormat, formats)
	files := make([]archive.File, len(bucket))
	for i, f := range bucket {
		files[i] = inherit(f, byName)
	}
	return files
}

func matchBucket(byFormat map[string][]archive.File, formats []string) []archive.File {
	for _, format := range formats {
		if files := byFormat[strings.ToLower(format)]; len(files) > 0 {
			return files
		}
	}
	keys := make([]string, 0, len(byFormat))
	for k := range byFormat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, format := range formats {
		want := strings.ToLower(format)
		for _, k := range keys {
			if strings.Contains(k, want) {
				return byFormat[k]
			}
		}
	}
	return nil
}

// inherit copies attributes from a file's original onto the derived file
// where the derived file carries none. Unknown originals are skipped.
func inherit(f archive.File, byName map[string]archive.File) archive.File {
	if f.Original == "" {
		return f
	}
	orig, ok := byName[f.Original]
	if !ok {
		return f
	}
	if missing(f.Title) {
		f.Title = orig.Title
	}
	if len(f.Creator) == 0 {
		f.Creator = orig.Creator
	}
	if missing(f.Track) {
		f.Track = orig.Track
	}
	if missing(f.Date) {
		f.Date = orig.Date
	}
	if missing(f.Length) {
		f.Length = orig.Length
	}
	if missing(f.Bitrate) {
		f.Bitrate = orig.Bitrate
	}
	if missing(f.MTime) {
		f.MTime = orig.MTime
	}
	return f
}

func missing(v string) bool {
	return v == "" || v == placeholder
}

// Tracks builds the playable track list for an item: one track per file
// of the preferred audio format, sorted by track number then URI, with
// un-numbered tracks first in URI order.
func Tracks(item *archive.Item, audioFormats []string, album *Album) []Track {
	identifier := item.Metadata.Identifier
	files := SelectFiles(item, audioFormats)
	tracks := make([]Track, 0, len(files))
	for _, f := range files {
		name := f.Title
		if name == "" || name == placeholder {
			name = f.Name
		}
		artists := CreatorArtists(f.Creator)
		var albumDate string
		if album != nil {
			if len(artists) == 0 {
				artists = album.Artists
			}
			albumDate = album.Date
		}
		tracks = append(tracks, Track{
			URI:          TrackURI(identifier, f.Name),
			Name:         name,
			Album:        album,
			Artists:      artists,
			TrackNo:      ParseTrack(f.Track, 0),
			Date:         ParseDate(f.Date, albumDate),
			Length:       ParseLength(f.Length, 0),
			Bitrate:      ParseBitrate(f.Bitrate, 0),
			LastModified: ParseMTime(f.MTime, 0),
		})
	}
	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].TrackNo != tracks[j].TrackNo {
			return tracks[i].TrackNo < tracks[j].TrackNo
		}
		return tracks[i].URI < tracks[j].URI
	})
	return tracks
}

// Images returns download URLs for the item's preferred image files.
// urlFor composes the download URL for one file.
func Images(item *archive.Item, imageFormats []string, urlFor func(identifier, filename string) string) []string {
	files := SelectFiles(item, imageFormats)
	if len(files) == 0 {
		return nil
	}
	images := make([]string, 0, len(files))
	for _, f := range files {
		images = append(images, urlFor(item.Metadata.Identifier, f.Name))
	}
	return images
}
