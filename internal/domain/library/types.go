// Package library exposes the Internet Archive as a browsable, searchable
// music source: it translates archive documents into the host
// application's directory/album/track model and implements the
// browse/search/lookup entry points on top of the metadata client.
package library

import (
	"errors"
	"fmt"
	"net/url"
)

// Scheme is the URI scheme of this source. URIs take the forms
// <scheme>:<identifier>, <scheme>:<identifier>#<filename> and
// <scheme>:?<query> for search result pseudo-directories.
const Scheme = "internetarchive"

// ErrUnsupportedField marks a host query field this backend has no remote
// mapping for. Callers translate it into "no result".
var ErrUnsupportedField = errors.New("unsupported search field")

// RefType classifies a library reference.
type RefType string

const (
	RefDirectory RefType = "directory"
	RefAlbum     RefType = "album"
	RefTrack     RefType = "track"
)

// Ref points at a browsable library object.
type Ref struct {
	URI  string  `json:"uri"`
	Name string  `json:"name"`
	Type RefType `json:"type"`
}

// Artist is a single credited creator.
type Artist struct {
	Name string `json:"name"`
}

// Album is one archive item presented as an album.
type Album struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists,omitempty"`
	Date    string   `json:"date,omitempty"` // YYYY-MM-DD
	Images  []string `json:"images,omitempty"`
}

// Track is one playable file of an item.
type Track struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Album   *Album   `json:"album,omitempty"`
	Artists []Artist `json:"artists,omitempty"`
	TrackNo int      `json:"trackNo,omitempty"`
	Date    string   `json:"date,omitempty"`
	// Length is the track duration in milliseconds; 0 when unknown.
	Length int `json:"length,omitempty"`
	// Bitrate is in kbit/s; 0 when unknown.
	Bitrate int `json:"bitrate,omitempty"`
	// LastModified is a unix timestamp; 0 when unknown.
	LastModified int64 `json:"lastModified,omitempty"`
}

// SearchResult is the translated outcome of one search call.
type SearchResult struct {
	URI    string  `json:"uri"`
	Albums []Album `json:"albums"`
}

// ItemURI composes the URI of an item.
func ItemURI(identifier string) string {
	return Scheme + ":" + identifier
}

// TrackURI composes the URI of one file within an item.
func TrackURI(identifier, filename string) string {
	return Scheme + ":" + identifier + "#" + url.PathEscape(filename)
}

// SearchURI composes the URI of a search result pseudo-directory.
func SearchURI(query string) string {
	return Scheme + ":?" + url.Values{"q": {query}}.Encode()
}

// ParseURI splits a library URI into its item identifier and optional
// filename fragment. The root URI yields an empty identifier.
func ParseURI(rawURI string) (identifier, filename string, err error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", "", fmt.Errorf("parse uri %q: %w", rawURI, err)
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	return u.Opaque, u.Fragment, nil
}
