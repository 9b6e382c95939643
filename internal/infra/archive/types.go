// Package archive is an HTTP client for the Internet Archive search,
// metadata and bookmarks APIs.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates a missing item, metadata path or user account.
var ErrNotFound = errors.New("not found")

// IsNotFound returns true if the error indicates a missing remote entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// SearchError indicates a query the search endpoint could not process.
// Malformed or blocked queries come back as an empty body rather than an
// HTTP error.
type SearchError struct {
	Query string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("invalid archive query %q", e.Query)
}

// MultiString is a JSON field that may be absent, a bare string or a list
// of strings. The archive serves both shapes for title and creator.
type MultiString []string

// UnmarshalJSON accepts null, a string or an array of strings.
func (m *MultiString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MultiString{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*m = MultiString(list)
	return nil
}

// MarshalJSON writes a single value as a bare string.
func (m MultiString) MarshalJSON() ([]byte, error) {
	switch len(m) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(m[0])
	default:
		return json.Marshal([]string(m))
	}
}

// First returns the first value, or the empty string when absent.
func (m MultiString) First() string {
	if len(m) == 0 {
		return ""
	}
	return m[0]
}

// Doc is the loosely-typed document the archive returns for one item,
// both in search results and as item metadata.
type Doc struct {
	Identifier string      `json:"identifier"`
	Title      MultiString `json:"title,omitempty"`
	Creator    MultiString `json:"creator,omitempty"`
	Mediatype  string      `json:"mediatype,omitempty"`
	Date       string      `json:"date,omitempty"`
}

// MediatypeCollection marks an item that groups other items.
const MediatypeCollection = "collection"

// File is one physical file attached to an item. All attribute values are
// served as strings; parsing happens at the translation boundary.
type File struct {
	Name     string      `json:"name"`
	Format   string      `json:"format,omitempty"`
	Title    string      `json:"title,omitempty"`
	Creator  MultiString `json:"creator,omitempty"`
	Track    string      `json:"track,omitempty"`
	Date     string      `json:"date,omitempty"`
	Length   string      `json:"length,omitempty"`
	Bitrate  string      `json:"bitrate,omitempty"`
	MTime    string      `json:"mtime,omitempty"`
	Size     string      `json:"size,omitempty"`
	Original string      `json:"original,omitempty"`
	Source   string      `json:"source,omitempty"`
}

// Item is the normalized shape of a metadata response.
type Item struct {
	Metadata Doc    `json:"metadata"`
	Files    []File `json:"files"`
}

// SearchResult is an ordered page of documents matching a search query.
type SearchResult struct {
	// Query is the effective query string as echoed by the server.
	Query string
	// NumFound is the total match count, which may exceed len(Docs).
	NumFound int
	Docs     []Doc
}

// Len returns the number of documents in this page.
func (r *SearchResult) Len() int {
	return len(r.Docs)
}

// searchResponse mirrors the advancedsearch.php wire format.
type searchResponse struct {
	ResponseHeader struct {
		Params struct {
			Q string `json:"q"`
		} `json:"params"`
	} `json:"responseHeader"`
	Response struct {
		NumFound int   `json:"numFound"`
		Docs     []Doc `json:"docs"`
	} `json:"response"`
}
