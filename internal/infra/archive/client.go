package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the public Internet Archive endpoint.
	DefaultBaseURL = "https://archive.org"

	// DefaultUserAgent identifies this client to the archive.
	DefaultUserAgent = "Archivio/0.2.0 (https://github.com/gsandoval82/archivio-backend)"

	// DefaultTimeout covers connect and read for a single request.
	DefaultTimeout = 30 * time.Second
)

// Cache stores responses of cacheable calls. Implementations decide on
// size bounds and expiry.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Client issues GET requests against the archive's search, metadata and
// bookmarks endpoints. Search and metadata responses are served from the
// configured cache when present; bookmark state changes externally and is
// always fetched live.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retries    int
	cache      Cache
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets how many times a connection-level failure is retried.
// HTTP error statuses and timeouts are never retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithCache enables response caching for search and metadata calls.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// New creates an archive client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchOptions are the optional parameters of a search call.
type SearchOptions struct {
	// Fields restricts which document fields the server returns.
	Fields []string
	// Sort lists "field order" clauses applied in order.
	Sort []string
	// Rows is the page size; 0 leaves the server default.
	Rows int
	// Start is the offset of the first row.
	Start int
}

// Search runs a query against the search endpoint and returns one page of
// matching documents.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	key := searchKey(query, opts)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			log.Debug().Str("key", key).Msg("Search cache hit")
			return v.(*SearchResult), nil
		}
	}

	params := url.Values{}
	params.Set("q", query)
	for _, f := range opts.Fields {
		params.Add("fl[]", f)
	}
	for _, s := range opts.Sort {
		params.Add("sort[]", s)
	}
	if opts.Rows > 0 {
		params.Set("rows", strconv.Itoa(opts.Rows))
	}
	if opts.Start > 0 {
		params.Set("start", strconv.Itoa(opts.Start))
	}
	params.Set("output", "json")

	body, err := c.get(ctx, c.baseURL+"/advancedsearch.php?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &SearchError{Query: query}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	result := &SearchResult{
		Query:    resp.ResponseHeader.Params.Q,
		NumFound: resp.Response.NumFound,
		Docs:     resp.Response.Docs,
	}
	if c.cache != nil {
		c.cache.Set(key, result)
	}
	return result, nil
}

// Metadata fetches an item's metadata and file listing.
func (c *Client) Metadata(ctx context.Context, identifier string) (*Item, error) {
	key := "metadata|" + identifier
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			log.Debug().Str("key", key).Msg("Metadata cache hit")
			return v.(*Item), nil
		}
	}

	raw, err := c.MetadataRaw(ctx, identifier)
	if err != nil {
		return nil, err
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("parse item %s: %w", identifier, err)
	}
	if c.cache != nil {
		c.cache.Set(key, &item)
	}
	return &item, nil
}

// MetadataRaw fetches a metadata path without interpreting the item
// structure. Sub-paths such as <identifier>/files come back wrapped in a
// "result" object, which is unwrapped here so every path yields the same
// shape.
func (c *Client) MetadataRaw(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, c.baseURL+"/metadata/"+strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("archive item %q: %w", path, ErrNotFound)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("parse metadata response: %w", err)
	}
	if len(fields) == 0 {
		// missing items yield an empty object, not an HTTP error
		return nil, fmt.Errorf("archive item %q: %w", path, ErrNotFound)
	}
	if msg, ok := fields["error"]; ok {
		var text string
		if json.Unmarshal(msg, &text) != nil {
			text = string(msg)
		}
		return nil, fmt.Errorf("%s: %w", text, ErrNotFound)
	}
	if result, ok := fields["result"]; ok {
		return result, nil
	}
	return body, nil
}

// Bookmarks fetches a user's public bookmarks. Results are never cached:
// bookmark state changes outside this process and callers refresh it
// explicitly.
func (c *Client) Bookmarks(ctx context.Context, username string) ([]Doc, error) {
	resp, err := c.do(ctx, c.baseURL+"/bookmarks/"+url.PathEscape(username)+"?output=json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive returned status %d", resp.StatusCode)
	}
	// nonexistent users get an XML error page with a 200 status; the
	// content type is the only not-found signal
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return nil, fmt.Errorf("archive user %q: %w", username, ErrNotFound)
	}

	var docs []Doc
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("parse bookmarks response: %w", err)
	}
	return docs, nil
}

// URL composes the download URL for an item or one of its files. No
// network call is made.
func (c *Client) URL(identifier, filename string) string {
	if filename == "" {
		return c.baseURL + "/download/" + identifier + "/"
	}
	return c.baseURL + "/download/" + identifier + "/" + escapePath(filename)
}

// get runs a request and reads the full body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// do issues a GET request, retrying connection-level failures up to the
// configured count. Timeouts and HTTP error statuses propagate
// immediately.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		if attempt >= c.retries || !retryable(err) {
			return nil, fmt.Errorf("http request: %w", err)
		}
		log.Warn().
			Err(err).
			Str("url", rawURL).
			Int("attempt", attempt+1).
			Msg("Connection error, retrying")
	}
}

// retryable reports whether a transport error is a connection-level
// failure worth retrying. Timeouts and cancellations are not.
func retryable(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var operr *net.OpError
	return errors.As(err, &operr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// searchKey normalizes a search call into a cache key.
func searchKey(query string, opts SearchOptions) string {
	return fmt.Sprintf("search|q=%s|fl=%s|sort=%s|rows=%d|start=%d",
		query,
		strings.Join(opts.Fields, ","),
		strings.Join(opts.Sort, ","),
		opts.Rows,
		opts.Start,
	)
}

// escapePath percent-encodes a filename, keeping directory separators.
func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
