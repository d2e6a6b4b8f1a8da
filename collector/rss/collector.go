package rss

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/poiesic/newsdigest/collector"
	"github.com/poiesic/newsdigest/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "newsdigest/1.0"
)

// Error kinds reported on CollectionErrors.
const (
	ErrorKindHTTPStatus = "http_status"
	ErrorKindRequest    = "request"
	ErrorKindParse      = "parse"
)

// FeedConfig describes one syndication feed.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// FullText fetches each linked article and extracts its readable text
	// when the feed only carries excerpts.
	FullText bool `yaml:"full_text"`
}

// Collector fetches RSS and Atom feeds concurrently.
type Collector struct {
	feeds     []FeedConfig
	client    *http.Client
	userAgent string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithHTTPClient sets the client used for feeds and article pages.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) {
		if client != nil {
			c.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Collector) {
		c.userAgent = ua
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the clock used for undated entries and error timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a collector for the given feeds.
func New(feeds []FeedConfig, opts ...Option) *Collector {
	c := &Collector{
		feeds:     feeds,
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("collector", c.Name())
	return c
}

// Name identifies the collector.
func (c *Collector) Name() string { return "rss" }

// Collect fetches every feed and returns entries published at or after cutoff.
// A feed that cannot be fetched or parsed yields one CollectionError and
// does not affect the other feeds.
func (c *Collector) Collect(ctx context.Context, cutoff time.Time) ([]*core.RawItem, []core.CollectionError) {
	c.logger.Info("starting rss collection", "feeds", len(c.feeds), "cutoff", cutoff)

	type result struct {
		items []*core.RawItem
		err   *core.CollectionError
	}
	results := make([]result, len(c.feeds))

	var wg sync.WaitGroup
	for i, feed := range c.feeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := c.fetchFeed(ctx, feed, cutoff)
			results[i] = result{items: items, err: err}
		}()
	}
	wg.Wait()

	var (
		items []*core.RawItem
		errs  []core.CollectionError
	)
	for _, r := range results {
		items = append(items, r.items...)
		if r.err != nil {
			errs = append(errs, *r.err)
		}
	}

	c.logger.Info("rss collection complete", "items", len(items), "errors", len(errs))
	return items, errs
}

func (c *Collector) fetchFeed(ctx context.Context, feed FeedConfig, cutoff time.Time) ([]*core.RawItem, *core.CollectionError) {
	log := c.logger.With("feed_name", feed.Name, "feed_url", feed.URL)
	log.Info("fetching feed")

	body, err := c.get(ctx, feed.URL)
	if err != nil {
		log.Error("failed to fetch feed", "err", err)
		return nil, c.collectionError(feed.URL, err)
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		log.Error("failed to parse feed", "err", err)
		return nil, c.collectionError(feed.URL, &parseError{err: err})
	}

	items := make([]*core.RawItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		published := c.publishedAt(entry)
		if published.Before(cutoff) {
			continue
		}

		content := extractContent(entry)
		if feed.FullText && entry.Link != "" {
			if full := c.fullText(ctx, entry.Link, log); utf8.RuneCountInString(full) > utf8.RuneCountInString(content) {
				content = full
			}
		}
		if content == "" {
			log.Debug("skipping entry with no content", "title", entry.Title)
			continue
		}

		items = append(items, &core.RawItem{
			SourceType:  core.SourceTypeFeed,
			SourceID:    feed.URL,
			ItemID:      core.ItemID(entry.Link, entry.Title, content),
			Title:       entry.Title,
			Content:     content,
			Author:      author(entry),
			PublishedAt: published,
			URL:         entry.Link,
			RawMetadata: core.Metadata{
				"feed_name":  feed.Name,
				"feed_title": parsed.Title,
				"entry_id":   entry.GUID,
				"tags":       append([]string{}, entry.Categories...),
			},
		})
	}

	log.Info("feed processed", "items", len(items))
	return items, nil
}

// get issues a GET and returns the body of a 2xx response.
func (c *Collector) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &statusError{code: resp.StatusCode}
	}
	return resp.Body, nil
}

// fullText extracts the readable text of an article page.
// Failures are logged and yield an empty string.
func (c *Collector) fullText(ctx context.Context, link string, log *slog.Logger) string {
	pageURL, err := url.Parse(link)
	if err != nil {
		return ""
	}
	body, err := c.get(ctx, link)
	if err != nil {
		log.Warn("failed to fetch article page", "url", link, "err", err)
		return ""
	}
	defer body.Close()

	article, err := readability.FromReader(body, pageURL)
	if err != nil {
		log.Warn("readability extraction failed", "url", link, "err", err)
		return ""
	}
	return collector.HTMLToText(article.TextContent)
}

func (c *Collector) publishedAt(entry *gofeed.Item) time.Time {
	switch {
	case entry.PublishedParsed != nil:
		return entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		return entry.UpdatedParsed.UTC()
	}
	c.logger.Warn("could not parse entry date, using current time", "title", entry.Title)
	return c.now()
}

func (c *Collector) collectionError(feedURL string, err error) *core.CollectionError {
	kind := ErrorKindRequest
	switch err.(type) {
	case *statusError:
		kind = ErrorKindHTTPStatus
	case *parseError:
		kind = ErrorKindParse
	}
	return &core.CollectionError{
		SourceType: core.SourceTypeFeed,
		SourceID:   feedURL,
		ErrorKind:  kind,
		Message:    err.Error(),
		Timestamp:  c.now(),
	}
}

// extractContent returns the longest of the entry's content fields as text.
func extractContent(entry *gofeed.Item) string {
	best := ""
	for _, candidate := range []string{entry.Content, entry.Description} {
		text := collector.HTMLToText(candidate)
		if utf8.RuneCountInString(text) > utf8.RuneCountInString(best) {
			best = text
		}
	}
	return best
}

func author(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, http.StatusText(e.code))
}

type parseError struct {
	err error
}

func (e *parseError) Error() string { return "parse feed: " + e.err.Error() }

func (e *parseError) Unwrap() error { return e.err }
