// Package rss collects items from RSS and Atom feeds.
//
// Feeds are fetched concurrently with a shared HTTP client and parsed with
// gofeed. Entry HTML is flattened to text; when a feed is configured for
// full text, each linked page is fetched and its readable body extracted
// with go-readability, replacing the feed excerpt when it is longer.
//
// A feed that fails yields a single CollectionError; its siblings are
// unaffected. Entries published before the cutoff and entries with no
// content are skipped.
package rss
