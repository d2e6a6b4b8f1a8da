// Package reembed recomputes the embeddings of stored digest items.
//
// It is used after switching embedding models, or to fill in vectors for
// items that were persisted with embedding generation turned off. Items are
// scanned in ID order, embedded in batches with retry and exponential
// backoff, normalized to unit length and written back one batch per
// transaction.
package reembed
