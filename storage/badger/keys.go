package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	itemPrefix     = "item:"
	itemDatePrefix = "itemd:"
	runPrefix      = "run:"
	runDatePrefix  = "rund:"
)

// makeItemKey generates a key for an item by ID.
func makeItemKey(id string) []byte {
	return []byte(itemPrefix + id)
}

// makeItemDateKey generates a composite key for the publication date index.
// Format: prefix timestamp id
func makeItemDateKey(publishedAt time.Time, id string) []byte {
	return makeDateKey(itemDatePrefix, publishedAt, id)
}

// makeRunKey generates a key for a run by ID.
func makeRunKey(runID string) []byte {
	return []byte(runPrefix + runID)
}

// makeRunDateKey generates a composite key for the run start index.
func makeRunDateKey(startedAt time.Time, runID string) []byte {
	return makeDateKey(runDatePrefix, startedAt, runID)
}

// makeDateKey lays out prefix, a BigEndian timestamp and an id so that
// lexicographic order is chronological order.
func makeDateKey(prefix string, ts time.Time, id string) []byte {
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], sortableMicros(ts))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// prefixEnd returns the smallest key greater than every key with prefix.
// Used as the seek target of reverse iterators.
func prefixEnd(prefix string) []byte {
	return append([]byte(prefix), 0xFF)
}

// sortableMicros shifts signed microseconds into unsigned order, so times
// before 1970 (and the zero time) sort before every later one.
func sortableMicros(ts time.Time) uint64 {
	return uint64(ts.UnixMicro()) ^ (1 << 63)
}
