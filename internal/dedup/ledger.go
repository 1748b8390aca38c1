// Package dedup tracks content fingerprints across runs so items are only
// processed once within the retention window.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/openclaw/birdwatch/internal/types"
)

// DefaultMaxSeen bounds the ledger. Oldest fingerprints are evicted first;
// an evicted fingerprint reappearing is treated as new, a bounded
// false-negative risk accepted to cap storage.
const DefaultMaxSeen = 200

// Fingerprint returns the hex MD5 digest of the item's normalized
// projection (text + timestamp). Whitespace runs in the text are collapsed
// so incidental rendering differences yield identical fingerprints.
func Fingerprint(it types.Item) string {
	norm := strings.Join(strings.Fields(it.Text), " ")
	sum := md5.Sum([]byte(norm + "\x1f" + it.Timestamp))
	return hex.EncodeToString(sum[:])
}

// Ledger is an ordered, bounded collection of fingerprints already
// processed. Insertion order is preserved for FIFO eviction.
type Ledger struct {
	hashes []string
	index  map[string]struct{}
	max    int
}

// NewLedger creates an empty ledger with the given retention cap.
func NewLedger(max int) *Ledger {
	if max <= 0 {
		max = DefaultMaxSeen
	}
	return &Ledger{index: make(map[string]struct{}), max: max}
}

// Contains reports whether a fingerprint is in the ledger.
func (l *Ledger) Contains(fp string) bool {
	_, ok := l.index[fp]
	return ok
}

// Len returns the number of retained fingerprints.
func (l *Ledger) Len() int {
	return len(l.hashes)
}

// Hashes returns the retained fingerprints in insertion order.
func (l *Ledger) Hashes() []string {
	out := make([]string, len(l.hashes))
	copy(out, l.hashes)
	return out
}

// Partition splits items into those not yet seen and those already in the
// ledger. It does not modify the ledger. Duplicates within the batch count
// as seen after their first occurrence.
func (l *Ledger) Partition(items []types.Item) (fresh, seen []types.Item) {
	inBatch := make(map[string]struct{})
	for _, it := range items {
		fp := Fingerprint(it)
		if l.Contains(fp) {
			seen = append(seen, it)
			continue
		}
		if _, dup := inBatch[fp]; dup {
			seen = append(seen, it)
			continue
		}
		inBatch[fp] = struct{}{}
		fresh = append(fresh, it)
	}
	return fresh, seen
}

// Commit appends fingerprints to the ledger, then evicts the oldest
// entries beyond the retention cap.
func (l *Ledger) Commit(fps ...string) {
	for _, fp := range fps {
		if l.Contains(fp) {
			continue
		}
		l.hashes = append(l.hashes, fp)
		l.index[fp] = struct{}{}
	}

	if len(l.hashes) > l.max {
		evicted := l.hashes[:len(l.hashes)-l.max]
		for _, fp := range evicted {
			delete(l.index, fp)
		}
		l.hashes = append([]string(nil), l.hashes[len(l.hashes)-l.max:]...)
	}
}
