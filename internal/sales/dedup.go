package sales

import (
	"errors"

	"github.com/zeebo/xxh3"
)

// ErrDuplicate reports an Order ID already admitted in the current run.
var ErrDuplicate = errors.New("duplicate order id")

// Deduplicator remembers the Order IDs admitted during one transform run.
// Use a fresh value per run; it is not safe for concurrent use.
//
// IDs are bucketed by their xxh3 hash and each bucket keeps the raw IDs, so
// membership is exact even on hash collisions.
type Deduplicator struct {
	seen map[uint64][]string
	n    int
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[uint64][]string)}
}

// Admit records id and reports true the first time it is seen; later calls
// with the same id report false.
func (d *Deduplicator) Admit(id string) bool {
	h := xxh3.HashString(id)
	bucket := d.seen[h]
	for _, s := range bucket {
		if s == id {
			return false
		}
	}
	d.seen[h] = append(bucket, id)
	d.n++
	return true
}

// Len reports how many distinct ids have been admitted.
func (d *Deduplicator) Len() int { return d.n }
