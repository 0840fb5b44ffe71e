package engine

import "sync"

// Deduplicator records resolved article URLs so that two homepage links
// resolving to the same address are fetched once. URLs are compared exactly
// as resolved.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduplicator creates a Deduplicator sized for the expected link count.
func NewDeduplicator(estimatedCapacity int) *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}, estimatedCapacity),
	}
}

// MarkSeen records rawURL and reports whether it was new.
func (d *Deduplicator) MarkSeen(rawURL string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[rawURL]; ok {
		return false
	}
	d.seen[rawURL] = struct{}{}
	return true
}

// Count returns the number of distinct URLs seen.
func (d *Deduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
