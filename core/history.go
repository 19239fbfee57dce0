package core

import (
	"sync"
)

const defaultHistoryCapacity = 100

// navigationHistory is a fixed-size ring buffer of finished navigations.
// It is written on the event loop and read from any goroutine.
type navigationHistory struct {
	mu    sync.Mutex
	items []NavigationRecord
	head  int
	count int
}

func newNavigationHistory(capacity int) *navigationHistory {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return &navigationHistory{items: make([]NavigationRecord, capacity)}
}

func (h *navigationHistory) Add(record NavigationRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (h *navigationHistory) Recent(limit int) []NavigationRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]NavigationRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *navigationHistory) Last() (NavigationRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return NavigationRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}
