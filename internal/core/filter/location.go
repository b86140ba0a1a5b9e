package filter

import "sync"

// MemoryLocation is an in-process address with browser-like history.
type MemoryLocation struct {
	mu      sync.Mutex
	entries []string
	cur     int
}

// NewMemoryLocation starts the history at query.
func NewMemoryLocation(query string) *MemoryLocation {
	return &MemoryLocation{entries: []string{query}}
}

// Query returns the current entry.
func (l *MemoryLocation) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[l.cur]
}

// Replace overwrites the current entry.
func (l *MemoryLocation) Replace(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.cur] = query
}

// Push adds a new entry and drops any forward history.
func (l *MemoryLocation) Push(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries[:l.cur+1], query)
	l.cur++
}

// Back moves to the previous entry. It reports false at the start of history.
func (l *MemoryLocation) Back() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == 0 {
		return false
	}
	l.cur--
	return true
}

// Forward moves to the next entry. It reports false at the end of history.
func (l *MemoryLocation) Forward() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur >= len(l.entries)-1 {
		return false
	}
	l.cur++
	return true
}

// Len returns the number of history entries.
func (l *MemoryLocation) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
