package filter

import "github.com/samirrijal/diadiem/internal/core/ports"

// Manager keeps a State in sync with an address. It is owned by a single
// goroutine and is not safe for concurrent use.
type Manager struct {
	loc      ports.Location
	onChange func(State)
	state    State
	lastSeen string
}

// NewManager hydrates the state from loc. onChange is called after every
// change that alters the serialized state; it may be nil.
func NewManager(loc ports.Location, onChange func(State)) *Manager {
	q := loc.Query()
	return &Manager{
		loc:      loc,
		onChange: onChange,
		state:    ParseQuery(q),
		lastSeen: q,
	}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	return m.state
}

// Commit merges u, replaces the current address entry and notifies. It
// returns false and does nothing when the serialized state is unchanged.
func (m *Manager) Commit(u Update) bool {
	next := m.state.Apply(u)
	if next.Encode() == m.state.Encode() {
		return false
	}
	m.state = next
	q := next.Encode()
	m.loc.Replace(q)
	m.lastSeen = q
	m.notify()
	return true
}

// Sync re-hydrates from the address if it changed outside the manager,
// e.g. after back/forward navigation.
func (m *Manager) Sync() bool {
	q := m.loc.Query()
	if q == m.lastSeen {
		return false
	}
	m.lastSeen = q
	next := ParseQuery(q)
	if next.Encode() == m.state.Encode() {
		return false
	}
	m.state = next
	m.notify()
	return true
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange(m.state)
	}
}
