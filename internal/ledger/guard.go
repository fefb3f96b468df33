package ledger

// SessionGuard remembers which names were marked in the current session.
type SessionGuard struct {
	marked map[string]struct{}
}

// NewSessionGuard creates an empty guard.
func NewSessionGuard() *SessionGuard {
	return &SessionGuard{marked: make(map[string]struct{})}
}

// TryMark records name and returns true, or returns false without change if
// name was already marked this session. Matching is exact.
func (g *SessionGuard) TryMark(name string) bool {
	if _, ok := g.marked[name]; ok {
		return false
	}
	g.marked[name] = struct{}{}
	return true
}

// Has reports whether name was marked this session.
func (g *SessionGuard) Has(name string) bool {
	_, ok := g.marked[name]
	return ok
}

// Reset forgets every mark.
func (g *SessionGuard) Reset() {
	clear(g.marked)
}

// Count returns how many names were marked this session.
func (g *SessionGuard) Count() int {
	return len(g.marked)
}
