package core

// PendingSlot holds the most recent navigation request that has not yet
// passed the gate. A newer request overwrites an unconsumed older one.
//
// Owned by the event loop; not safe for concurrent use.
type PendingSlot struct {
	route *Route
}

// Put stores route and reports whether it replaced an unconsumed one.
func (s *PendingSlot) Put(route Route) (replaced bool) {
	replaced = s.route != nil
	s.route = &route
	return replaced
}

// Take empties the slot and returns its content.
func (s *PendingSlot) Take() (Route, bool) {
	if s.route == nil {
		return Route{}, false
	}
	r := *s.route
	s.route = nil
	return r, true
}

// Peek returns the waiting route without consuming it.
func (s *PendingSlot) Peek() (*Route, bool) {
	return s.route, s.route != nil
}

// Empty reports whether the slot is empty.
func (s *PendingSlot) Empty() bool {
	return s.route == nil
}
