package signaling

// WaitingQueue holds sessions waiting for a partner, in insertion order.
// A session appears at most once; a queued session has no room. The queue
// is not safe for concurrent use on its own, the Hub serializes access.
type WaitingQueue struct {
	entries []*Session
}

// NewWaitingQueue returns an empty queue.
func NewWaitingQueue() *WaitingQueue {
	return &WaitingQueue{}
}

// Enqueue appends s to the end of the queue unless it is already present.
func (q *WaitingQueue) Enqueue(s *Session) {
	if q.Contains(s.ID) {
		return
	}
	q.entries = append(q.entries, s)
}

// Remove deletes the session with the given id, preserving the order of the
// remaining entries. It reports whether the session was present.
func (q *WaitingQueue) Remove(id string) bool {
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether a session with the given id is queued.
func (q *WaitingQueue) Contains(id string) bool {
	for _, e := range q.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of waiting sessions.
func (q *WaitingQueue) Len() int {
	return len(q.entries)
}

// Match scans the queue in insertion order and pops the first session that
// is compatible with s. First match wins; there is no scoring. Returns nil
// if nobody waiting is compatible.
func (q *WaitingQueue) Match(s *Session) *Session {
	for i, w := range q.entries {
		if w.ID == s.ID {
			continue
		}
		if interestsCompatible(s.Interests, w.Interests) {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return w
		}
	}
	return nil
}

// interestsCompatible implements the matching predicate: an empty set is a
// wildcard ("no preference"), otherwise the two sets must intersect.
func interestsCompatible(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
