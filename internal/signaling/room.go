package signaling

// Room is an established pairing between exactly two sessions. The offerer
// is always the session whose join completed the match. Rooms are destroyed
// when either party leaves and are never reused.
type Room struct {
	// ID is the unique identifier for the room.
	ID string

	// Offerer is the session that joined and completed the match (Peer A).
	Offerer *Session

	// Answerer is the session that was waiting (Peer B).
	Answerer *Session
}

// Other returns the partner of s inside the room, or nil if s is not a
// member.
func (r *Room) Other(s *Session) *Session {
	switch s {
	case r.Offerer:
		return r.Answerer
	case r.Answerer:
		return r.Offerer
	default:
		return nil
	}
}
