package signaling

// SessionState is the lifecycle state of a connected client.
type SessionState int

const (
	StateIdle SessionState = iota
	StateWaiting
	StatePaired
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StatePaired:
		return "paired"
	default:
		return "unknown"
	}
}

// Role is a session's side of a peer-connection negotiation. The joining
// session always ends up as the offerer, the waiting one as the answerer.
type Role string

const (
	RoleOfferer  Role = "offerer"
	RoleAnswerer Role = "answerer"
)

// Session is the server's ephemeral state for one connected client.
// It is created on connect and destroyed on disconnect; nothing survives
// the connection. All mutation happens under the Hub's lock.
type Session struct {
	ID        string
	Interests []string
	State     SessionState
	Role      Role
	Room      *Room

	client *Client
}

// Partner returns the other session in this session's room, or nil if the
// session is not paired.
func (s *Session) Partner() *Session {
	if s.Room == nil {
		return nil
	}
	return s.Room.Other(s)
}
