package signaling

import "encoding/json"

// Message is the envelope for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// client is the client that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

// Event type constants.
const (
	// client -> server
	EventJoin        = "join"
	EventTextMessage = "text-message"
	EventOffer       = "offer"
	EventAnswer      = "answer"
	EventICE         = "ice-candidate"
	EventNext        = "next"

	// server -> client
	EventWelcome      = "welcome"
	EventPartnerFound = "partner-found"
	EventPartnerLeft  = "partner-left"
)

// WelcomePayload tells a freshly connected client its session id.
// The transport has no implicit identity, so the server hands one out.
type WelcomePayload struct {
	SessionID string `json:"sessionId"`
}

// JoinPayload carries the interest tags a client wants to match on.
// An empty or absent list is a wildcard that matches everyone.
type JoinPayload struct {
	Interests []string `json:"interests,omitempty"`
}

// PartnerFoundPayload notifies a client of its new partner and its own role.
type PartnerFoundPayload struct {
	PartnerID string `json:"partnerId"`
	Role      Role   `json:"role"`
}

// TextMessagePayload is a relayed chat message. The client fills Target;
// the server strips it and stamps Sender on the way out.
type TextMessagePayload struct {
	Target  string `json:"target,omitempty"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// SDPPayload carries an SDP offer or answer through the relay. The session
// description is opaque to the server; only Target is read, and it is
// rewritten to the sender's id before delivery so the receiving side knows
// whom to reply to.
type SDPPayload struct {
	Target string          `json:"target"`
	SDP    json.RawMessage `json:"sdp,omitempty"`
}

// CandidatePayload carries an ICE candidate through the relay. Same target
// rewriting as SDPPayload; the candidate itself is opaque to the server.
type CandidatePayload struct {
	Target    string          `json:"target"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// NewMessage marshals payload into a Message envelope. A nil payload
// produces an envelope with no payload field (next, partner-left).
func NewMessage(event string, payload any) (*Message, error) {
	msg := &Message{Type: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return msg, nil
}
