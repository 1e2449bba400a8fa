package signaling

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Hub is the central brain of the signaling server. It owns the session
// registry, the waiting queue and all rooms; every mutation goes through
// its lock, so two concurrent joins can never claim the same waiting entry.
//
// The Run loop is the only consumer of the Register/Unregister/Inbound
// channels. The exported methods are safe to call directly, which is how
// the tests drive the hub without websockets.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	queue    *WaitingQueue
	rooms    map[string]*Room

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound carries parsed client messages into the hub loop.
	Inbound chan *Message
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]*Session),
		queue:      NewWaitingQueue(),
		rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Message),
	}
}

// Run starts the hub's main processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Connect(client)

		case client := <-h.Unregister:
			h.Disconnect(client)
			close(client.Send)

		case message := <-h.Inbound:
			h.HandleMessage(message)
		}
	}
}

// Connect creates a session for a freshly registered client and tells the
// client its id.
func (h *Hub) Connect(c *Client) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Session{
		ID:     uuid.NewString(),
		State:  StateIdle,
		client: c,
	}
	c.SessionID = s.ID
	h.sessions[s.ID] = s

	slog.Info("session connected", "sessionId", s.ID)
	h.push(s, EventWelcome, WelcomePayload{SessionID: s.ID})
	return s
}

// Disconnect removes the client's session: out of the waiting queue if it
// was waiting, out of its room (notifying the partner) if it was paired.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[c.SessionID]
	if !ok {
		return
	}

	h.queue.Remove(s.ID)
	h.leaveRoom(s)
	delete(h.sessions, s.ID)
	slog.Info("session disconnected", "sessionId", s.ID)
}

// HandleMessage dispatches one client message.
func (h *Hub) HandleMessage(msg *Message) {
	if msg.client == nil {
		return
	}
	senderID := msg.client.SessionID

	switch msg.Type {
	case EventJoin:
		var p JoinPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				slog.Warn("bad join payload", "sessionId", senderID, "err", err)
				return
			}
		}
		h.Join(senderID, p.Interests)

	case EventNext:
		h.Next(senderID)

	case EventTextMessage, EventOffer, EventAnswer, EventICE:
		h.Relay(senderID, msg.Type, msg.Payload)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "sessionId", senderID)
	}
}

// Join pairs the session with the first compatible waiting session, or
// enqueues it if nobody fits. The joining side always becomes the offerer.
func (h *Hub) Join(sessionID string, interests []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.join(sessionID, interests)
}

// join is the lock-held body of Join so Next can reuse it.
func (h *Hub) join(sessionID string, interests []string) {
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if s.State == StatePaired {
		// Already in a room; a well-behaved client sends "next" first.
		return
	}

	s.Interests = interests
	if s.State == StateWaiting {
		// Repeat join just refreshes the recorded interests.
		return
	}

	w := h.queue.Match(s)
	if w == nil {
		h.queue.Enqueue(s)
		s.State = StateWaiting
		slog.Info("session waiting", "sessionId", s.ID, "interests", interests, "queued", h.queue.Len())
		return
	}

	room := &Room{
		ID:       uuid.NewString(),
		Offerer:  s,
		Answerer: w,
	}
	h.rooms[room.ID] = room

	s.State, s.Role, s.Room = StatePaired, RoleOfferer, room
	w.State, w.Role, w.Room = StatePaired, RoleAnswerer, room

	slog.Info("partners matched", "roomId", room.ID, "offerer", s.ID, "answerer", w.ID)

	h.push(s, EventPartnerFound, PartnerFoundPayload{PartnerID: w.ID, Role: RoleOfferer})
	h.push(w, EventPartnerFound, PartnerFoundPayload{PartnerID: s.ID, Role: RoleAnswerer})
}

// Leave tears down the session's pairing, notifying the partner, without
// requeueing the leaver.
func (h *Hub) Leave(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[sessionID]; ok {
		h.leaveRoom(s)
	}
}

// Next leaves the current pairing (notifying the partner) and immediately
// rejoins the queue with the interests recorded at the original join.
func (h *Hub) Next(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	h.leaveRoom(s)
	h.join(s.ID, s.Interests)
}

// Relay forwards a payload to the session named in its target field,
// rewriting the addressing so the receiver sees who sent it. Delivery is
// best effort: an unknown target drops the message silently.
func (h *Hub) Relay(senderID, event string, payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out, targetID, err := rewriteRelayPayload(senderID, event, payload)
	if err != nil {
		slog.Warn("bad relay payload", "event", event, "sessionId", senderID, "err", err)
		return
	}

	target, ok := h.sessions[targetID]
	if !ok {
		slog.Debug("relay target not found", "event", event, "target", targetID, "sender", senderID)
		return
	}

	raw, err := json.Marshal(out)
	if err != nil {
		slog.Warn("marshal relay payload", "event", event, "err", err)
		return
	}
	h.pushRaw(target, event, raw)
}

// rewriteRelayPayload rebuilds a relayed payload for delivery: signaling
// payloads get their target swapped for the sender id, chat messages lose
// the target and gain a sender stamp. The sdp/candidate blobs pass through
// untouched.
func rewriteRelayPayload(senderID, event string, payload json.RawMessage) (any, string, error) {
	switch event {
	case EventTextMessage:
		var p TextMessagePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, "", err
		}
		return TextMessagePayload{Message: p.Message, Sender: senderID}, p.Target, nil

	case EventOffer, EventAnswer:
		var p SDPPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, "", err
		}
		return SDPPayload{Target: senderID, SDP: p.SDP}, p.Target, nil

	default: // EventICE
		var p CandidatePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, "", err
		}
		return CandidatePayload{Target: senderID, Candidate: p.Candidate}, p.Target, nil
	}
}

// leaveRoom tears down s's room if it has one: the partner is notified and
// dropped back to idle, the room is destroyed. Caller holds the lock.
func (h *Hub) leaveRoom(s *Session) {
	room := s.Room
	if room == nil {
		return
	}

	partner := room.Other(s)
	delete(h.rooms, room.ID)

	s.Room, s.Role, s.State = nil, "", StateIdle
	if partner != nil {
		partner.Room, partner.Role, partner.State = nil, "", StateIdle
		h.push(partner, EventPartnerLeft, nil)
	}

	slog.Info("room destroyed", "roomId", room.ID)
}

// push marshals a payload and queues it for delivery to s's client.
func (h *Hub) push(s *Session, event string, payload any) {
	msg, err := NewMessage(event, payload)
	if err != nil {
		slog.Warn("marshal outbound payload", "event", event, "err", err)
		return
	}
	h.send(s, msg)
}

func (h *Hub) pushRaw(s *Session, event string, payload json.RawMessage) {
	h.send(s, &Message{Type: event, Payload: payload})
}

// send is fire and forget: if the client's buffer is full the message is
// dropped rather than blocking the hub loop.
func (h *Hub) send(s *Session, msg *Message) {
	if s.client == nil {
		return
	}
	select {
	case s.client.Send <- msg:
	default:
		slog.Warn("client send buffer full, dropping message", "sessionId", s.ID, "type", msg.Type)
	}
}

// Stats reports registry sizes, used by the health endpoint.
func (h *Hub) Stats() (sessions, waiting, rooms int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions), h.queue.Len(), len(h.rooms)
}
