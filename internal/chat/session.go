package chat

import (
	"encoding/json"
	"log/slog"

	pion "github.com/pion/webrtc/v4"

	"github.com/vedanshmuni/videochat/internal/config"
	"github.com/vedanshmuni/videochat/internal/peer"
	"github.com/vedanshmuni/videochat/internal/signaling"
	"github.com/vedanshmuni/videochat/internal/wsclient"
)

// Events are the callbacks a frontend hooks into. Nil callbacks are
// skipped. All callbacks fire from the session's event loop goroutine.
type Events struct {
	Welcome      func(sessionID string)
	PartnerFound func(partnerID string, role signaling.Role)
	PartnerLeft  func()
	Connected    func()
	Text         func(sender, message string)
	Error        func(err error)
}

type commandKind int

const (
	cmdText commandKind = iota
	cmdNext
	cmdClose
)

type command struct {
	kind commandKind
	text string
}

// Session is the client-side orchestrator: it owns the signaling
// connection and, per pairing, one negotiator. A single event loop
// goroutine consumes server events and user commands, so all pairing state
// lives on one thread.
type Session struct {
	cfg     *config.Config
	client  *wsclient.Client
	handler *wsclient.Handler
	events  Events

	tracks []pion.TrackLocal

	// loop-owned state
	id        string
	interests []string
	partnerID string
	neg       *peer.Negotiator

	cmds chan command
	done chan struct{}
}

// New creates a session against the configured signaling server. tracks
// may be nil; media capture is the caller's concern.
func New(cfg *config.Config, events Events, tracks []pion.TrackLocal) *Session {
	return &Session{
		cfg:    cfg,
		events: events,
		tracks: tracks,
		cmds:   make(chan command, 8),
		done:   make(chan struct{}),
	}
}

// Start connects to the signaling server and begins the event loop. The
// session joins the waiting queue with the given interests as soon as the
// server assigns it an id. Start returns once connected; Wait blocks until
// the session ends.
func (s *Session) Start(interests []string) error {
	s.interests = interests
	s.client = wsclient.NewClient(s.cfg.ServerURL)
	if err := s.client.Connect(); err != nil {
		return err
	}

	s.handler = wsclient.NewHandler(s.client.Incoming())
	go s.handler.Start()
	go s.run()
	return nil
}

// Wait blocks until the session is closed or the server goes away.
func (s *Session) Wait() {
	<-s.done
}

// SendText relays a chat line to the current partner. Dropped when not
// paired.
func (s *Session) SendText(text string) {
	select {
	case s.cmds <- command{kind: cmdText, text: text}:
	default:
	}
}

// Next leaves the current pairing and requeues with the original
// interests; the server drives the rematch.
func (s *Session) Next() {
	select {
	case s.cmds <- command{kind: cmdNext}:
	default:
	}
}

// Close ends the session.
func (s *Session) Close() {
	select {
	case s.cmds <- command{kind: cmdClose}:
	default:
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer s.teardown()

	for {
		select {
		case id, ok := <-s.handler.Welcome:
			if !ok {
				return
			}
			s.id = id
			if s.events.Welcome != nil {
				s.events.Welcome(id)
			}
			s.send(signaling.EventJoin, signaling.JoinPayload{Interests: s.interests})

		case p, ok := <-s.handler.PartnerFound:
			if !ok {
				return
			}
			s.onPartnerFound(p)

		case _, ok := <-s.handler.PartnerLeft:
			if !ok {
				return
			}
			s.onPartnerLeft()

		case p, ok := <-s.handler.Text:
			if !ok {
				return
			}
			if s.events.Text != nil {
				s.events.Text(p.Sender, p.Message)
			}

		case p, ok := <-s.handler.Offer:
			if !ok {
				return
			}
			s.onOffer(p)

		case p, ok := <-s.handler.Answer:
			if !ok {
				return
			}
			s.onAnswer(p)

		case p, ok := <-s.handler.Candidate:
			if !ok {
				return
			}
			s.onCandidate(p)

		case cmd := <-s.cmds:
			switch cmd.kind {
			case cmdText:
				s.onSendText(cmd.text)
			case cmdNext:
				s.onNext()
			case cmdClose:
				return
			}
		}
	}
}

func (s *Session) onPartnerFound(p *signaling.PartnerFoundPayload) {
	// A stale negotiator from a torn-down room must never leak into the
	// new pairing.
	if s.neg != nil {
		s.neg.Close()
	}
	s.partnerID = p.PartnerID
	s.neg = peer.NewNegotiator(s.transportFactory(), s)

	if s.events.PartnerFound != nil {
		s.events.PartnerFound(p.PartnerID, p.Role)
	}
	if err := s.neg.AssignRole(p.PartnerID, p.Role); err != nil {
		s.fail(err)
	}
}

func (s *Session) onPartnerLeft() {
	if s.neg != nil {
		s.neg.Close()
		s.neg = nil
	}
	s.partnerID = ""
	if s.events.PartnerLeft != nil {
		s.events.PartnerLeft()
	}
}

func (s *Session) onOffer(p *signaling.SDPPayload) {
	sdp, err := decodeSDP(p.SDP)
	if err != nil {
		s.fail(err)
		return
	}
	if s.neg == nil {
		slog.Debug("offer with no active pairing, dropping")
		return
	}
	if err := s.neg.HandleOffer(sdp); err != nil {
		s.fail(err)
	}
}

func (s *Session) onAnswer(p *signaling.SDPPayload) {
	sdp, err := decodeSDP(p.SDP)
	if err != nil {
		s.fail(err)
		return
	}
	if s.neg == nil {
		slog.Debug("answer with no active pairing, dropping")
		return
	}
	if err := s.neg.HandleAnswer(sdp); err != nil {
		s.fail(err)
	}
}

func (s *Session) onCandidate(p *signaling.CandidatePayload) {
	var candidate pion.ICECandidateInit
	if err := json.Unmarshal(p.Candidate, &candidate); err != nil {
		slog.Warn("bad ICE candidate payload", "err", err)
		return
	}
	if s.neg == nil {
		slog.Debug("candidate with no active pairing, dropping")
		return
	}
	s.neg.HandleCandidate(candidate)
}

func (s *Session) onSendText(text string) {
	if s.partnerID == "" {
		return
	}
	s.send(signaling.EventTextMessage, signaling.TextMessagePayload{
		Target:  s.partnerID,
		Message: text,
	})
}

func (s *Session) onNext() {
	if s.neg != nil {
		s.neg.Close()
		s.neg = nil
	}
	s.partnerID = ""
	s.send(signaling.EventNext, nil)
}

func (s *Session) teardown() {
	if s.neg != nil {
		s.neg.Close()
		s.neg = nil
	}
	s.client.Close()
}

// transportFactory builds the real pion transport for one pairing and
// wires its callbacks back into this session.
func (s *Session) transportFactory() peer.TransportFactory {
	return func() (peer.Transport, error) {
		pc, err := peer.NewPeerConnection(s.cfg)
		if err != nil {
			return nil, err
		}
		if err := peer.AttachMedia(pc, s.tracks); err != nil {
			pc.Close()
			return nil, err
		}

		// The factory runs on the event loop goroutine, so these are the
		// negotiator and partner of the pairing being set up. Capturing
		// them keeps late transport callbacks off newer pairings.
		neg, partner := s.neg, s.partnerID

		pc.OnICECandidate(func(c *pion.ICECandidate) {
			if c == nil {
				return
			}
			if err := s.SendCandidate(partner, c.ToJSON()); err != nil {
				slog.Warn("send ICE candidate", "err", err)
			}
		})

		pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
			slog.Info("peer connection state", "state", state)
			neg.ObserveConnectionState(state)
			if state == pion.PeerConnectionStateConnected && s.events.Connected != nil {
				s.events.Connected()
			}
		})

		pc.OnTrack(func(track *pion.TrackRemote, _ *pion.RTPReceiver) {
			slog.Info("remote track", "kind", track.Kind(), "codec", track.Codec().MimeType)
		})

		return pc, nil
	}
}

// SendOffer implements peer.SignalSender.
func (s *Session) SendOffer(target string, sdp *pion.SessionDescription) error {
	return s.sendSDP(signaling.EventOffer, target, sdp)
}

// SendAnswer implements peer.SignalSender.
func (s *Session) SendAnswer(target string, sdp *pion.SessionDescription) error {
	return s.sendSDP(signaling.EventAnswer, target, sdp)
}

// SendCandidate implements peer.SignalSender.
func (s *Session) SendCandidate(target string, candidate pion.ICECandidateInit) error {
	raw, err := json.Marshal(candidate)
	if err != nil {
		return err
	}
	return s.client.Send(signaling.EventICE, signaling.CandidatePayload{
		Target:    target,
		Candidate: raw,
	})
}

func (s *Session) sendSDP(event, target string, sdp *pion.SessionDescription) error {
	raw, err := json.Marshal(sdp)
	if err != nil {
		return err
	}
	return s.client.Send(event, signaling.SDPPayload{Target: target, SDP: raw})
}

func (s *Session) send(event string, payload any) {
	if err := s.client.Send(event, payload); err != nil {
		s.fail(err)
	}
}

func decodeSDP(raw json.RawMessage) (pion.SessionDescription, error) {
	var sdp pion.SessionDescription
	if err := json.Unmarshal(raw, &sdp); err != nil {
		return sdp, peer.NewError("decode session description", err)
	}
	return sdp, nil
}

func (s *Session) fail(err error) {
	slog.Warn("negotiation", "err", err)
	if s.events.Error != nil {
		s.events.Error(err)
	}
}
