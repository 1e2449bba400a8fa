package peer

import (
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/vedanshmuni/videochat/internal/signaling"
)

// Phase is the negotiator's position in the offer/answer exchange.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRoleAssigned
	PhaseCreatingOffer
	PhaseOfferSent
	PhaseAwaitingAnswer
	PhaseAwaitingOffer
	PhaseCreatingAnswer
	PhaseAnswerSent
	PhaseConnected
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRoleAssigned:
		return "role-assigned"
	case PhaseCreatingOffer:
		return "creating-offer"
	case PhaseOfferSent:
		return "offer-sent"
	case PhaseAwaitingAnswer:
		return "awaiting-answer"
	case PhaseAwaitingOffer:
		return "awaiting-offer"
	case PhaseCreatingAnswer:
		return "creating-answer"
	case PhaseAnswerSent:
		return "answer-sent"
	case PhaseConnected:
		return "connected"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SignalSender delivers local descriptions and candidates to the partner,
// in practice through the signaling relay.
type SignalSender interface {
	SendOffer(target string, sdp *pion.SessionDescription) error
	SendAnswer(target string, sdp *pion.SessionDescription) error
	SendCandidate(target string, candidate pion.ICECandidateInit) error
}

// TransportFactory builds the peer-connection transport when the role is
// assigned. The transport does not exist before a partner is found.
type TransportFactory func() (Transport, error)

// Negotiator drives one peer connection's SDP and ICE exchange. All entry
// points serialize on one mutex: only one transition is in flight at a
// time, whatever goroutine a transport callback arrives on.
//
// Messages that arrive too early are held rather than failed: an offer
// before the transport exists goes into a single slot (a later offer
// overwrites it — the latest offer is the one worth answering), and
// candidates before the remote description queue up and are applied in
// receipt order right after it is set.
type Negotiator struct {
	mu      sync.Mutex
	connect TransportFactory
	signal  SignalSender

	pc        Transport
	role      signaling.Role
	phase     Phase
	partnerID string

	pendingOffer      *pion.SessionDescription
	pendingCandidates []pion.ICECandidateInit
	remoteSet         bool
}

// NewNegotiator creates an idle negotiator. Nothing happens until
// AssignRole.
func NewNegotiator(connect TransportFactory, signal SignalSender) *Negotiator {
	return &Negotiator{
		connect: connect,
		signal:  signal,
		phase:   PhaseIdle,
	}
}

// AssignRole is the partner-found transition: it builds the transport and
// either starts the offer path or arms the answer path, replaying a held
// early offer if one arrived before the role was known.
func (n *Negotiator) AssignRole(partnerID string, role signaling.Role) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.phase != PhaseIdle {
		return nil
	}

	pc, err := n.connect()
	if err != nil {
		return NewError("assign role", err)
	}
	n.pc = pc
	n.role = role
	n.partnerID = partnerID
	n.phase = PhaseRoleAssigned

	if role == signaling.RoleOfferer {
		// Any offer held before the role was known fails the role gate.
		n.pendingOffer = nil
		return n.sendOfferLocked()
	}

	n.phase = PhaseAwaitingOffer
	if n.pendingOffer != nil {
		offer := *n.pendingOffer
		n.pendingOffer = nil
		return n.answerLocked(offer)
	}
	return nil
}

// HandleOffer processes a relayed offer. Only an answerer consumes offers;
// an offerer ignores them. Before the transport exists the offer is held
// in the single pending slot, last write wins.
func (n *Negotiator) HandleOffer(sdp pion.SessionDescription) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch {
	case n.phase == PhaseClosed:
		return nil
	case n.pc == nil:
		if n.pendingOffer != nil {
			slog.Debug("pending offer overwritten by newer offer")
		}
		n.pendingOffer = &sdp
		return nil
	case n.role != signaling.RoleAnswerer:
		slog.Debug("ignoring offer", "role", n.role)
		return nil
	}

	switch n.phase {
	case PhaseRoleAssigned, PhaseAwaitingOffer, PhaseAnswerSent, PhaseConnected:
		// AnswerSent/Connected accept renegotiation offers.
		return n.answerLocked(sdp)
	default:
		slog.Debug("ignoring offer", "phase", n.phase)
		return nil
	}
}

// HandleAnswer processes a relayed answer. Only an offerer consumes
// answers.
func (n *Negotiator) HandleAnswer(sdp pion.SessionDescription) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.phase == PhaseClosed {
		return nil
	}
	if n.role != signaling.RoleOfferer {
		slog.Debug("ignoring answer", "role", n.role)
		return nil
	}
	if n.phase != PhaseAwaitingAnswer && n.phase != PhaseConnected {
		slog.Debug("ignoring answer", "phase", n.phase)
		return nil
	}

	if err := n.pc.SetRemoteDescription(sdp); err != nil {
		return NewError("set remote description", err)
	}
	n.remoteSet = true
	n.flushCandidatesLocked()
	return nil
}

// HandleCandidate applies a relayed ICE candidate, queuing it if the
// remote description is not set yet. A candidate that fails to apply is
// logged and skipped; it never aborts the negotiation.
func (n *Negotiator) HandleCandidate(candidate pion.ICECandidateInit) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.phase == PhaseClosed {
		return
	}
	if n.pc == nil || !n.remoteSet {
		n.pendingCandidates = append(n.pendingCandidates, candidate)
		return
	}

	if err := n.pc.AddICECandidate(candidate); err != nil {
		slog.Warn("add ICE candidate", "err", err)
	}
}

// Renegotiate re-runs the offer path. Only meaningful for a connected
// offerer; anything else is a no-op.
func (n *Negotiator) Renegotiate() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.phase != PhaseConnected || n.role != signaling.RoleOfferer {
		return nil
	}
	n.remoteSet = false
	return n.sendOfferLocked()
}

// ObserveConnectionState feeds the transport's connection-state callback
// into the machine. Connected is observed here, never driven locally;
// terminal transport states close the negotiation.
func (n *Negotiator) ObserveConnectionState(state pion.PeerConnectionState) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch state {
	case pion.PeerConnectionStateConnected:
		if n.phase != PhaseClosed {
			n.phase = PhaseConnected
		}
	case pion.PeerConnectionStateFailed, pion.PeerConnectionStateClosed:
		n.closeLocked()
	}
}

// Close tears the negotiation down and discards all held state. Safe to
// call more than once.
func (n *Negotiator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closeLocked()
}

// Phase returns the current phase.
func (n *Negotiator) Phase() Phase {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.phase
}

// Role returns the assigned role, empty before partner-found.
func (n *Negotiator) Role() signaling.Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role
}

// PartnerID returns the partner's session id, empty before partner-found.
func (n *Negotiator) PartnerID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.partnerID
}

func (n *Negotiator) sendOfferLocked() error {
	n.phase = PhaseCreatingOffer

	offer, err := n.pc.CreateOffer(nil)
	if err != nil {
		return NewError("create offer", err)
	}
	if err := n.pc.SetLocalDescription(offer); err != nil {
		return NewError("set local description", err)
	}
	n.phase = PhaseOfferSent

	if err := n.signal.SendOffer(n.partnerID, n.pc.LocalDescription()); err != nil {
		return NewError("send offer", err)
	}
	n.phase = PhaseAwaitingAnswer
	return nil
}

func (n *Negotiator) answerLocked(offer pion.SessionDescription) error {
	if err := n.pc.SetRemoteDescription(offer); err != nil {
		return NewError("set remote description", err)
	}
	n.remoteSet = true
	n.flushCandidatesLocked()

	n.phase = PhaseCreatingAnswer
	answer, err := n.pc.CreateAnswer(nil)
	if err != nil {
		return NewError("create answer", err)
	}
	if err := n.pc.SetLocalDescription(answer); err != nil {
		return NewError("set local description", err)
	}

	if err := n.signal.SendAnswer(n.partnerID, n.pc.LocalDescription()); err != nil {
		return NewError("send answer", err)
	}
	n.phase = PhaseAnswerSent
	return nil
}

// flushCandidatesLocked applies every queued candidate in receipt order,
// then clears the queue. Individual failures are logged and skipped.
func (n *Negotiator) flushCandidatesLocked() {
	for _, c := range n.pendingCandidates {
		if err := n.pc.AddICECandidate(c); err != nil {
			slog.Warn("add queued ICE candidate", "err", err)
		}
	}
	n.pendingCandidates = nil
}

func (n *Negotiator) closeLocked() {
	if n.phase == PhaseClosed {
		return
	}
	n.phase = PhaseClosed
	n.pendingOffer = nil
	n.pendingCandidates = nil
	n.remoteSet = false

	if n.pc != nil {
		if err := n.pc.Close(); err != nil {
			slog.Warn("close peer connection", "err", err)
		}
	}
}
