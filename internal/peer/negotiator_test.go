package peer

import (
	"errors"
	"fmt"
	"testing"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedanshmuni/videochat/internal/signaling"
)

// fakeTransport records every call in order so tests can assert ordering
// invariants without a real peer connection.
type fakeTransport struct {
	calls      []string
	local      *pion.SessionDescription
	remote     *pion.SessionDescription
	candidates []string
	addErrOn   string // candidate string that fails to apply
	closed     bool
}

func (f *fakeTransport) CreateOffer(*pion.OfferOptions) (pion.SessionDescription, error) {
	f.calls = append(f.calls, "create-offer")
	return pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "v=0 local-offer"}, nil
}

func (f *fakeTransport) CreateAnswer(*pion.AnswerOptions) (pion.SessionDescription, error) {
	f.calls = append(f.calls, "create-answer")
	return pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "v=0 local-answer"}, nil
}

func (f *fakeTransport) SetLocalDescription(sdp pion.SessionDescription) error {
	f.calls = append(f.calls, "set-local")
	f.local = &sdp
	return nil
}

func (f *fakeTransport) LocalDescription() *pion.SessionDescription {
	return f.local
}

func (f *fakeTransport) SetRemoteDescription(sdp pion.SessionDescription) error {
	f.calls = append(f.calls, fmt.Sprintf("set-remote(%s)", sdp.SDP))
	f.remote = &sdp
	return nil
}

func (f *fakeTransport) AddICECandidate(c pion.ICECandidateInit) error {
	if c.Candidate == f.addErrOn {
		return errors.New("bad candidate")
	}
	f.calls = append(f.calls, "add-candidate")
	f.candidates = append(f.candidates, c.Candidate)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// recordingSender captures what the negotiator relays to the partner.
type recordingSender struct {
	offers     []string
	answers    []string
	candidates []string
	targets    []string
}

func (r *recordingSender) SendOffer(target string, sdp *pion.SessionDescription) error {
	r.offers = append(r.offers, sdp.SDP)
	r.targets = append(r.targets, target)
	return nil
}

func (r *recordingSender) SendAnswer(target string, sdp *pion.SessionDescription) error {
	r.answers = append(r.answers, sdp.SDP)
	r.targets = append(r.targets, target)
	return nil
}

func (r *recordingSender) SendCandidate(target string, c pion.ICECandidateInit) error {
	r.candidates = append(r.candidates, c.Candidate)
	return nil
}

func newTestNegotiator(ft *fakeTransport) (*Negotiator, *recordingSender) {
	sender := &recordingSender{}
	n := NewNegotiator(func() (Transport, error) { return ft, nil }, sender)
	return n, sender
}

func offer(sdp string) pion.SessionDescription {
	return pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: sdp}
}

func answer(sdp string) pion.SessionDescription {
	return pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: sdp}
}

func TestNegotiator_OffererPath(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)

	require.NoError(t, n.AssignRole("partner-1", signaling.RoleOfferer))

	assert.Equal(t, PhaseAwaitingAnswer, n.Phase())
	require.Len(t, sender.offers, 1)
	assert.Equal(t, "v=0 local-offer", sender.offers[0])
	assert.Equal(t, []string{"partner-1"}, sender.targets)
	assert.Equal(t, []string{"create-offer", "set-local"}, ft.calls)

	require.NoError(t, n.HandleAnswer(answer("remote-answer")))
	require.NotNil(t, ft.remote)
	assert.Equal(t, "remote-answer", ft.remote.SDP)

	n.ObserveConnectionState(pion.PeerConnectionStateConnected)
	assert.Equal(t, PhaseConnected, n.Phase())
}

func TestNegotiator_AnswererPath(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)

	require.NoError(t, n.AssignRole("partner-1", signaling.RoleAnswerer))
	assert.Equal(t, PhaseAwaitingOffer, n.Phase())
	assert.Empty(t, sender.offers, "answerer never offers")

	require.NoError(t, n.HandleOffer(offer("remote-offer")))

	assert.Equal(t, PhaseAnswerSent, n.Phase())
	require.Len(t, sender.answers, 1)
	assert.Equal(t, "v=0 local-answer", sender.answers[0])
	assert.Equal(t, []string{"set-remote(remote-offer)", "create-answer", "set-local"}, ft.calls)
}

func TestNegotiator_RoleGating(t *testing.T) {
	t.Run("offerer ignores offers", func(t *testing.T) {
		ft := &fakeTransport{}
		n, sender := newTestNegotiator(ft)
		require.NoError(t, n.AssignRole("p", signaling.RoleOfferer))

		require.NoError(t, n.HandleOffer(offer("stray")))

		assert.Nil(t, ft.remote)
		assert.Empty(t, sender.answers)
		assert.Equal(t, PhaseAwaitingAnswer, n.Phase())
	})

	t.Run("answerer ignores answers", func(t *testing.T) {
		ft := &fakeTransport{}
		n, _ := newTestNegotiator(ft)
		require.NoError(t, n.AssignRole("p", signaling.RoleAnswerer))

		require.NoError(t, n.HandleAnswer(answer("stray")))

		assert.Nil(t, ft.remote)
		assert.Equal(t, PhaseAwaitingOffer, n.Phase())
	})
}

func TestNegotiator_EarlyOfferHeldAndReplayed(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)

	// Offers land before partner-found: the slot keeps only the latest.
	require.NoError(t, n.HandleOffer(offer("first")))
	require.NoError(t, n.HandleOffer(offer("second")))

	require.NoError(t, n.AssignRole("p", signaling.RoleAnswerer))

	require.NotNil(t, ft.remote)
	assert.Equal(t, "second", ft.remote.SDP, "last write wins")
	assert.Len(t, sender.answers, 1)
	assert.Equal(t, PhaseAnswerSent, n.Phase())
}

func TestNegotiator_EarlyOfferDiscardedForOfferer(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)

	require.NoError(t, n.HandleOffer(offer("early")))
	require.NoError(t, n.AssignRole("p", signaling.RoleOfferer))

	assert.Nil(t, ft.remote, "held offer fails the role gate")
	assert.Empty(t, sender.answers)
	assert.Len(t, sender.offers, 1)
}

func TestNegotiator_CandidateOrdering(t *testing.T) {
	ft := &fakeTransport{}
	n, _ := newTestNegotiator(ft)
	require.NoError(t, n.AssignRole("p", signaling.RoleAnswerer))

	// Candidates before the remote description queue up.
	n.HandleCandidate(pion.ICECandidateInit{Candidate: "cand-1"})
	n.HandleCandidate(pion.ICECandidateInit{Candidate: "cand-2"})
	assert.Empty(t, ft.candidates, "nothing applied before remote description")

	require.NoError(t, n.HandleOffer(offer("remote-offer")))

	// Queued candidates flush in receipt order, later ones go straight
	// through behind them.
	n.HandleCandidate(pion.ICECandidateInit{Candidate: "cand-3"})
	assert.Equal(t, []string{"cand-1", "cand-2", "cand-3"}, ft.candidates)
}

func TestNegotiator_CandidateFailureIsSkipped(t *testing.T) {
	ft := &fakeTransport{addErrOn: "cand-bad"}
	n, _ := newTestNegotiator(ft)
	require.NoError(t, n.AssignRole("p", signaling.RoleAnswerer))

	n.HandleCandidate(pion.ICECandidateInit{Candidate: "cand-1"})
	n.HandleCandidate(pion.ICECandidateInit{Candidate: "cand-bad"})
	n.HandleCandidate(pion.ICECandidateInit{Candidate: "cand-2"})

	require.NoError(t, n.HandleOffer(offer("remote-offer")))

	assert.Equal(t, []string{"cand-1", "cand-2"}, ft.candidates,
		"a bad candidate is skipped, the rest still apply in order")
	assert.Equal(t, PhaseAnswerSent, n.Phase(), "negotiation not aborted")
}

func TestNegotiator_Close(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)
	require.NoError(t, n.AssignRole("p", signaling.RoleAnswerer))
	n.HandleCandidate(pion.ICECandidateInit{Candidate: "queued"})

	n.Close()

	assert.Equal(t, PhaseClosed, n.Phase())
	assert.True(t, ft.closed)

	// Everything after close is a no-op; queued state is gone.
	require.NoError(t, n.HandleOffer(offer("late")))
	n.HandleCandidate(pion.ICECandidateInit{Candidate: "late"})
	assert.Nil(t, ft.remote)
	assert.Empty(t, ft.candidates)
	assert.Empty(t, sender.answers)

	n.Close() // idempotent
	assert.Equal(t, PhaseClosed, n.Phase())
}

func TestNegotiator_TerminalTransportStateCloses(t *testing.T) {
	ft := &fakeTransport{}
	n, _ := newTestNegotiator(ft)
	require.NoError(t, n.AssignRole("p", signaling.RoleOfferer))

	n.ObserveConnectionState(pion.PeerConnectionStateFailed)

	assert.Equal(t, PhaseClosed, n.Phase())
	assert.True(t, ft.closed)
}

func TestNegotiator_Renegotiate(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)
	require.NoError(t, n.AssignRole("p", signaling.RoleOfferer))
	require.NoError(t, n.HandleAnswer(answer("remote-answer")))
	n.ObserveConnectionState(pion.PeerConnectionStateConnected)

	require.NoError(t, n.Renegotiate())

	assert.Len(t, sender.offers, 2)
	assert.Equal(t, PhaseAwaitingAnswer, n.Phase())

	// A fresh answer is consumed like the first one.
	require.NoError(t, n.HandleAnswer(answer("second-answer")))
	assert.Equal(t, "second-answer", ft.remote.SDP)
}

func TestNegotiator_RenegotiateIgnoredForAnswerer(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)
	require.NoError(t, n.AssignRole("p", signaling.RoleAnswerer))
	n.ObserveConnectionState(pion.PeerConnectionStateConnected)

	require.NoError(t, n.Renegotiate())
	assert.Empty(t, sender.offers)
}

func TestNegotiator_AssignRoleOnce(t *testing.T) {
	ft := &fakeTransport{}
	n, sender := newTestNegotiator(ft)
	require.NoError(t, n.AssignRole("p1", signaling.RoleOfferer))
	require.NoError(t, n.AssignRole("p2", signaling.RoleAnswerer))

	assert.Equal(t, "p1", n.PartnerID(), "second assignment is a no-op")
	assert.Equal(t, signaling.RoleOfferer, n.Role())
	assert.Len(t, sender.offers, 1)
}
