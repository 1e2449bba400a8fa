package peer

import (
	pion "github.com/pion/webrtc/v4"

	"github.com/vedanshmuni/videochat/internal/config"
)

// Transport is the slice of the peer-connection capability the negotiator
// drives. *pion.PeerConnection satisfies it; tests substitute a fake.
// Media encoding and ICE traversal live behind it and are not this
// package's business.
type Transport interface {
	CreateOffer(*pion.OfferOptions) (pion.SessionDescription, error)
	CreateAnswer(*pion.AnswerOptions) (pion.SessionDescription, error)
	SetLocalDescription(pion.SessionDescription) error
	LocalDescription() *pion.SessionDescription
	SetRemoteDescription(pion.SessionDescription) error
	AddICECandidate(pion.ICECandidateInit) error
	Close() error
}

// NewPeerConnection builds a pion peer connection from config: STUN always,
// TURN when configured, relay-only policy when forced.
func NewPeerConnection(cfg *config.Config) (*pion.PeerConnection, error) {
	iceServers := []pion.ICEServer{{URLs: cfg.GetSTUNServers()}}

	turnServers := cfg.GetTURNServers()
	if turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := pion.ICETransportPolicyAll
	if turnServers != nil && cfg.ForceRelay {
		policy = pion.ICETransportPolicyRelay
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}

// AttachMedia adds local tracks to the connection, or recvonly audio and
// video transceivers when the caller has no capture source. Capture itself
// is outside this package.
func AttachMedia(pc *pion.PeerConnection, tracks []pion.TrackLocal) error {
	if len(tracks) == 0 {
		for _, kind := range []pion.RTPCodecType{pion.RTPCodecTypeAudio, pion.RTPCodecTypeVideo} {
			_, err := pc.AddTransceiverFromKind(kind, pion.RTPTransceiverInit{
				Direction: pion.RTPTransceiverDirectionRecvonly,
			})
			if err != nil {
				return NewError("add transceiver", err)
			}
		}
		return nil
	}

	for _, track := range tracks {
		if _, err := pc.AddTrack(track); err != nil {
			return NewError("add track", err)
		}
	}
	return nil
}
