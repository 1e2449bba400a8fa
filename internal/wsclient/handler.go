package wsclient

import (
	"encoding/json"
	"log/slog"

	"github.com/vedanshmuni/videochat/internal/signaling"
)

// Handler routes incoming server messages to typed channels. It consumes
// any stream of message envelopes, which keeps it testable without a live
// connection.
type Handler struct {
	source <-chan *signaling.Message

	Welcome      chan string
	PartnerFound chan *signaling.PartnerFoundPayload
	PartnerLeft  chan struct{}
	Text         chan *signaling.TextMessagePayload
	Offer        chan *signaling.SDPPayload
	Answer       chan *signaling.SDPPayload
	Candidate    chan *signaling.CandidatePayload
	closed       bool
}

// NewHandler creates a handler draining the given message stream.
func NewHandler(source <-chan *signaling.Message) *Handler {
	return &Handler{
		source:       source,
		Welcome:      make(chan string, 1),
		PartnerFound: make(chan *signaling.PartnerFoundPayload, 1),
		PartnerLeft:  make(chan struct{}, 1),
		Text:         make(chan *signaling.TextMessagePayload, 32),
		Offer:        make(chan *signaling.SDPPayload, 4),
		Answer:       make(chan *signaling.SDPPayload, 4),
		Candidate:    make(chan *signaling.CandidatePayload, 32),
	}
}

// Start consumes the source until it closes, routing each message. Run it
// in its own goroutine.
func (h *Handler) Start() {
	for msg := range h.source {
		switch msg.Type {

		case signaling.EventWelcome:
			var p signaling.WelcomePayload
			if decode(msg, &p) {
				h.Welcome <- p.SessionID
			}

		case signaling.EventPartnerFound:
			var p signaling.PartnerFoundPayload
			if decode(msg, &p) {
				h.PartnerFound <- &p
			}

		case signaling.EventPartnerLeft:
			h.PartnerLeft <- struct{}{}

		case signaling.EventTextMessage:
			var p signaling.TextMessagePayload
			if decode(msg, &p) {
				h.Text <- &p
			}

		case signaling.EventOffer:
			var p signaling.SDPPayload
			if decode(msg, &p) {
				h.Offer <- &p
			}

		case signaling.EventAnswer:
			var p signaling.SDPPayload
			if decode(msg, &p) {
				h.Answer <- &p
			}

		case signaling.EventICE:
			var p signaling.CandidatePayload
			if decode(msg, &p) {
				h.Candidate <- &p
			}

		default:
			slog.Debug("unhandled server message", "type", msg.Type)
		}
	}
	h.Close()
}

func decode(msg *signaling.Message, dst any) bool {
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		slog.Warn("bad server payload", "type", msg.Type, "err", err)
		return false
	}
	return true
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.Welcome)
	close(h.PartnerFound)
	close(h.PartnerLeft)
	close(h.Text)
	close(h.Offer)
	close(h.Answer)
	close(h.Candidate)
}
