// Package peer manages one negotiated media connection to one remote
// participant.
package peer

import (
	"context"
	"sync"

	"github.com/dkeye/roomcall/internal/core"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/media"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Role int

const (
	RoleAnswerer Role = iota
	RoleOfferer
)

func (r Role) String() string {
	if r == RoleOfferer {
		return "offerer"
	}
	return "answerer"
}

// Signaler carries negotiation messages to the remote side.
type Signaler interface {
	SendOffer(to domain.ConnectionID, sdp string) error
	SendAnswer(to domain.ConnectionID, sdp string) error
	SendCandidate(to domain.ConnectionID, c webrtc.ICECandidateInit) error
}

// RenderEvent tells the presentation layer to show or drop a remote track.
type RenderEvent struct {
	ParticipantID domain.ConnectionID
	Track         *webrtc.TrackRemote
	Kind          webrtc.RTPCodecType
	Attached      bool
}

type Options struct {
	Peer          domain.ConnectionID
	Role          Role
	Conn          core.MediaConnection
	Signaler      Signaler
	Render        func(RenderEvent)
	OnFailed      func(domain.ConnectionID)
	OnRemoteState func(domain.ConnectionID, MediaState)
}

// Link drives the offer/answer handshake with one peer. Remote candidates
// that arrive before any remote description are queued and applied in
// arrival order right after it is set. The offerer side wins offer
// collisions; the answerer rolls back and re-offers afterwards.
type Link struct {
	peer          domain.ConnectionID
	role          Role
	conn          core.MediaConnection
	sig           Signaler
	render        func(RenderEvent)
	onFailed      func(domain.ConnectionID)
	onRemoteState func(domain.ConnectionID, MediaState)

	// sigMu serializes negotiation steps and guards the fields below it.
	sigMu       sync.Mutex
	pending     []webrtc.ICECandidateInit
	remoteSet   bool
	started     bool
	negotiating bool
	renegotiate bool
	senders     map[*media.LocalTrack]*webrtc.RTPSender

	// mu guards state touched from connection callbacks.
	mu        sync.Mutex
	closed    bool
	remote    []*webrtc.TrackRemote
	local     *MediaState
	closeOnce sync.Once
}

func New(opts Options) *Link {
	l := &Link{
		peer:          opts.Peer,
		role:          opts.Role,
		conn:          opts.Conn,
		sig:           opts.Signaler,
		render:        opts.Render,
		onFailed:      opts.OnFailed,
		onRemoteState: opts.OnRemoteState,
		senders:       make(map[*media.LocalTrack]*webrtc.RTPSender),
	}

	l.conn.OnICECandidate(func(c webrtc.ICECandidateInit) {
		if l.isClosed() {
			return
		}
		if err := l.sig.SendCandidate(l.peer, c); err != nil {
			log.Warn().Err(err).Str("module", "peer").Str("peer", string(l.peer)).Msg("send candidate")
		}
	})
	l.conn.OnTrack(func(_ context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}
		l.remote = append(l.remote, track)
		l.mu.Unlock()
		log.Info().Str("module", "peer").Str("peer", string(l.peer)).Str("kind", track.Kind().String()).Msg("remote track")
		l.emit(RenderEvent{ParticipantID: l.peer, Track: track, Kind: track.Kind(), Attached: true})
	})
	l.conn.OnFailed(func() {
		if l.isClosed() {
			return
		}
		log.Warn().Str("module", "peer").Str("peer", string(l.peer)).Msg("connection failed")
		if l.onFailed != nil {
			l.onFailed(l.peer)
		}
	})
	l.conn.OnControl(func(data []byte) {
		m, err := decodeControl(data)
		if err != nil {
			log.Debug().Err(err).Str("module", "peer").Str("peer", string(l.peer)).Msg("bad control message")
			return
		}
		if m.Type == controlMediaState && l.onRemoteState != nil {
			l.onRemoteState(l.peer, MediaState{Audio: m.Audio, Video: m.Video})
		}
	})
	// State set before the channel opened is delivered once it does.
	l.conn.OnControlOpen(func() {
		l.mu.Lock()
		st, closed := l.local, l.closed
		l.mu.Unlock()
		if closed || st == nil {
			return
		}
		if err := l.sendState(*st); err != nil {
			log.Debug().Err(err).Str("module", "peer").Str("peer", string(l.peer)).Msg("media state not delivered")
		}
	})
	return l
}

func (l *Link) Peer() domain.ConnectionID { return l.peer }
func (l *Link) Role() Role                { return l.role }

func (l *Link) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Link) emit(ev RenderEvent) {
	if l.render != nil {
		l.render(ev)
	}
}

// Start sends the first offer when this side is the offerer. An answerer
// waits for the remote offer.
func (l *Link) Start(ctx context.Context) error {
	l.sigMu.Lock()
	defer l.sigMu.Unlock()
	if l.isClosed() {
		return ErrLinkClosed
	}
	if l.role != RoleOfferer || l.started {
		return nil
	}
	l.started = true
	return l.negotiateLocked(ctx)
}

func (l *Link) ready() bool {
	return (l.role == RoleOfferer && l.started) || l.remoteSet
}

func (l *Link) negotiateLocked(ctx context.Context) error {
	if l.negotiating {
		l.renegotiate = true
		return nil
	}
	l.negotiating = true
	l.renegotiate = false

	offer, err := l.conn.CreateOffer(ctx)
	if err != nil {
		l.negotiating = false
		return &NegotiationError{Op: "create offer", Peer: l.peer, Err: err}
	}
	if err := l.sig.SendOffer(l.peer, offer.SDP); err != nil {
		l.negotiating = false
		return &NegotiationError{Op: "send offer", Peer: l.peer, Err: err}
	}
	log.Debug().Str("module", "peer").Str("peer", string(l.peer)).Msg("offer sent")
	return nil
}

func (l *Link) HandleOffer(ctx context.Context, sdp string) error {
	l.sigMu.Lock()
	defer l.sigMu.Unlock()
	if l.isClosed() {
		return ErrLinkClosed
	}

	if l.conn.SignalingState() == webrtc.SignalingStateHaveLocalOffer {
		if l.role == RoleOfferer {
			log.Debug().Str("module", "peer").Str("peer", string(l.peer)).Msg("offer collision, keeping ours")
			return nil
		}
		if err := l.conn.Rollback(); err != nil {
			return &NegotiationError{Op: "rollback", Peer: l.peer, Err: err}
		}
		l.negotiating = false
		l.renegotiate = true
	}

	if err := l.applyRemoteLocked(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}); err != nil {
		return &NegotiationError{Op: "set remote offer", Peer: l.peer, Err: err}
	}
	answer, err := l.conn.CreateAnswer(ctx)
	if err != nil {
		return &NegotiationError{Op: "create answer", Peer: l.peer, Err: err}
	}
	if err := l.sig.SendAnswer(l.peer, answer.SDP); err != nil {
		return &NegotiationError{Op: "send answer", Peer: l.peer, Err: err}
	}
	if l.renegotiate {
		return l.negotiateLocked(ctx)
	}
	return nil
}

func (l *Link) HandleAnswer(ctx context.Context, sdp string) error {
	l.sigMu.Lock()
	defer l.sigMu.Unlock()
	if l.isClosed() {
		return ErrLinkClosed
	}
	if l.conn.SignalingState() != webrtc.SignalingStateHaveLocalOffer {
		log.Debug().Str("module", "peer").Str("peer", string(l.peer)).Msg("answer without local offer, ignored")
		return nil
	}
	if err := l.applyRemoteLocked(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}); err != nil {
		return &NegotiationError{Op: "set remote answer", Peer: l.peer, Err: err}
	}
	l.negotiating = false
	if l.renegotiate {
		return l.negotiateLocked(ctx)
	}
	return nil
}

func (l *Link) applyRemoteLocked(desc webrtc.SessionDescription) error {
	if err := l.conn.SetRemoteDescription(desc); err != nil {
		return err
	}
	l.remoteSet = true
	pending := l.pending
	l.pending = nil
	for _, c := range pending {
		if err := l.conn.AddICECandidate(c); err != nil {
			log.Warn().Err(err).Str("module", "peer").Str("peer", string(l.peer)).Msg("apply queued candidate")
		}
	}
	if len(pending) > 0 {
		log.Debug().Str("module", "peer").Str("peer", string(l.peer)).Int("count", len(pending)).Msg("flushed queued candidates")
	}
	return nil
}

// AddRemoteCandidate applies c, or queues it until a remote description exists.
func (l *Link) AddRemoteCandidate(c webrtc.ICECandidateInit) error {
	l.sigMu.Lock()
	defer l.sigMu.Unlock()
	if l.isClosed() {
		return nil
	}
	if !l.remoteSet {
		l.pending = append(l.pending, c)
		return nil
	}
	if err := l.conn.AddICECandidate(c); err != nil {
		return &NegotiationError{Op: "add candidate", Peer: l.peer, Err: err}
	}
	return nil
}

// AttachTracks adds tracks that are not attached yet and renegotiates if
// the handshake is already under way.
func (l *Link) AttachTracks(ctx context.Context, tracks []*media.LocalTrack) error {
	l.sigMu.Lock()
	defer l.sigMu.Unlock()
	if l.isClosed() {
		return ErrLinkClosed
	}
	added := 0
	for _, t := range tracks {
		if _, ok := l.senders[t]; ok || t.State() == media.TrackStateStopped {
			continue
		}
		sender, err := l.conn.AddLocalTrack(t.Track)
		if err != nil {
			return &NegotiationError{Op: "add track", Peer: l.peer, Err: err}
		}
		l.senders[t] = sender
		added++
	}
	if added > 0 && l.ready() {
		return l.negotiateLocked(ctx)
	}
	return nil
}

// DetachTracks stops sending every local track and renegotiates, leaving
// the link receive-only.
func (l *Link) DetachTracks(ctx context.Context) error {
	l.sigMu.Lock()
	defer l.sigMu.Unlock()
	if l.isClosed() {
		return ErrLinkClosed
	}
	removed := 0
	for t, sender := range l.senders {
		if err := l.conn.RemoveLocalTrack(sender); err != nil {
			return &NegotiationError{Op: "remove track", Peer: l.peer, Err: err}
		}
		delete(l.senders, t)
		removed++
	}
	if removed > 0 && l.ready() {
		return l.negotiateLocked(ctx)
	}
	return nil
}

// SetMediaState tells the remote side whether our audio and video are on.
// The latest state is kept and resent when the control channel opens.
func (l *Link) SetMediaState(s MediaState) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLinkClosed
	}
	l.local = &s
	l.mu.Unlock()
	return l.sendState(s)
}

func (l *Link) sendState(s MediaState) error {
	b, err := encodeMediaState(s)
	if err != nil {
		return err
	}
	return l.conn.SendControl(b)
}

// Close releases the connection and detaches remote tracks. Later calls
// do nothing.
func (l *Link) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		remote := l.remote
		l.remote = nil
		l.mu.Unlock()

		l.conn.Close()
		for _, t := range remote {
			l.emit(RenderEvent{ParticipantID: l.peer, Track: t, Kind: t.Kind(), Attached: false})
		}

		l.sigMu.Lock()
		l.pending = nil
		l.sigMu.Unlock()
		log.Info().Str("module", "peer").Str("peer", string(l.peer)).Msg("link closed")
	})
}
