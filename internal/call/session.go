package call

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/media"
	"github.com/dkeye/roomcall/internal/peer"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const DefaultRingTimeout = 30 * time.Second

// maxEarlyCandidates bounds the candidates held per peer before its link opens.
const maxEarlyCandidates = 32

// Link is the part of peer.Link the session drives.
type Link interface {
	Peer() domain.ConnectionID
	Start(ctx context.Context) error
	HandleOffer(ctx context.Context, sdp string) error
	HandleAnswer(ctx context.Context, sdp string) error
	AddRemoteCandidate(c webrtc.ICECandidateInit) error
	AttachTracks(ctx context.Context, tracks []*media.LocalTrack) error
	DetachTracks(ctx context.Context) error
	SetMediaState(s peer.MediaState) error
	Close()
}

// LinkFactory opens a link to remote. The session reports link failures
// back to itself through onFailed.
type LinkFactory func(remote domain.ConnectionID, role peer.Role, onFailed func(domain.ConnectionID)) (Link, error)

// MediaSource is the local capture device.
type MediaSource interface {
	Acquire(ctx context.Context) (*media.Stream, error)
	Release()
	Stream() *media.Stream
}

// Sender relays call-control envelopes to the server.
type Sender interface {
	Send(env protocol.Envelope) error
}

type Options struct {
	RingTimeout time.Duration
	// OnError receives errors worth showing to the user.
	OnError func(error)
	// OnState observes every transition.
	OnState func(prev, next State)
	// Spawn runs asynchronous work; defaults to a goroutine.
	Spawn func(func())
}

// Session runs the call machine for one room membership. Events are
// queued and drained by whichever caller finds the queue idle, so
// transitions and their commands never interleave.
type Session struct {
	ctx     context.Context
	sender  Sender
	device  MediaSource
	newLink LinkFactory
	opts    Options

	mu       sync.Mutex
	state    State
	queue    []Event
	draining bool

	// Touched only by the draining goroutine.
	ringTimer *time.Timer
	early     map[domain.ConnectionID][]protocol.ICECandidate

	linksMu sync.RWMutex
	links   map[domain.ConnectionID]Link

	mediaMu    sync.Mutex
	localMedia peer.MediaState

	// sendMu orders track attach and detach across links.
	sendMu  sync.Mutex
	sending bool
}

func NewSession(ctx context.Context, self domain.ConnectionID, sender Sender, device MediaSource, newLink LinkFactory, opts Options) *Session {
	if opts.RingTimeout <= 0 {
		opts.RingTimeout = DefaultRingTimeout
	}
	if opts.Spawn == nil {
		opts.Spawn = func(f func()) { go f() }
	}
	return &Session{
		ctx:        ctx,
		sender:     sender,
		device:     device,
		newLink:    newLink,
		opts:       opts,
		state:      NewState(self),
		early:      make(map[domain.ConnectionID][]protocol.ICECandidate),
		links:      make(map[domain.ConnectionID]Link),
		localMedia: peer.MediaState{Audio: true, Video: true},
		sending:    true,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Participants = slices.Clone(st.Participants)
	return st
}

// Links lists the peers that currently have an open link, sorted.
func (s *Session) Links() []domain.ConnectionID {
	s.linksMu.RLock()
	defer s.linksMu.RUnlock()
	out := make([]domain.ConnectionID, 0, len(s.links))
	for id := range s.links {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b domain.ConnectionID) int { return strings.Compare(string(a), string(b)) })
	return out
}

func (s *Session) StartCall()  { s.Dispatch(StartCall{}) }
func (s *Session) AcceptCall() { s.Dispatch(AcceptCall{}) }
func (s *Session) RejectCall() { s.Dispatch(RejectCall{}) }
func (s *Session) EndCall()    { s.Dispatch(EndCall{}) }

// Dispatch queues ev and drains the queue unless another caller already is.
func (s *Session) Dispatch(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		prev := s.state
		state, cmds := Step(prev, next)
		s.state = state
		s.mu.Unlock()

		if prev.Phase != state.Phase {
			log.Info().Str("module", "call").Str("from", prev.Phase.String()).Str("to", state.Phase.String()).
				Int("participants", len(state.Participants)).Msg("call phase")
		}
		if s.opts.OnState != nil {
			s.opts.OnState(prev, state)
		}
		for _, c := range cmds {
			s.execute(c)
		}
	}
}

// HandleEnvelope turns a relayed call or negotiation message into an event.
func (s *Session) HandleEnvelope(env protocol.Envelope) {
	ev, err := eventFromEnvelope(env)
	if err != nil {
		log.Warn().Err(err).Str("module", "call").Str("type", string(env.Type)).Msg("bad call envelope")
		return
	}
	if ev != nil {
		s.Dispatch(ev)
	}
}

func eventFromEnvelope(env protocol.Envelope) (Event, error) {
	switch env.Type {
	case protocol.TypeCallInvite:
		return InviteReceived{From: env.From}, nil
	case protocol.TypeCallAccept, protocol.TypeCallReject:
		var p protocol.CallPayload
		if err := env.Into(&p); err != nil {
			return nil, err
		}
		if env.Type == protocol.TypeCallAccept {
			return AcceptReceived{From: env.From, Caller: p.CallerID}, nil
		}
		return RejectReceived{From: env.From, Caller: p.CallerID}, nil
	case protocol.TypeCallEnd:
		return EndReceived{From: env.From}, nil
	case protocol.TypeOffer, protocol.TypeAnswer:
		var p protocol.SDPPayload
		if err := env.Into(&p); err != nil {
			return nil, err
		}
		if env.Type == protocol.TypeOffer {
			return OfferReceived{From: env.From, SDP: p.SDP}, nil
		}
		return AnswerReceived{From: env.From, SDP: p.SDP}, nil
	case protocol.TypeICECandidate:
		var p protocol.CandidatePayload
		if err := env.Into(&p); err != nil {
			return nil, err
		}
		return CandidateReceived{From: env.From, Candidate: p.Candidate}, nil
	case protocol.TypeParticipantLeft:
		var p protocol.ParticipantLeftPayload
		if err := env.Into(&p); err != nil {
			return nil, err
		}
		return ParticipantLeft{ID: p.ConnectionID}, nil
	}
	return nil, nil
}

func (s *Session) execute(c Command) {
	switch c := c.(type) {
	case AcquireMedia:
		s.opts.Spawn(func() {
			stream, err := s.device.Acquire(s.ctx)
			if err != nil {
				s.Dispatch(MediaFailed{Ticket: c.Ticket, Err: err})
				return
			}
			s.applyLocalMedia(stream)
			s.Dispatch(MediaAcquired{Ticket: c.Ticket})
		})
	case ReleaseMedia:
		s.device.Release()
	case Send:
		env, err := protocol.New(c.Type, c.Payload)
		if err != nil {
			s.report(err)
			return
		}
		env.Target = c.Target
		if err := s.sender.Send(env); err != nil {
			log.Warn().Err(err).Str("module", "call").Str("type", string(c.Type)).Msg("send failed")
		}
	case OpenLink:
		s.openLink(c.Peer, c.Role)
	case CloseLink:
		s.linksMu.Lock()
		l, ok := s.links[c.Peer]
		delete(s.links, c.Peer)
		s.linksMu.Unlock()
		delete(s.early, c.Peer)
		if ok {
			l.Close()
		}
	case CloseAllLinks:
		s.linksMu.Lock()
		links := s.links
		s.links = make(map[domain.ConnectionID]Link)
		s.linksMu.Unlock()
		clear(s.early)
		for _, l := range links {
			l.Close()
		}
	case AttachMedia:
		for _, l := range s.snapshotLinks() {
			if err := s.attachOutgoing(l); err != nil {
				s.failLink(l.Peer(), err)
			}
		}
	case DeliverOffer:
		if l, ok := s.link(c.From); ok {
			if err := l.HandleOffer(s.ctx, c.SDP); err != nil {
				s.failLink(c.From, err)
			}
		}
	case DeliverAnswer:
		if l, ok := s.link(c.From); ok {
			if err := l.HandleAnswer(s.ctx, c.SDP); err != nil {
				s.failLink(c.From, err)
			}
		}
	case DeliverCandidate:
		l, ok := s.link(c.From)
		if !ok {
			s.holdCandidate(c.From, c.Candidate)
			return
		}
		s.deliverCandidate(l, c.Candidate)
	case StartRingTimer:
		s.stopRingTimer()
		ticket := c.Ticket
		s.ringTimer = time.AfterFunc(s.opts.RingTimeout, func() { s.Dispatch(RingTimeout{Ticket: ticket}) })
	case StopRingTimer:
		s.stopRingTimer()
	case ReportError:
		s.report(c.Err)
	}
}

func (s *Session) openLink(remote domain.ConnectionID, role peer.Role) {
	if _, ok := s.link(remote); ok {
		return
	}
	l, err := s.newLink(remote, role, func(id domain.ConnectionID) {
		s.Dispatch(LinkFailed{Peer: id, Err: errors.New("peer connection failed")})
	})
	if err != nil {
		s.failLink(remote, err)
		return
	}
	s.linksMu.Lock()
	s.links[remote] = l
	s.linksMu.Unlock()
	log.Info().Str("module", "call").Str("peer", string(remote)).Str("role", role.String()).Msg("link opened")

	if err := s.attachOutgoing(l); err != nil {
		s.failLink(remote, err)
		return
	}
	if err := l.Start(s.ctx); err != nil {
		s.failLink(remote, err)
		return
	}
	held := s.early[remote]
	delete(s.early, remote)
	for _, c := range held {
		s.deliverCandidate(l, c)
	}
	if err := l.SetMediaState(s.mediaState()); err != nil {
		log.Debug().Err(err).Str("module", "call").Str("peer", string(remote)).Msg("media state deferred")
	}
}

// holdCandidate keeps a candidate that arrived before its link.
func (s *Session) holdCandidate(from domain.ConnectionID, c protocol.ICECandidate) {
	if len(s.early[from]) >= maxEarlyCandidates {
		log.Debug().Str("module", "call").Str("peer", string(from)).Msg("early candidate dropped")
		return
	}
	s.early[from] = append(s.early[from], c)
}

func (s *Session) deliverCandidate(l Link, c protocol.ICECandidate) {
	if err := l.AddRemoteCandidate(peer.CandidateFromWire(c)); err != nil {
		log.Warn().Err(err).Str("module", "call").Str("peer", string(l.Peer())).Msg("remote candidate rejected")
	}
}

// attachOutgoing gives l the held stream's tracks unless sending is off.
func (s *Session) attachOutgoing(l Link) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if !s.sending {
		return nil
	}
	return s.attachLocked(l)
}

func (s *Session) attachLocked(l Link) error {
	stream := s.device.Stream()
	if stream == nil {
		return nil
	}
	return l.AttachTracks(s.ctx, stream.Tracks())
}

// SetSending turns outgoing media on or off on every link. Off leaves the
// call receive-only while the capture stream stays held.
func (s *Session) SetSending(enabled bool) {
	type failure struct {
		peer domain.ConnectionID
		err  error
	}
	var failed []failure

	s.sendMu.Lock()
	if s.sending != enabled {
		s.sending = enabled
		for _, l := range s.snapshotLinks() {
			var err error
			if enabled {
				err = s.attachLocked(l)
			} else {
				err = l.DetachTracks(s.ctx)
			}
			if err != nil {
				failed = append(failed, failure{l.Peer(), err})
			}
		}
		log.Info().Str("module", "call").Bool("sending", enabled).Msg("outgoing media")
	}
	s.sendMu.Unlock()

	for _, f := range failed {
		s.failLink(f.peer, f.err)
	}
}

// failLink queues the failure; the machine decides what closes.
func (s *Session) failLink(remote domain.ConnectionID, err error) {
	log.Warn().Err(err).Str("module", "call").Str("peer", string(remote)).Msg("link failed")
	s.Dispatch(LinkFailed{Peer: remote, Err: err})
}

func (s *Session) link(id domain.ConnectionID) (Link, bool) {
	s.linksMu.RLock()
	defer s.linksMu.RUnlock()
	l, ok := s.links[id]
	return l, ok
}

func (s *Session) snapshotLinks() []Link {
	s.linksMu.RLock()
	defer s.linksMu.RUnlock()
	out := make([]Link, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, l)
	}
	return out
}

func (s *Session) stopRingTimer() {
	if s.ringTimer != nil {
		s.ringTimer.Stop()
		s.ringTimer = nil
	}
}

func (s *Session) report(err error) {
	log.Warn().Err(err).Str("module", "call").Msg("call error")
	if s.opts.OnError != nil {
		s.opts.OnError(err)
	}
}

// SetAudioEnabled mutes or unmutes the microphone track without
// renegotiating, and tells every peer.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.setMedia(func(st *peer.MediaState, stream *media.Stream) {
		st.Audio = enabled
		if stream != nil && stream.Audio != nil {
			stream.Audio.SetEnabled(enabled)
		}
	})
}

func (s *Session) SetVideoEnabled(enabled bool) {
	s.setMedia(func(st *peer.MediaState, stream *media.Stream) {
		st.Video = enabled
		if stream != nil && stream.Video != nil {
			stream.Video.SetEnabled(enabled)
		}
	})
}

func (s *Session) setMedia(apply func(*peer.MediaState, *media.Stream)) {
	s.mediaMu.Lock()
	apply(&s.localMedia, s.device.Stream())
	state := s.localMedia
	s.mediaMu.Unlock()

	for _, l := range s.snapshotLinks() {
		if err := l.SetMediaState(state); err != nil {
			log.Debug().Err(err).Str("module", "call").Str("peer", string(l.Peer())).Msg("media state not delivered")
		}
	}
}

func (s *Session) mediaState() peer.MediaState {
	s.mediaMu.Lock()
	defer s.mediaMu.Unlock()
	return s.localMedia
}

// applyLocalMedia carries earlier mute choices over to a newly acquired stream.
func (s *Session) applyLocalMedia(stream *media.Stream) {
	s.mediaMu.Lock()
	defer s.mediaMu.Unlock()
	if stream.Audio != nil {
		stream.Audio.SetEnabled(s.localMedia.Audio)
	}
	if stream.Video != nil {
		stream.Video.SetEnabled(s.localMedia.Video)
	}
}

// Leave ends any call and releases local media; used when leaving the
// room or losing the connection.
func (s *Session) Leave() {
	s.Dispatch(EndCall{})
	s.device.Release()
}
