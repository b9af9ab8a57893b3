package media

import (
	"errors"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

type TrackState int32

const (
	TrackStateLive TrackState = iota
	TrackStateMuted
	TrackStateStopped
)

var ErrTrackStopped = errors.New("track stopped")

// LocalTrack is one outgoing track of the local stream. Muting only flips
// the state; the track stays attached to every peer connection.
type LocalTrack struct {
	Track *webrtc.TrackLocalStaticRTP
	Kind  webrtc.RTPCodecType
	state atomic.Int32 // Zero by default (TrackStateLive)
}

func NewLocalTrack(track *webrtc.TrackLocalStaticRTP, kind webrtc.RTPCodecType) *LocalTrack {
	return &LocalTrack{Track: track, Kind: kind}
}

func (t *LocalTrack) State() TrackState {
	return TrackState(t.state.Load())
}

func (t *LocalTrack) Enabled() bool {
	return t.State() == TrackStateLive
}

// SetEnabled toggles between live and muted. A stopped track stays stopped.
func (t *LocalTrack) SetEnabled(enabled bool) {
	from, to := TrackStateMuted, TrackStateLive
	if !enabled {
		from, to = TrackStateLive, TrackStateMuted
	}
	t.state.CompareAndSwap(int32(from), int32(to))
}

func (t *LocalTrack) Stop() {
	t.state.Store(int32(TrackStateStopped))
}

// WriteRTP forwards pkt while live and silently drops it while muted.
func (t *LocalTrack) WriteRTP(pkt *rtp.Packet) error {
	switch t.State() {
	case TrackStateStopped:
		return ErrTrackStopped
	case TrackStateMuted:
		return nil
	}
	return t.Track.WriteRTP(pkt)
}
