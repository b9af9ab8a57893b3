// Package media owns the single local capture stream of a client.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrMediaAcquisitionFailed = errors.New("media acquisition failed")

// Stream is an acquired set of local tracks.
type Stream struct {
	ID    string
	Audio *LocalTrack
	Video *LocalTrack

	stop func()
}

func (s *Stream) Tracks() []*LocalTrack {
	out := make([]*LocalTrack, 0, 2)
	if s.Audio != nil {
		out = append(out, s.Audio)
	}
	if s.Video != nil {
		out = append(out, s.Video)
	}
	return out
}

func (s *Stream) close() {
	for _, t := range s.Tracks() {
		t.Stop()
	}
	if s.stop != nil {
		s.stop()
	}
}

// Opener produces a fresh stream, e.g. by opening capture hardware.
type Opener func(ctx context.Context) (*Stream, error)

// Device guards the shared stream: Acquire opens it only when absent and
// Release is idempotent.
type Device struct {
	mu     sync.Mutex
	open   Opener
	stream *Stream
}

func NewDevice(open Opener) *Device {
	return &Device{open: open}
}

func (d *Device) Acquire(ctx context.Context) (*Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream != nil {
		return d.stream, nil
	}
	s, err := d.open(ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "media").Msg("acquire failed")
		return nil, fmt.Errorf("%w: %w", ErrMediaAcquisitionFailed, err)
	}
	d.stream = s
	log.Info().Str("module", "media").Str("stream", s.ID).Int("tracks", len(s.Tracks())).Msg("media acquired")
	return s, nil
}

func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return
	}
	d.stream.close()
	log.Info().Str("module", "media").Str("stream", d.stream.ID).Msg("media released")
	d.stream = nil
}

// Stream returns the held stream or nil.
func (d *Device) Stream() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream
}
