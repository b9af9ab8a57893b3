package media

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrNoTracksRequested = errors.New("no tracks requested")

type SyntheticOptions struct {
	Audio bool
	Video bool
}

type pattern struct {
	payloadType uint8
	clockRate   uint32
	interval    time.Duration
	payload     []byte
}

var (
	// 20ms opus silence frame.
	audioPattern = pattern{payloadType: 111, clockRate: 48000, interval: 20 * time.Millisecond, payload: []byte{0xf8, 0xff, 0xfe}}
	videoPattern = pattern{payloadType: 96, clockRate: 90000, interval: time.Second / 15, payload: make([]byte, 120)}
)

// SyntheticOpener builds a stream fed by generated RTP instead of capture
// hardware. Headless clients and tests use it.
func SyntheticOpener(opts SyntheticOptions) Opener {
	return func(ctx context.Context) (*Stream, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !opts.Audio && !opts.Video {
			return nil, ErrNoTracksRequested
		}
		streamID := "roomcall-" + uuid.NewString()
		pumpCtx, cancel := context.WithCancel(context.Background())
		s := &Stream{ID: streamID, stop: cancel}

		if opts.Audio {
			t, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}, "audio", streamID)
			if err != nil {
				cancel()
				return nil, err
			}
			s.Audio = NewLocalTrack(t, webrtc.RTPCodecTypeAudio)
			go pump(pumpCtx, s.Audio, audioPattern)
		}
		if opts.Video {
			t, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}, "video", streamID)
			if err != nil {
				cancel()
				return nil, err
			}
			s.Video = NewLocalTrack(t, webrtc.RTPCodecTypeVideo)
			go pump(pumpCtx, s.Video, videoPattern)
		}
		return s, nil
	}
}

func pump(ctx context.Context, t *LocalTrack, p pattern) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ssrc := rand.Uint32()
	seq := uint16(rand.UintN(1 << 16))
	ts := rand.Uint32()
	step := uint32(uint64(p.clockRate) * uint64(p.interval) / uint64(time.Second))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         true,
				PayloadType:    p.payloadType,
				SequenceNumber: seq,
				Timestamp:      ts,
				SSRC:           ssrc,
			},
			Payload: p.payload,
		}
		if err := t.WriteRTP(pkt); err != nil {
			if errors.Is(err, ErrTrackStopped) {
				return
			}
			log.Debug().Err(err).Str("module", "media").Str("kind", t.Kind.String()).Msg("write rtp")
		}
		seq++
		ts += step
	}
}

// Drain reads a remote track until it ends, handing each packet to onPacket.
func Drain(ctx context.Context, track *webrtc.TrackRemote, onPacket func(*rtp.Packet)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if onPacket != nil {
			onPacket(pkt)
		}
	}
}
