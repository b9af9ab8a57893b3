package media

import (
	"context"
	"errors"
	"testing"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceAcquireIsShared(t *testing.T) {
	opens := 0
	synthetic := SyntheticOpener(SyntheticOptions{Audio: true, Video: true})
	d := NewDevice(func(ctx context.Context) (*Stream, error) {
		opens++
		return synthetic(ctx)
	})
	ctx := context.Background()

	s1, err := d.Acquire(ctx)
	require.NoError(t, err)
	s2, err := d.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, opens)
	assert.Len(t, s1.Tracks(), 2)
	assert.Same(t, s1, d.Stream())

	d.Release()
	d.Release()
	assert.Nil(t, d.Stream())
	assert.Equal(t, TrackStateStopped, s1.Audio.State())
	assert.Equal(t, TrackStateStopped, s1.Video.State())

	s3, err := d.Acquire(ctx)
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	assert.Equal(t, 2, opens)
	d.Release()
}

func TestDeviceAcquireFailure(t *testing.T) {
	cause := errors.New("permission denied")
	opens := 0
	d := NewDevice(func(context.Context) (*Stream, error) {
		opens++
		return nil, cause
	})

	_, err := d.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrMediaAcquisitionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, d.Stream())
	assert.Equal(t, 1, opens, "a failed open is not cached")

	_, err = d.Acquire(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, opens)
}

func TestSyntheticOpenerOptions(t *testing.T) {
	_, err := SyntheticOpener(SyntheticOptions{})(context.Background())
	assert.ErrorIs(t, err, ErrNoTracksRequested)

	s, err := SyntheticOpener(SyntheticOptions{Audio: true})(context.Background())
	require.NoError(t, err)
	defer s.close()
	assert.NotNil(t, s.Audio)
	assert.Nil(t, s.Video)
	assert.Equal(t, webrtc.RTPCodecTypeAudio, s.Audio.Kind)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SyntheticOpener(SyntheticOptions{Video: true})(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalTrackMuteAndStop(t *testing.T) {
	tr, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "s")
	require.NoError(t, err)
	lt := NewLocalTrack(tr, webrtc.RTPCodecTypeVideo)
	pkt := &rtp.Packet{Header: rtp.Header{Version: 2}}

	assert.True(t, lt.Enabled())
	require.NoError(t, lt.WriteRTP(pkt))

	lt.SetEnabled(false)
	assert.Equal(t, TrackStateMuted, lt.State())
	assert.NoError(t, lt.WriteRTP(pkt), "muted tracks drop silently")

	lt.SetEnabled(true)
	assert.True(t, lt.Enabled())

	lt.Stop()
	lt.SetEnabled(true)
	assert.Equal(t, TrackStateStopped, lt.State())
	assert.ErrorIs(t, lt.WriteRTP(pkt), ErrTrackStopped)
}
