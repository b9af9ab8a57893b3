package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

//go:generate mockgen -destination=mocks/media_mock.go -package=mocks github.com/dkeye/roomcall/internal/core MediaConnection

// MediaConnection is the client side of one peer-to-peer media session.
// CreateOffer and CreateAnswer also apply the result as the local description.
type MediaConnection interface {
	CreateOffer(ctx context.Context) (webrtc.SessionDescription, error)
	CreateAnswer(ctx context.Context) (webrtc.SessionDescription, error)
	SetRemoteDescription(webrtc.SessionDescription) error
	// Rollback discards a local offer that has not been answered yet.
	Rollback() error
	SignalingState() webrtc.SignalingState
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// AddLocalTrack attaches a local track; removal goes through the returned sender.
	AddLocalTrack(webrtc.TrackLocal) (*webrtc.RTPSender, error)
	RemoveLocalTrack(*webrtc.RTPSender) error
	// SendControl writes to the per-connection control data channel.
	SendControl([]byte) error
	OnControl(func([]byte))
	// OnControlOpen fires when the control channel becomes writable.
	OnControlOpen(func())
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver))
	// OnFailed fires once when the transport fails or is closed remotely.
	OnFailed(func())
	// Close should stop all underlying media resources.
	Close()
	IsClosed() bool
}
