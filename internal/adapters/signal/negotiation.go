package signal

import (
	"errors"

	"github.com/dkeye/roomcall/internal/app/orch"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handleRelay passes call-control and negotiation envelopes through as-is.
func (ctl *SignalWSController) handleRelay(
	sid domain.ConnectionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	err := ctl.Orch.Relay(sid, env)
	switch {
	case err == nil:
	case errors.Is(err, orch.ErrUnknownConnection):
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("relay from stale connection dropped")
	case errors.Is(err, orch.ErrNotInRoom):
		ctl.sendError(conn, "not_in_room")
	case errors.Is(err, orch.ErrTargetRequired):
		ctl.sendError(conn, "target_required")
	default:
		log.Warn().Err(err).Str("module", "signal").Str("type", string(env.Type)).Msg("relay failed")
		ctl.sendError(conn, "relay_failed")
	}
}
