package signal

import (
	"errors"

	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	sid domain.ConnectionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.JoinRoomPayload
	if err := env.Into(&p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ctl.join(sid, conn, p.DisplayName, p.RoomID)
}

func (ctl *SignalWSController) join(sid domain.ConnectionID, conn *WsSignalConn, name, room string) {
	members, err := ctl.Orch.Join(sid, name, room)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", room).Msg("join rejected")
		ctl.sendError(conn, joinErrorCode(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", room).Int("members", len(members)).Msg("join")
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrDisplayNameEmpty), errors.Is(err, domain.ErrDisplayNameTooLong):
		return "invalid_name"
	case errors.Is(err, domain.ErrRoomIDEmpty), errors.Is(err, domain.ErrRoomIDTooLong):
		return "invalid_room"
	default:
		return "join_failed"
	}
}

// handleLeave leaves the current room; the connection itself stays open.
func (ctl *SignalWSController) handleLeave(
	sid domain.ConnectionID,
	_ *WsSignalConn,
) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	if err := ctl.Orch.Leave(sid); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("leave failed")
	}
}

// handleResume rejoins the room remembered in the cookie session, if any.
func (ctl *SignalWSController) handleResume(
	sid domain.ConnectionID,
	conn *WsSignalConn,
) {
	p := conn.profile
	if p.DisplayName == "" || p.RoomID == "" {
		ctl.sendError(conn, "nothing_to_resume")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("resume")
	ctl.join(sid, conn, p.DisplayName, p.RoomID)
}
