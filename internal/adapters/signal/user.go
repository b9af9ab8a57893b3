package signal

import (
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleWhoAmI(
	sid domain.ConnectionID,
	conn *WsSignalConn,
) {
	room, name, err := ctl.Orch.Resolve(sid)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("whoami on stale connection")
		return
	}
	ctl.sendEnvelope(conn, protocol.TypeWhoAmI, protocol.WhoAmIPayload{
		ConnectionID: sid,
		DisplayName:  name,
		RoomID:       room,
	})
}
