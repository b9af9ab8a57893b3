package signal

import "github.com/dkeye/roomcall/internal/protocol"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	ctl.sendEnvelope(conn, protocol.TypePong, nil)
}
