package signal

import (
	"errors"

	"github.com/dkeye/roomcall/internal/app/orch"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleChat(
	sid domain.ConnectionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	if !ctl.limiter.Allow(sid) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	var p protocol.ChatPayload
	if err := env.Into(&p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if _, err := ctl.Orch.Chat(sid, p.Body); err != nil {
		ctl.sendError(conn, chatErrorCode(err))
	}
}

func (ctl *SignalWSController) handleFileNotice(
	sid domain.ConnectionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	if !ctl.limiter.Allow(sid) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	var p protocol.FilePayload
	if err := env.Into(&p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad file payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	ref := domain.FileRef{Name: p.FileName, URL: p.FileURL, MimeType: p.MimeType}
	if _, err := ctl.Orch.FileNotice(sid, ref); err != nil {
		ctl.sendError(conn, chatErrorCode(err))
	}
}

func chatErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrMessageEmpty):
		return "empty_message"
	case errors.Is(err, domain.ErrMessageTooLong):
		return "message_too_long"
	case errors.Is(err, domain.ErrFileRefInvalid):
		return "invalid_file"
	case errors.Is(err, orch.ErrNotInRoom):
		return "not_in_room"
	default:
		return "chat_failed"
	}
}
