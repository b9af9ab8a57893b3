package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/rtp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/roomcall/internal/adapters/rtc"
	"github.com/dkeye/roomcall/internal/adapters/wsclient"
	"github.com/dkeye/roomcall/internal/call"
	"github.com/dkeye/roomcall/internal/config"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/media"
	"github.com/dkeye/roomcall/internal/peer"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/dkeye/roomcall/internal/roomclient"
)

var (
	flagServer     string
	flagRoom       string
	flagName       string
	flagSay        string
	flagCall       bool
	flagAutoAccept bool
	flagNoVideo    bool
	flagListen     bool
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a room and stay until interrupted",
	Long: `Join a room, print chat and membership changes, and optionally start or
answer the room's call.

Examples:
  roomcall join --room standup --name bot
  roomcall join --room standup --name bot --call
  roomcall join --room standup --name bot --auto-accept --no-video
  roomcall join --room standup --name recorder --auto-accept --listen-only`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runJoin(ctx)
	},
}

func init() {
	joinCmd.Flags().StringVar(&flagServer, "server", "", "signaling websocket URL (overrides server_url)")
	joinCmd.Flags().StringVar(&flagRoom, "room", "", "room to join")
	joinCmd.Flags().StringVar(&flagName, "name", "", "display name")
	joinCmd.Flags().StringVar(&flagSay, "say", "", "chat message to send after joining")
	joinCmd.Flags().BoolVar(&flagCall, "call", false, "start a call after joining")
	joinCmd.Flags().BoolVar(&flagAutoAccept, "auto-accept", false, "answer incoming calls automatically")
	joinCmd.Flags().BoolVar(&flagNoVideo, "no-video", false, "send audio only")
	joinCmd.Flags().BoolVar(&flagListen, "listen-only", false, "take part in calls without sending media")
	_ = joinCmd.MarkFlagRequired("room")
	_ = joinCmd.MarkFlagRequired("name")
}

func runJoin(ctx context.Context) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && !flagVerbose {
		zerolog.SetGlobalLevel(lvl)
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}

	conn, err := wsclient.Dial(ctx, cfg.ServerURL, wsclient.Options{DialTimeout: cfg.DialTimeout})
	if err != nil {
		return err
	}
	defer conn.Close()

	device := media.NewDevice(media.SyntheticOpener(media.SyntheticOptions{Audio: true, Video: !flagNoVideo}))
	rtcConfig := rtc.ConfigFromICEServers(cfg.ICEServers)
	render := renderer(ctx)

	var sess *call.Session
	newLink := func(remote domain.ConnectionID, role peer.Role, onFailed func(domain.ConnectionID)) (call.Link, error) {
		mc, err := rtc.NewWebRTCConnection(rtcConfig, remote)
		if err != nil {
			return nil, err
		}
		return peer.New(peer.Options{
			Peer:     remote,
			Role:     role,
			Conn:     mc,
			Signaler: conn,
			Render:   render,
			OnFailed: onFailed,
			OnRemoteState: func(id domain.ConnectionID, s peer.MediaState) {
				log.Info().Str("module", "cli").Str("peer", string(id)).Bool("audio", s.Audio).Bool("video", s.Video).Msg("remote media")
			},
		}), nil
	}
	sess = call.NewSession(ctx, conn.ID(), conn, device, newLink, call.Options{
		RingTimeout: cfg.RingTimeout,
		OnError: func(err error) {
			log.Error().Err(err).Str("module", "cli").Msg("call")
		},
		OnState: func(prev, next call.State) {
			if flagAutoAccept && next.Phase == call.PhaseRingingInbound && prev.Phase != call.PhaseRingingInbound {
				log.Info().Str("module", "cli").Str("caller", string(next.Caller)).Msg("auto-accepting call")
				sess.AcceptCall()
			}
		},
	})

	if flagListen {
		sess.SetSending(false)
	}

	room := roomclient.New(conn, sess, roomclient.Hooks{
		OnMembers: func(members []protocol.MemberInfo) {
			names := make([]string, 0, len(members))
			for _, m := range members {
				names = append(names, m.DisplayName)
			}
			log.Info().Str("module", "cli").Strs("members", names).Msg("membership")
		},
		OnMessage: func(m *domain.ChatMessage) {
			ev := log.Info().Str("module", "cli").Str("from", m.DisplayName).Bool("system", m.System)
			if m.File != nil {
				ev.Str("file", m.File.Name).Str("url", m.File.URL).Msg("file")
				return
			}
			ev.Msg(m.Text)
		},
		OnError: func(code string) {
			log.Warn().Str("module", "cli").Str("code", code).Msg("server rejected request")
		},
	})

	// Either pump ending ends the session.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stop()
		return conn.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		err := room.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := room.Join(flagName, flagRoom); err != nil {
		conn.Close()
		_ = g.Wait()
		return err
	}
	log.Info().Str("module", "cli").Str("sid", string(conn.ID())).Str("room", flagRoom).Msg("joined")
	if flagSay != "" {
		if err := room.SendChat(flagSay); err != nil {
			log.Warn().Err(err).Str("module", "cli").Msg("chat not sent")
		}
	}
	if flagCall {
		sess.StartCall()
	}

	<-gctx.Done()
	_ = room.Leave()
	conn.Close()
	return g.Wait()
}

// renderer drains remote tracks and logs how much arrived, standing in for
// video tiles.
func renderer(ctx context.Context) func(peer.RenderEvent) {
	return func(ev peer.RenderEvent) {
		if !ev.Attached {
			log.Info().Str("module", "cli").Str("peer", string(ev.ParticipantID)).Str("kind", ev.Kind.String()).Msg("tile removed")
			return
		}
		log.Info().Str("module", "cli").Str("peer", string(ev.ParticipantID)).Str("kind", ev.Kind.String()).Msg("tile added")
		go func() {
			var packets int64
			err := media.Drain(ctx, ev.Track, func(*rtp.Packet) { packets++ })
			log.Info().Err(err).Str("module", "cli").Str("peer", string(ev.ParticipantID)).
				Str("kind", ev.Kind.String()).Int64("packets", packets).Msg("track ended")
		}()
	}
}
