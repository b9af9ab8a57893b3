// Package wsclient is the client side of the signaling websocket.
package wsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/roomcall/internal/core"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrNoWelcome = errors.New("server did not send welcome")

type Options struct {
	DialTimeout time.Duration
	PongWait    time.Duration
	WriteWait   time.Duration
	SendBuffer  int
	Header      http.Header
}

func (o *Options) withDefaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
}

// Conn is one signaling connection. The server names it in the welcome
// frame; ID is valid as soon as Dial returns.
type Conn struct {
	ws       *websocket.Conn
	id       domain.ConnectionID
	opts     Options
	send     chan []byte
	incoming chan protocol.Envelope

	mu     sync.RWMutex
	closed bool
}

// Dial connects and waits for the welcome frame.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	opts.withDefaults()
	dctx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	ws, _, err := websocket.DefaultDialer.DialContext(dctx, url, opts.Header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(opts.DialTimeout))
	_, data, err := ws.ReadMessage()
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: %w", ErrNoWelcome, err)
	}
	env, err := protocol.Decode(data)
	if err != nil || env.Type != protocol.TypeWelcome {
		_ = ws.Close()
		return nil, ErrNoWelcome
	}
	var w protocol.WelcomePayload
	if err := env.Into(&w); err != nil || w.ConnectionID == "" {
		_ = ws.Close()
		return nil, ErrNoWelcome
	}
	log.Info().Str("module", "wsclient").Str("sid", string(w.ConnectionID)).Msg("connected")

	return &Conn{
		ws:       ws,
		id:       w.ConnectionID,
		opts:     opts,
		send:     make(chan []byte, opts.SendBuffer),
		incoming: make(chan protocol.Envelope, opts.SendBuffer),
	}, nil
}

func (c *Conn) ID() domain.ConnectionID { return c.id }

// Incoming yields decoded frames in arrival order and is closed when Run
// returns.
func (c *Conn) Incoming() <-chan protocol.Envelope { return c.incoming }

// Send queues env without blocking.
func (c *Conn) Send(env protocol.Envelope) error {
	b, err := env.Bytes()
	if err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// Run pumps frames until ctx ends or the connection drops.
func (c *Conn) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(c.incoming)
		return c.readPump(ctx)
	})
	g.Go(func() error { return c.writePump(ctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Conn) readPump(ctx context.Context) error {
	defer c.Close()
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPingHandler(func(msg string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return c.ws.WriteControl(websocket.PongMessage, []byte(msg), time.Now().Add(c.opts.WriteWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		env, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "wsclient").Msg("bad frame")
			continue
		}
		select {
		case c.incoming <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Conn) writePump(ctx context.Context) error {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(c.opts.WriteWait))
			return ctx.Err()
		case data, ok := <-c.send:
			if !ok {
				return nil
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
				return err
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

func (c *Conn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
}
