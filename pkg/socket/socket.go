package socket

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sockline/sockline/internal/ref"
	"github.com/sockline/sockline/pkg/codec"
	"github.com/sockline/sockline/pkg/config"
	"github.com/sockline/sockline/pkg/logging"
)

// State is the connection state of a Socket.
type State int32

// Socket states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// defaultHandshakeTimeout bounds the websocket handshake when
// transportOptions carries no handshakeTimeoutMillis entry.
const defaultHandshakeTimeout = 10 * time.Second

// Option customizes a Socket.
type Option func(*Socket)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Socket) {
		s.logger = logger
	}
}

// Socket is a websocket client multiplexing topic channels over one
// connection. It is configured once by a validated config.Configuration
// and never mutates it.
type Socket struct {
	cfg    *config.Configuration
	codec  codec.Codec
	logger *slog.Logger
	id     string

	refs ref.Generator

	mu         sync.RWMutex
	conn       *websocket.Conn
	state      State
	channels   map[string]*Channel
	replies    map[string]chan *Message
	reconnects bool // a reconnect loop is running

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Socket from a validated configuration. The configured
// codec is resolved here; an unknown jsonCodec identifier surfaces as an
// error from this constructor.
func New(cfg *config.Configuration, opts ...Option) (*Socket, error) {
	c, err := cfg.ResolveCodec()
	if err != nil {
		return nil, err
	}

	s := &Socket{
		cfg:      cfg,
		codec:    c,
		logger:   logging.Nop(),
		id:       uuid.NewString(),
		channels: make(map[string]*Channel),
		replies:  make(map[string]chan *Message),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("socket_id", s.id, "endpoint", cfg.Endpoint.String())
	return s, nil
}

// State returns the current connection state.
func (s *Socket) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ID returns the unique socket ID used in log output.
func (s *Socket) ID() string {
	return s.id
}

// Connect dials the configured endpoint and starts the read and heartbeat
// loops. It returns an error if the socket is closed or already connected;
// reconnection after a drop is automatic and does not go through Connect.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrSocketClosed
	case StateConnected, StateConnecting:
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.dial(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return err
	}

	s.startConn(conn)
	s.logger.Info("connected")
	return nil
}

// Close shuts the socket down permanently: channels are closed, the
// connection is closed with a normal-closure frame, and all loops exit.
func (s *Socket) Close() error {
	var conn *websocket.Conn
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		conn = s.conn
		s.conn = nil
		for _, ch := range s.channels {
			ch.socketClosed()
		}
		for r, replyCh := range s.replies {
			close(replyCh)
			delete(s.replies, r)
		}
		s.mu.Unlock()
		close(s.done)
	})

	if conn == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}

// Channel returns the channel for topic, creating it on first use. Params
// are sent as the join payload.
func (s *Socket) Channel(topic string, params any) *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.channels[topic]; ok {
		return ch
	}
	ch := newChannel(s, topic, params)
	s.channels[topic] = ch
	return ch
}

// Push writes a message without waiting for a reply. A ref is assigned
// when the message has none.
func (s *Socket) Push(msg *Message) error {
	if msg.Ref == "" {
		msg.Ref = s.refs.Next()
	}
	data, err := EncodeMessage(s.codec, msg)
	if err != nil {
		return err
	}

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Request pushes a message and waits for its reply, bounded by ctx.
func (s *Socket) Request(ctx context.Context, msg *Message) (*Message, error) {
	if msg.Ref == "" {
		msg.Ref = s.refs.Next()
	}

	replyCh := make(chan *Message, 1)
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil, ErrSocketClosed
	}
	s.replies[msg.Ref] = replyCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.replies, msg.Ref)
		s.mu.Unlock()
	}()

	if err := s.Push(msg); err != nil {
		return nil, err
	}

	select {
	case reply, ok := <-replyCh:
		if !ok {
			return nil, ErrNotConnected
		}
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrSocketClosed
	}
}

// dial opens the websocket connection per the configuration: handshake
// headers, subprotocols and handshake timeout come from the validated
// Configuration and its transport options.
func (s *Socket) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: defaultHandshakeTimeout,
	}
	if d, ok := optionMillis(s.cfg.TransportOptions["handshakeTimeoutMillis"]); ok {
		dialer.HandshakeTimeout = d
	}
	if protos := optionStrings(s.cfg.TransportOptions["protocols"]); len(protos) > 0 {
		dialer.Subprotocols = protos
	}

	conn, resp, err := dialer.DialContext(ctx, s.cfg.Endpoint.String(), s.cfg.HTTPHeader())
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", s.cfg.Endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", s.cfg.Endpoint, err)
	}
	return conn, nil
}

// startConn installs a freshly dialed connection and starts its loops.
// A socket closed during the dial discards the connection instead.
// The reconnects flag is cleared in the same critical section that
// publishes the connection, so a disconnect of this connection always
// observes it cleared and starts a fresh reconnect loop.
func (s *Socket) startConn(conn *websocket.Conn) {
	connDone := make(chan struct{})
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.state = StateConnected
	s.reconnects = false
	s.mu.Unlock()

	go s.readLoop(conn, connDone)
	go s.heartbeatLoop(connDone)
}

// readLoop reads frames until the connection drops, decoding and routing
// each message.
func (s *Socket) readLoop(conn *websocket.Conn, connDone chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(conn, connDone, err)
			return
		}

		msg, err := DecodeMessage(s.codec, data)
		if err != nil {
			s.logger.Warn("dropping message", "error", err)
			continue
		}
		s.route(msg)
	}
}

// route delivers replies to their waiting pushes and everything else to
// the topic's channel.
func (s *Socket) route(msg *Message) {
	if msg.Event == EventReply && msg.Ref != "" {
		s.mu.Lock()
		replyCh := s.replies[msg.Ref]
		delete(s.replies, msg.Ref)
		s.mu.Unlock()
		if replyCh != nil {
			replyCh <- msg
			return
		}
		// Fall through: late replies still reach the channel below.
	}

	s.mu.RLock()
	ch := s.channels[msg.Topic]
	s.mu.RUnlock()
	if ch != nil {
		ch.deliver(msg)
		return
	}
	if msg.Topic != TopicControl {
		s.logger.Debug("message for unknown topic", "topic", msg.Topic, "event", msg.Event)
	}
}

// heartbeatLoop sends heartbeats on the control topic at the configured
// interval. A heartbeat that gets no reply within one interval closes the
// connection so the reconnect path takes over. A zero interval disables
// heartbeats entirely.
func (s *Socket) heartbeatLoop(connDone chan struct{}) {
	interval := s.cfg.HeartbeatInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-connDone:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			_, err := s.Request(ctx, &Message{
				Topic:   TopicControl,
				Event:   EventHeartbeat,
				Payload: map[string]any{},
			})
			cancel()
			if err != nil {
				select {
				case <-s.done:
				case <-connDone:
				default:
					s.logger.Warn("heartbeat failed, dropping connection", "error", err)
					s.mu.RLock()
					conn := s.conn
					s.mu.RUnlock()
					if conn != nil {
						_ = conn.Close()
					}
				}
				return
			}
		}
	}
}

// handleDisconnect tears down a dropped connection, fails outstanding
// requests, marks joined channels for rejoin and starts the reconnect
// loop. Stale calls from already-replaced connections are ignored.
func (s *Socket) handleDisconnect(conn *websocket.Conn, connDone chan struct{}, cause error) {
	_ = conn.Close()

	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	close(connDone)

	for r, replyCh := range s.replies {
		close(replyCh)
		delete(s.replies, r)
	}

	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected

	for _, ch := range s.channels {
		ch.socketDisconnected()
	}

	startReconnect := !s.reconnects
	s.reconnects = true
	s.mu.Unlock()

	s.logger.Warn("connection lost", "error", cause)
	if startReconnect {
		go s.reconnectLoop()
	}
}

// reconnectLoop redials with the configured backoff sequence until a
// connection is established or the socket is closed, then rejoins the
// channels that were joined before the drop.
func (s *Socket) reconnectLoop() {
	for attempt := 0; ; attempt++ {
		delay := s.cfg.ReconnectBackoff.Delay(attempt)
		select {
		case <-s.done:
			return
		case <-time.After(delay):
		}

		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		s.state = StateConnecting
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), defaultHandshakeTimeout)
		conn, err := s.dial(ctx)
		cancel()
		if err != nil {
			s.logger.Debug("reconnect attempt failed", "attempt", attempt, "error", err)
			s.mu.Lock()
			if s.state == StateClosed {
				s.mu.Unlock()
				return
			}
			s.state = StateDisconnected
			s.mu.Unlock()
			continue
		}

		s.startConn(conn)
		s.logger.Info("reconnected", "attempts", attempt+1)

		s.mu.RLock()
		channels := make([]*Channel, 0, len(s.channels))
		for _, ch := range s.channels {
			channels = append(channels, ch)
		}
		s.mu.RUnlock()

		for _, ch := range channels {
			if ch.shouldRejoin() {
				go ch.rejoinLoop()
			}
		}
		return
	}
}

// optionMillis reads a millisecond count from a transport option value.
func optionMillis(v any) (time.Duration, bool) {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Millisecond, true
	case int64:
		return time.Duration(n) * time.Millisecond, true
	case float64:
		return time.Duration(n) * time.Millisecond, true
	}
	return 0, false
}

// optionStrings reads a string list from a transport option value,
// tolerating the []any shape produced by file decoding.
func optionStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, elem := range list {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
