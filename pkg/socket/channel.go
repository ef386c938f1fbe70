package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ChannelState is the lifecycle state of a Channel.
type ChannelState int32

// Channel states.
const (
	ChannelClosed ChannelState = iota
	ChannelJoining
	ChannelJoined
	ChannelLeaving
	ChannelErrored
)

// String returns a human-readable state name.
func (s ChannelState) String() string {
	switch s {
	case ChannelClosed:
		return "closed"
	case ChannelJoining:
		return "joining"
	case ChannelJoined:
		return "joined"
	case ChannelLeaving:
		return "leaving"
	case ChannelErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ErrNotJoined indicates a push on a channel that is not joined.
var ErrNotJoined = errors.New("channel not joined")

// rejoinTimeout bounds each rejoin attempt after a reconnect.
const rejoinTimeout = 10 * time.Second

// recvBuffer is the inbound message buffer per channel. Messages beyond
// it are dropped with a log line rather than blocking the read loop.
const recvBuffer = 64

// Channel is one topic multiplexed over a Socket. Obtain one via
// Socket.Channel; the socket routes inbound messages for the topic to it
// and rejoins it automatically after reconnects.
type Channel struct {
	socket *Socket
	topic  string
	params any

	mu        sync.Mutex
	state     ChannelState
	joinRef   string
	rejoining bool

	recv chan *Message
}

func newChannel(s *Socket, topic string, params any) *Channel {
	return &Channel{
		socket: s,
		topic:  topic,
		params: params,
		recv:   make(chan *Message, recvBuffer),
	}
}

// Topic returns the channel topic.
func (c *Channel) Topic() string {
	return c.topic
}

// State returns the current channel state.
func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns the stream of non-reply messages the server pushes on
// this topic.
func (c *Channel) Messages() <-chan *Message {
	return c.recv
}

// Join subscribes to the topic by pushing phx_join with the channel's
// params and waiting for the reply, bounded by ctx. Joining an already
// joined or joining channel fails with ErrAlreadyJoined.
func (c *Channel) Join(ctx context.Context) (*Message, error) {
	c.mu.Lock()
	if c.state == ChannelJoined || c.state == ChannelJoining {
		c.mu.Unlock()
		return nil, ErrAlreadyJoined
	}
	// Transition under the same lock as the guard so a concurrent Join
	// cannot slip past it and push a second phx_join.
	c.state = ChannelJoining
	c.mu.Unlock()
	return c.join(ctx)
}

// join performs the join push regardless of prior state. It is shared by
// Join and the rejoin loop.
func (c *Channel) join(ctx context.Context) (*Message, error) {
	joinRef := c.socket.refs.Next()
	c.mu.Lock()
	c.state = ChannelJoining
	c.joinRef = joinRef
	c.mu.Unlock()

	reply, err := c.socket.Request(ctx, &Message{
		JoinRef: joinRef,
		Ref:     joinRef,
		Topic:   c.topic,
		Event:   EventJoin,
		Payload: c.params,
	})
	if err != nil {
		c.setState(ChannelErrored)
		return nil, fmt.Errorf("join %s: %w", c.topic, err)
	}
	if status := reply.ReplyStatus(); status != "ok" {
		c.setState(ChannelErrored)
		return reply, fmt.Errorf("join %s: %w: status %q", c.topic, ErrJoinRejected, status)
	}

	c.setState(ChannelJoined)
	c.socket.logger.Info("joined channel", "topic", c.topic)
	return reply, nil
}

// Leave unsubscribes from the topic by pushing phx_leave and waiting for
// the reply. The channel ends up closed regardless of the reply, matching
// the server's view that a leave always succeeds.
func (c *Channel) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.state != ChannelJoined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	c.state = ChannelLeaving
	joinRef := c.joinRef
	c.mu.Unlock()

	_, err := c.socket.Request(ctx, &Message{
		JoinRef: joinRef,
		Topic:   c.topic,
		Event:   EventLeave,
		Payload: map[string]any{},
	})
	c.setState(ChannelClosed)
	if err != nil {
		return fmt.Errorf("leave %s: %w", c.topic, err)
	}
	return nil
}

// Push sends an event on the joined channel and waits for the reply,
// bounded by ctx. The reply's response payload is returned; a non-ok
// status fails with ErrPushRejected.
func (c *Channel) Push(ctx context.Context, event string, payload any) (*Message, error) {
	c.mu.Lock()
	if c.state != ChannelJoined {
		c.mu.Unlock()
		return nil, ErrNotJoined
	}
	joinRef := c.joinRef
	c.mu.Unlock()

	reply, err := c.socket.Request(ctx, &Message{
		JoinRef: joinRef,
		Topic:   c.topic,
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("push %s %s: %w", c.topic, event, err)
	}
	if status := reply.ReplyStatus(); status != "ok" {
		return reply, fmt.Errorf("push %s %s: %w: status %q", c.topic, event, ErrPushRejected, status)
	}
	return reply, nil
}

// PushAsync sends an event without waiting for a reply.
func (c *Channel) PushAsync(event string, payload any) error {
	c.mu.Lock()
	if c.state != ChannelJoined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	joinRef := c.joinRef
	c.mu.Unlock()

	return c.socket.Push(&Message{
		JoinRef: joinRef,
		Topic:   c.topic,
		Event:   event,
		Payload: payload,
	})
}

// deliver routes an inbound message for this topic. Replies are already
// routed by ref at the socket level; control events drive the channel
// lifecycle and everything else lands on the Messages stream.
func (c *Channel) deliver(msg *Message) {
	switch msg.Event {
	case EventReply:
		return
	case EventClose:
		c.setState(ChannelClosed)
		c.socket.logger.Info("channel closed by server", "topic", c.topic)
		return
	case EventError:
		c.setState(ChannelErrored)
		c.socket.logger.Warn("channel errored", "topic", c.topic)
		go c.rejoinLoop()
		return
	}

	select {
	case c.recv <- msg:
	default:
		c.socket.logger.Warn("dropping message, receive buffer full",
			"topic", c.topic, "event", msg.Event)
	}
}

// socketDisconnected marks an active channel for rejoin after the socket
// reconnects.
func (c *Channel) socketDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ChannelJoined || c.state == ChannelJoining {
		c.state = ChannelErrored
	}
}

// socketClosed permanently closes the channel.
func (c *Channel) socketClosed() {
	c.setState(ChannelClosed)
}

// shouldRejoin reports whether the channel wants rejoining after a
// reconnect.
func (c *Channel) shouldRejoin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == ChannelErrored
}

// rejoinLoop retries the join with the configured rejoin backoff until it
// succeeds, the channel stops wanting a rejoin, or the socket closes. At
// most one loop runs per channel.
func (c *Channel) rejoinLoop() {
	c.mu.Lock()
	if c.rejoining {
		c.mu.Unlock()
		return
	}
	c.rejoining = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.rejoining = false
		c.mu.Unlock()
	}()

	for attempt := 0; ; attempt++ {
		delay := c.socket.cfg.RejoinBackoff.Delay(attempt)
		select {
		case <-c.socket.done:
			return
		case <-time.After(delay):
		}

		if !c.shouldRejoin() {
			return
		}
		if c.socket.State() != StateConnected {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), rejoinTimeout)
		_, err := c.join(ctx)
		cancel()
		if err == nil {
			return
		}
		c.socket.logger.Debug("rejoin attempt failed",
			"topic", c.topic, "attempt", attempt, "error", err)
	}
}

// setState updates the channel state under lock.
func (c *Channel) setState(state ChannelState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
