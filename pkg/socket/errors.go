package socket

import "errors"

// Common errors for the socket package.
var (
	// ErrSocketClosed indicates the socket was closed by the caller.
	ErrSocketClosed = errors.New("socket closed")
	// ErrNotConnected indicates the socket has no live connection.
	ErrNotConnected = errors.New("socket not connected")
	// ErrAlreadyConnected indicates Connect was called twice.
	ErrAlreadyConnected = errors.New("socket already connected")
	// ErrChannelClosed indicates the channel was closed or left.
	ErrChannelClosed = errors.New("channel closed")
	// ErrAlreadyJoined indicates Join was called on a joined channel.
	ErrAlreadyJoined = errors.New("channel already joined")
	// ErrJoinRejected indicates the server replied to a join with a
	// non-ok status.
	ErrJoinRejected = errors.New("join rejected")
	// ErrPushRejected indicates the server replied to a push with a
	// non-ok status.
	ErrPushRejected = errors.New("push rejected")
	// ErrBadFrame indicates a wire frame that is not a five-element
	// [joinRef, ref, topic, event, payload] array.
	ErrBadFrame = errors.New("malformed message frame")
)
