// Package socket implements the connection-management side of sockline: a
// websocket client for Phoenix-style channel servers, driven entirely by a
// validated config.Configuration.
//
// A Socket owns one websocket connection and multiplexes any number of
// topic-scoped channels over it. It sends heartbeats at the configured
// cadence (0 disables them), reconnects after drops following the
// configured reconnect backoff sequence, and rejoins previously joined
// channels following the rejoin backoff sequence. Messages are framed as
// five-element arrays [joinRef, ref, topic, event, payload] and pass
// through the configured codec.
//
// Usage:
//
//	cfg := config.MustValidate(config.Options{
//		"endpoint": "wss://example.com/socket/websocket",
//	})
//	sock, err := socket.New(cfg)
//	if err != nil { ... }
//	if err := sock.Connect(ctx); err != nil { ... }
//	defer sock.Close()
//
//	ch := sock.Channel("room:lobby", map[string]any{"token": token})
//	if _, err := ch.Join(ctx); err != nil { ... }
//	reply, err := ch.Push(ctx, "new_msg", map[string]any{"body": "hi"})
package socket
