package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sockline/sockline/pkg/config"
	"github.com/sockline/sockline/pkg/socket"
)

var (
	connectHeaders   []string
	connectCodec     string
	connectHeartbeat int
	connectTopic     string
	connectParams    string
	connectTimeout   time.Duration
)

// connectCmd is the Cobra command for "sockline connect".
var connectCmd = &cobra.Command{
	Use:   "connect <url>",
	Short: "Connect to a channel server and stream messages",
	Long: `Validate the options built from the flags, connect to the endpoint,
optionally join a topic, and print every message pushed on it. Ctrl+C to exit.

Examples:
  sockline connect ws://localhost:4000/socket/websocket
  sockline connect --topic room:lobby wss://example.com/socket/websocket
  sockline connect -H "Authorization: Bearer token" ws://localhost:4000/socket/websocket`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runConnect(args[0])
	},
}

func init() {
	connectCmd.Flags().StringArrayVarP(&connectHeaders, "header", "H", nil, "Handshake headers (\"Name: Value\"), repeatable")
	connectCmd.Flags().StringVar(&connectCodec, "codec", "", "Codec identifier (default: json)")
	connectCmd.Flags().IntVar(&connectHeartbeat, "heartbeat", -1, "Heartbeat interval in milliseconds (0 disables)")
	connectCmd.Flags().StringVar(&connectTopic, "topic", "", "Topic to join after connecting")
	connectCmd.Flags().StringVar(&connectParams, "params", "", "Join params as a JSON object")
	connectCmd.Flags().DurationVarP(&connectTimeout, "timeout", "t", 30*time.Second, "Connect and join timeout")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(endpoint string) error {
	opts := config.Options{"endpoint": endpoint}

	if len(connectHeaders) > 0 {
		pairs := make([][2]string, 0, len(connectHeaders))
		for _, h := range connectHeaders {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				return fmt.Errorf("invalid header %q: expected \"Name: Value\"", h)
			}
			pairs = append(pairs, [2]string{strings.TrimSpace(name), strings.TrimSpace(value)})
		}
		opts["headers"] = pairs
	}
	if connectCodec != "" {
		opts["jsonCodec"] = connectCodec
	}
	if connectHeartbeat >= 0 {
		opts["heartbeatIntervalMillis"] = connectHeartbeat
	}

	cfg, err := config.Validate(opts)
	if err != nil {
		return err
	}

	sock, err := socket.New(cfg, socket.WithLogger(newLogger()))
	if err != nil {
		return err
	}
	defer sock.Close()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	err = sock.Connect(ctx)
	cancel()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Connected to %s\n", cfg.Endpoint)

	if connectTopic == "" {
		// No topic: stay connected (heartbeats keep flowing) until Ctrl+C.
		waitForSignal()
		return nil
	}

	var params any
	if connectParams != "" {
		if err := json.Unmarshal([]byte(connectParams), &params); err != nil {
			return fmt.Errorf("invalid --params: %w", err)
		}
	}

	ch := sock.Channel(connectTopic, params)
	ctx, cancel = context.WithTimeout(context.Background(), connectTimeout)
	_, err = ch.Join(ctx)
	cancel()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Joined %s (Ctrl+C to exit)\n", connectTopic)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nDisconnecting...")
			leaveCtx, leaveCancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = ch.Leave(leaveCtx)
			leaveCancel()
			return nil
		case msg := <-ch.Messages():
			out, err := json.Marshal(msg.Payload)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to encode payload: %v\n", err)
				continue
			}
			fmt.Printf("%s %s\n", msg.Event, out)
		}
	}
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Fprintln(os.Stderr, "\nDisconnecting...")
}
