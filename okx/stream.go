package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"turtlebot/market"
)

// pingInterval keeps the OKX connection alive; the server drops idle
// sockets after 30 seconds.
const pingInterval = 25 * time.Second

// Stream subscribes to the public tickers channel and delivers decoded
// ticks to a handler callback.
type Stream struct {
	URL    string
	Dialer *websocket.Dialer
	Log    *log.Logger
}

// NewStream returns a stream for url (DefaultWSURL when empty).
func NewStream(url string) *Stream {
	if url == "" {
		url = DefaultWSURL
	}
	return &Stream{URL: url, Dialer: websocket.DefaultDialer}
}

type subscribeRequest struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// Run connects, subscribes to tickers for the given symbols, and calls
// handle for every decoded tick. It blocks until ctx is cancelled or
// the socket fails; a clean cancellation returns ctx.Err().
func (s *Stream) Run(ctx context.Context, symbols []string, handle func(market.Ticker)) error {
	conn, _, err := s.Dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.URL, err)
	}
	defer conn.Close()

	// Writes come from both the subscribe call and the ping loop.
	var writeMu sync.Mutex
	writeText := func(v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, payload)
	}

	args := make([]subscribeArg, 0, len(symbols))
	for _, sym := range symbols {
		args = append(args, subscribeArg{Channel: "tickers", InstID: sym})
	}
	if err := writeText(subscribeRequest{Op: "subscribe", Args: args}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	// Unblock the read loop when ctx is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := writeText(map[string]string{"op": "ping"}); err != nil {
					if s.Log != nil {
						s.Log.Printf("ping failed: %v", err)
					}
					return
				}
			case <-stop:
				return
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		// The server answers pings with a bare "pong".
		if string(payload) == "pong" {
			continue
		}

		var env wsEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			if s.Log != nil {
				s.Log.Printf("skip malformed message: %v", err)
			}
			continue
		}

		if env.Event != "" || env.Arg.Channel != "tickers" {
			continue // subscribe ack or other control message
		}

		for _, raw := range env.Data {
			tick, ok := raw.toTicker()
			if !ok {
				continue
			}
			handle(tick)
		}
	}
}
