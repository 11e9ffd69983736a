package stream

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/ledger"
)

// Follow reads receipts from a hub at url and hands each to fn, reconnecting
// with backoff until ctx ends.
func Follow(ctx context.Context, url string, log zerolog.Logger, fn func(ledger.Receipt)) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := consume(ctx, url, log, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Str("url", url).Msg("receipt stream disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
	}
}

func consume(ctx context.Context, url string, log zerolog.Logger, fn func(ledger.Receipt)) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info().Str("url", url).Msg("following receipt stream")

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadLimit(1 << 20)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var receipt ledger.Receipt
		if err := json.Unmarshal(message, &receipt); err != nil {
			log.Warn().Err(err).Msg("failed to decode receipt")
			continue
		}
		fn(receipt)
	}
}
