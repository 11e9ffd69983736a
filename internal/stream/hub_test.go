package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/ledger"
)

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func sampleReceipt() ledger.Receipt {
	return ledger.Receipt{
		ID:           uuid.New(),
		Slot:         42,
		Status:       ledger.StatusCommitted,
		Instructions: 1,
		Invocations:  []ledger.Invocation{{Program: solana.SystemProgramID, Depth: 2}},
		Time:         time.Now().UTC(),
	}
}

func TestHubBroadcastsReceipts(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	want := sampleReceipt()
	hub.Record(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got ledger.Receipt
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != want.ID || got.Slot != 42 || !got.Invoked(solana.SystemProgramID) {
		t.Fatalf("unexpected receipt %+v", got)
	}
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)

	// Nobody listening; must not block.
	hub.Record(sampleReceipt())
	hub.Close()

	late, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	if err != nil {
		t.Fatalf("dial after close: %v", err)
	}
	defer late.Close()
	if n := hub.Clients(); n != 0 {
		t.Fatalf("closed hub accepted a subscriber: %d", n)
	}
}

func TestFollowDeliversReceipts(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan ledger.Receipt, 1)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, wsURL(server), zerolog.Nop(), func(r ledger.Receipt) { got <- r })
	}()
	waitForClients(t, hub, 1)

	want := sampleReceipt()
	hub.Record(want)
	select {
	case r := <-got:
		if r.ID != want.ID {
			t.Fatalf("expected receipt %s, got %s", want.ID, r.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for receipt")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}
