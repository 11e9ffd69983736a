package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"feeproxy-go/internal/program"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// rpcServer answers JSON-RPC calls with whatever handle returns for the method.
func rpcServer(t *testing.T, handle func(method string, params []json.RawMessage) any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req.Method, req.Params),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func accountResult(owner solana.PublicKey, data []byte) any {
	return map[string]any{
		"context": map[string]any{"slot": 1},
		"value": map[string]any{
			"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
			"executable": false,
			"lamports":   1_000_000,
			"owner":      owner.String(),
			"rentEpoch":  0,
		},
	}
}

func encodedConfig(t *testing.T, rate uint8, wallet solana.PublicKey) []byte {
	t.Helper()
	data := make([]byte, program.ConfigSize)
	if err := program.EncodeFeeConfig(data, program.NewFeeConfig(rate, wallet)); err != nil {
		t.Fatalf("encode config: %v", err)
	}
	return data
}

func TestNewClientCommit(t *testing.T) {
	wallet := solana.NewWallet()
	for commit, want := range map[string]rpc.CommitmentType{
		"processed": rpc.CommitmentProcessed,
		"finalized": rpc.CommitmentFinalized,
		"":          rpc.CommitmentConfirmed,
	} {
		client := NewClient("https://rpc", program.PumpProgramID, wallet.PrivateKey, commit)
		if client.Commit != want {
			t.Fatalf("%q: expected %s commitment, got %s", commit, want, client.Commit)
		}
	}
}

func TestFetchConfig(t *testing.T) {
	router := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()
	server := rpcServer(t, func(method string, _ []json.RawMessage) any {
		if method != "getAccountInfo" {
			t.Errorf("unexpected method %s", method)
		}
		return accountResult(router, encodedConfig(t, 5, wallet))
	})

	client := NewClient(server.URL, router, solana.NewWallet().PrivateKey, "processed")
	cfg, err := client.FetchConfig(context.Background(), solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("FetchConfig returned error: %v", err)
	}
	if cfg.FeeRate != 5 || !cfg.FeeWallet.Equals(wallet) {
		t.Fatalf("unexpected config %+v", cfg)
	}

	client.ProgramID = solana.NewWallet().PublicKey()
	if _, err := client.FetchConfig(context.Background(), solana.NewWallet().PublicKey()); !errors.Is(err, program.ErrMalformedState) {
		t.Fatalf("expected foreign owner to be refused, got %v", err)
	}
}

func TestFetchConfigMissing(t *testing.T) {
	server := rpcServer(t, func(string, []json.RawMessage) any {
		return map[string]any{"context": map[string]any{"slot": 1}, "value": nil}
	})
	client := NewClient(server.URL, solana.NewWallet().PublicKey(), solana.NewWallet().PrivateKey, "")
	if _, err := client.FetchConfig(context.Background(), solana.NewWallet().PublicKey()); !errors.Is(err, ErrAccountMissing) {
		t.Fatalf("expected missing account, got %v", err)
	}
}

func TestSendSignsAndSubmits(t *testing.T) {
	owner := solana.NewWallet()
	router := solana.NewWallet().PublicKey()
	config := solana.NewWallet().PublicKey()
	next := solana.NewWallet().PublicKey()
	blockhash := solana.NewWallet().PublicKey()
	want := solana.Signature{1, 2, 3}

	var sent *solana.Transaction
	server := rpcServer(t, func(method string, params []json.RawMessage) any {
		switch method {
		case "getLatestBlockhash":
			return map[string]any{
				"context": map[string]any{"slot": 1},
				"value":   map[string]any{"blockhash": blockhash.String(), "lastValidBlockHeight": 100},
			}
		case "sendTransaction":
			var encoded string
			if err := json.Unmarshal(params[0], &encoded); err != nil {
				t.Errorf("decode tx param: %v", err)
				return nil
			}
			raw, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				t.Errorf("decode tx base64: %v", err)
				return nil
			}
			tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
			if err != nil {
				t.Errorf("unmarshal tx: %v", err)
				return nil
			}
			sent = tx
			return want.String()
		default:
			t.Errorf("unexpected method %s", method)
			return nil
		}
	})

	client := NewClient(server.URL, router, owner.PrivateKey, "confirmed")
	sig, err := client.Send(context.Background(), program.NewRotateFeeWalletInstruction(router, config, owner.PublicKey(), next))
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if sig != want {
		t.Fatalf("expected signature %s, got %s", want, sig)
	}
	if sent == nil || len(sent.Signatures) != 1 {
		t.Fatalf("expected one signed transaction, got %+v", sent)
	}
	if err := sent.VerifySignatures(); err != nil {
		t.Fatalf("signature does not verify: %v", err)
	}
	if !sent.Message.AccountKeys[0].Equals(owner.PublicKey()) {
		t.Fatalf("owner is not fee payer: %s", sent.Message.AccountKeys[0])
	}
	if sent.Message.RecentBlockhash != solana.Hash(blockhash) {
		t.Fatalf("blockhash not used: %s", sent.Message.RecentBlockhash)
	}
}

func TestWatchConfigReportsChanges(t *testing.T) {
	router := solana.NewWallet().PublicKey()
	first, second := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	var mu sync.Mutex
	calls := 0
	server := rpcServer(t, func(string, []json.RawMessage) any {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return accountResult(router, encodedConfig(t, 5, first))
		}
		return accountResult(router, encodedConfig(t, 5, second))
	})

	client := NewClient(server.URL, router, solana.NewWallet().PrivateKey, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var seen []solana.PublicKey
	err := client.WatchConfig(ctx, solana.NewWallet().PublicKey(), 10*time.Millisecond, func(cfg *program.FeeConfig) {
		seen = append(seen, cfg.FeeWallet)
		if len(seen) == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(seen) != 2 || !seen[0].Equals(first) || !seen[1].Equals(second) {
		t.Fatalf("expected one report per distinct config, got %v", seen)
	}
}
