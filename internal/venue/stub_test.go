package venue

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"feeproxy-go/internal/runtime"
)

type fixedEnv struct{ id solana.PublicKey }

func (e fixedEnv) ProgramID() solana.PublicKey { return e.id }
func (e fixedEnv) Slot() uint64                { return 0 }
func (e fixedEnv) Invoke(context.Context, solana.Instruction, []*runtime.AccountInfo) error {
	return errors.New("stub does not invoke")
}

func TestStubRecordsCall(t *testing.T) {
	var buf bytes.Buffer
	stub := NewStub("pump", zerolog.New(&buf))
	id := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data = binary.LittleEndian.AppendUint64(data, 950_000)
	data = append(data, 0xaa)
	accounts := []*runtime.AccountInfo{{Key: mint, Account: &runtime.Account{}}}

	if err := stub.Process(context.Background(), fixedEnv{id: id}, accounts, data); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	call, ok := stub.Last()
	if !ok {
		t.Fatalf("expected a recorded call")
	}
	if call.Amount != 950_000 || call.Selector != [8]byte{1, 2, 3, 4, 5, 6, 7, 8} {
		t.Fatalf("unexpected call %+v", call)
	}
	if !call.ProgramID.Equals(id) || len(call.Accounts) != 1 || !call.Accounts[0].Equals(mint) {
		t.Fatalf("unexpected identity in call %+v", call)
	}
	if len(call.Args) != 9 || call.Args[8] != 0xaa {
		t.Fatalf("unexpected args %v", call.Args)
	}
	if !strings.Contains(buf.String(), "pump") {
		t.Fatalf("log does not name venue: %s", buf.String())
	}
}

func TestStubFailWith(t *testing.T) {
	stub := NewStub("raydium", zerolog.Nop())
	want := errors.New("slippage")
	stub.FailWith(want)
	if err := stub.Process(context.Background(), fixedEnv{}, nil, []byte{0}); !errors.Is(err, want) {
		t.Fatalf("expected configured error, got %v", err)
	}
	stub.FailWith(nil)
	if err := stub.Process(context.Background(), fixedEnv{}, nil, nil); err != nil {
		t.Fatalf("expected success after reset, got %v", err)
	}
	if n := len(stub.Calls()); n != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", n)
	}
	stub.Reset()
	if _, ok := stub.Last(); ok {
		t.Fatalf("expected no calls after Reset")
	}
}
