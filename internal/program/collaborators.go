package program

import (
	"context"
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	"feeproxy-go/internal/runtime"
)

// Associated token account program instruction tags.
const (
	ataCreate           byte = 0
	ataCreateIdempotent byte = 1
)

// createAssociatedAccount passes the caller's accounts through to the
// associated token account program unchanged.
func createAssociatedAccount(ctx context.Context, env runtime.Env, accounts []*runtime.AccountInfo, payload []byte) error {
	tag := ataCreateIdempotent
	if len(payload) > 0 {
		tag = payload[0]
	}
	if tag != ataCreate && tag != ataCreateIdempotent {
		return fmt.Errorf("%w: associated account instruction %d", ErrMalformedPayload, tag)
	}
	ix := solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, ToAccountMetas(accounts), []byte{tag})
	return env.Invoke(ctx, ix, accounts)
}

// checkExpiry fails once the current slot is past the caller's last valid slot.
func checkExpiry(env runtime.Env, payload []byte) error {
	if len(payload) < 8 {
		return fmt.Errorf("%w: expiry needs a u64 slot, got %d bytes", ErrMalformedPayload, len(payload))
	}
	lastValid := binary.LittleEndian.Uint64(payload[:8])
	if current := env.Slot(); current > lastValid {
		return fmt.Errorf("%w: slot %d is past %d", ErrSlotExpired, current, lastValid)
	}
	return nil
}
