// Package program is the fee-proxy router: it dispatches on an 8-byte opcode,
// skims a percentage fee in lamports from trades before forwarding them to
// their venue, and manages the fee configuration record.
package program

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"feeproxy-go/internal/metrics"
	"feeproxy-go/internal/runtime"
)

// Processor executes router instructions. It holds no state between calls.
type Processor struct {
	log zerolog.Logger
}

// NewProcessor wraps a logger for instruction processing.
func NewProcessor(log zerolog.Logger) *Processor {
	return &Processor{log: log.With().Str("component", "router").Logger()}
}

// Process is the router's single entry point.
func (p *Processor) Process(ctx context.Context, env runtime.Env, accounts []*runtime.AccountInfo, data []byte) error {
	if len(data) < OpcodeLen {
		metrics.CallsTotal.WithLabelValues("none", resultLabel(ErrMalformedPayload)).Inc()
		return fmt.Errorf("%w: instruction is %d bytes, opcode needs %d", ErrMalformedPayload, len(data), OpcodeLen)
	}
	var code Opcode
	copy(code[:], data[:OpcodeLen])
	op, ok := LookupOperation(code)
	if !ok {
		metrics.CallsTotal.WithLabelValues("unknown", resultLabel(ErrUnknownOperation)).Inc()
		p.log.Warn().Hex("opcode", code[:]).Msg("unknown opcode")
		return fmt.Errorf("%w: opcode %v", ErrUnknownOperation, code)
	}

	p.log.Debug().Str("op", op.String()).Int("accounts", len(accounts)).Int("payload", len(data)-OpcodeLen).Msg("dispatch")
	err := p.dispatch(ctx, env, op, accounts, data[OpcodeLen:])
	metrics.CallsTotal.WithLabelValues(op.String(), resultLabel(err)).Inc()
	if err != nil {
		p.log.Warn().Err(err).Str("op", op.String()).Msg("instruction rejected")
	}
	return err
}

func (p *Processor) dispatch(ctx context.Context, env runtime.Env, op Operation, accounts []*runtime.AccountInfo, payload []byte) error {
	switch op {
	case OpPumpBuy, OpPumpSell, OpPumpAMMBuy, OpPumpAMMSell, OpRaydiumBuy, OpRaydiumSell:
		venue, side, _ := op.Route()
		return p.proxyTrade(ctx, env, accounts, payload, venue, side)
	case OpCreateAssociatedAccount:
		return createAssociatedAccount(ctx, env, accounts, payload)
	case OpCheckExpiry:
		return checkExpiry(env, payload)
	case OpInitializeConfig:
		return p.initializeConfig(env, accounts, payload)
	case OpRotateFeeWallet:
		return p.rotateFeeWallet(env, accounts, payload)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var pe *ProgramError
	if errors.As(err, &pe) {
		return strings.ReplaceAll(pe.Name, " ", "_")
	}
	return "downstream_error"
}
