package ledger

import (
	"bytes"
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"feeproxy-go/internal/runtime"
)

// execution is the working set of one transaction. Accounts are cloned from the
// bank on first touch and only copied back when the whole transaction succeeds.
type execution struct {
	bank        *Bank
	signers     map[solana.PublicKey]struct{}
	working     map[solana.PublicKey]*runtime.Account
	invocations []Invocation
}

func newExecution(b *Bank, signers []solana.PublicKey) *execution {
	set := make(map[solana.PublicKey]struct{}, len(signers))
	for _, s := range signers {
		set[s] = struct{}{}
	}
	return &execution{
		bank:    b,
		signers: set,
		working: make(map[solana.PublicKey]*runtime.Account),
	}
}

func (e *execution) load(key solana.PublicKey) *runtime.Account {
	if acct, ok := e.working[key]; ok {
		return acct
	}
	acct := e.bank.accounts[key].Clone()
	if acct == nil {
		acct = &runtime.Account{Owner: solana.SystemProgramID}
	}
	e.working[key] = acct
	return acct
}

func (e *execution) execute(ctx context.Context, ix solana.Instruction) error {
	metas := ix.Accounts()
	infos := make([]*runtime.AccountInfo, len(metas))
	for i, meta := range metas {
		if _, ok := e.signers[meta.PublicKey]; meta.IsSigner && !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, meta.PublicKey)
		}
		infos[i] = &runtime.AccountInfo{
			Key:        meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    e.load(meta.PublicKey),
		}
	}
	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("encode instruction: %w", err)
	}
	return e.dispatch(ctx, ix.ProgramID(), infos, data, 1)
}

func (e *execution) dispatch(ctx context.Context, programID solana.PublicKey, infos []*runtime.AccountInfo, data []byte, depth int) error {
	if depth > MaxInvokeDepth {
		return fmt.Errorf("%w: %d", ErrCallDepth, depth)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.invocations = append(e.invocations, Invocation{Program: programID, Depth: depth})

	if programID.Equals(solana.SystemProgramID) {
		return systemProgram(infos, data)
	}
	prog, ok := e.bank.programs[programID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, programID)
	}

	guard := snapshotAccounts(infos)
	env := &txEnv{exec: e, programID: programID, depth: depth}
	if err := prog.Process(ctx, env, infos, data); err != nil {
		return err
	}
	return guard.verify(infos)
}

// txEnv is what a running program sees of the host.
type txEnv struct {
	exec      *execution
	programID solana.PublicKey
	depth     int
}

func (t *txEnv) ProgramID() solana.PublicKey { return t.programID }

func (t *txEnv) Slot() uint64 { return t.exec.bank.slot }

// Invoke runs a nested instruction. The callee may not gain a signer or
// writable privilege the caller did not hold.
func (t *txEnv) Invoke(ctx context.Context, ix solana.Instruction, accounts []*runtime.AccountInfo) error {
	metas := ix.Accounts()
	callee := make([]*runtime.AccountInfo, len(metas))
	for i, meta := range metas {
		caller := findAccount(accounts, meta.PublicKey)
		if caller == nil {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, meta.PublicKey)
		}
		if (meta.IsSigner && !caller.IsSigner) || (meta.IsWritable && !caller.IsWritable) {
			return fmt.Errorf("%w: %s", ErrPrivilegeEscalation, meta.PublicKey)
		}
		callee[i] = &runtime.AccountInfo{
			Key:        meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    caller.Account,
		}
	}
	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("encode instruction: %w", err)
	}
	return t.exec.dispatch(ctx, ix.ProgramID(), callee, data, t.depth+1)
}

func findAccount(accounts []*runtime.AccountInfo, key solana.PublicKey) *runtime.AccountInfo {
	var found *runtime.AccountInfo
	for _, acct := range accounts {
		if !acct.Key.Equals(key) {
			continue
		}
		if found == nil {
			found = acct
			continue
		}
		// The same key may be passed more than once; privileges are the union.
		if acct.IsSigner || acct.IsWritable {
			merged := *found
			merged.IsSigner = merged.IsSigner || acct.IsSigner
			merged.IsWritable = merged.IsWritable || acct.IsWritable
			found = &merged
		}
	}
	return found
}

func systemProgram(infos []*runtime.AccountInfo, data []byte) error {
	metas := make([]*solana.AccountMeta, len(infos))
	for i, info := range infos {
		metas[i] = &solana.AccountMeta{PublicKey: info.Key, IsSigner: info.IsSigner, IsWritable: info.IsWritable}
	}
	inst, err := system.DecodeInstruction(metas, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSystemIx, err)
	}
	transfer, ok := inst.Impl.(*system.Transfer)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedSystemIx, inst.Impl)
	}
	if len(infos) < 2 || transfer.Lamports == nil {
		return fmt.Errorf("%w: malformed transfer", ErrUnsupportedSystemIx)
	}
	from, to := infos[0], infos[1]
	if !from.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingSignature, from.Key)
	}
	if !from.IsWritable || !to.IsWritable {
		return fmt.Errorf("%w: transfer accounts must be writable", ErrReadonlyModified)
	}
	lamports := *transfer.Lamports
	if from.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientLamports, from.Key, from.Lamports, lamports)
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

// accountGuard holds what a program started with so the host can reject
// changes it was not entitled to make.
type accountGuard struct {
	total    uint64
	readonly map[solana.PublicKey]runtime.Account
}

func snapshotAccounts(infos []*runtime.AccountInfo) accountGuard {
	g := accountGuard{readonly: make(map[solana.PublicKey]runtime.Account)}
	writable := writableKeys(infos)
	seen := make(map[solana.PublicKey]struct{}, len(infos))
	for _, info := range infos {
		if _, ok := seen[info.Key]; ok {
			continue
		}
		seen[info.Key] = struct{}{}
		g.total += info.Lamports
		if _, ok := writable[info.Key]; !ok {
			g.readonly[info.Key] = *info.Account.Clone()
		}
	}
	return g
}

func (g accountGuard) verify(infos []*runtime.AccountInfo) error {
	var total uint64
	seen := make(map[solana.PublicKey]struct{}, len(infos))
	for _, info := range infos {
		if _, ok := seen[info.Key]; ok {
			continue
		}
		seen[info.Key] = struct{}{}
		total += info.Lamports
		if before, ok := g.readonly[info.Key]; ok {
			if before.Lamports != info.Lamports || !bytes.Equal(before.Data, info.Data) {
				return fmt.Errorf("%w: %s", ErrReadonlyModified, info.Key)
			}
		}
	}
	if total != g.total {
		return fmt.Errorf("%w: %d before, %d after", ErrUnbalanced, g.total, total)
	}
	return nil
}

func writableKeys(infos []*runtime.AccountInfo) map[solana.PublicKey]struct{} {
	out := make(map[solana.PublicKey]struct{})
	for _, info := range infos {
		if info.IsWritable {
			out[info.Key] = struct{}{}
		}
	}
	return out
}
