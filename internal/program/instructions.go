package program

import (
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// TradeAccounts are the router-owned accounts in front of every trade.
type TradeAccounts struct {
	Config      solana.PublicKey
	FeePayer    solana.PublicKey
	FeeReceiver solana.PublicKey
}

// NewTradeInstruction builds a router call for a trade operation. venueArgs is
// the venue's own argument block, starting with the u64 amount the router
// rewrites; amount is what the fee is charged on.
func NewTradeInstruction(programID solana.PublicKey, op Operation, accounts TradeAccounts, venueAccounts solana.AccountMetaSlice, amount uint64, venueArgs []byte) (*solana.GenericInstruction, error) {
	if !op.IsTrade() {
		return nil, fmt.Errorf("%s is not a trade operation", op)
	}
	if len(venueArgs) < amountLen {
		return nil, fmt.Errorf("venue args are %d bytes, need at least %d", len(venueArgs), amountLen)
	}
	code, _ := op.Opcode()
	data := make([]byte, 0, OpcodeLen+amountLen+len(venueArgs))
	data = append(data, code[:]...)
	data = binary.LittleEndian.AppendUint64(data, amount)
	data = append(data, venueArgs...)

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(accounts.Config, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(accounts.FeePayer, true, true),
		solana.NewAccountMeta(accounts.FeeReceiver, true, false),
	}
	metas = append(metas, venueAccounts...)
	return solana.NewInstruction(programID, metas, data), nil
}

// NewInitializeInstruction builds the one-time config bootstrap.
func NewInitializeInstruction(programID, config, admin solana.PublicKey, feeRate uint8) *solana.GenericInstruction {
	data := append(append([]byte(nil), InitializeConfigOpcode[:]...), feeRate)
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(config, true, false),
		solana.NewAccountMeta(admin, false, true),
	}, data)
}

// NewRotateFeeWalletInstruction builds a fee wallet rotation signed by the current wallet.
func NewRotateFeeWalletInstruction(programID, config, currentWallet, newWallet solana.PublicKey) *solana.GenericInstruction {
	data := make([]byte, 0, OpcodeLen+solana.PublicKeyLength)
	data = append(data, RotateFeeWalletOpcode[:]...)
	data = append(data, newWallet[:]...)
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(config, true, false),
		solana.NewAccountMeta(currentWallet, false, true),
	}, data)
}

// NewCreateAssociatedAccountInstruction routes an idempotent associated token
// account creation through the router.
func NewCreateAssociatedAccountInstruction(programID, payer, wallet, mint solana.PublicKey) (*solana.GenericInstruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated account: %w", err)
	}
	data := append(append([]byte(nil), CreateAssociatedAccountOpcode[:]...), ataCreateIdempotent)
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(ata, true, false),
		solana.NewAccountMeta(wallet, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}, data), nil
}

// NewCheckExpiryInstruction fails the transaction once lastValidSlot has passed.
func NewCheckExpiryInstruction(programID solana.PublicKey, lastValidSlot uint64) *solana.GenericInstruction {
	data := binary.LittleEndian.AppendUint64(append([]byte(nil), CheckExpiryOpcode[:]...), lastValidSlot)
	return solana.NewInstruction(programID, solana.AccountMetaSlice{}, data)
}
