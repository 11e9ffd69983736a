package program

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"

	"feeproxy-go/internal/runtime"
)

// ToAccountMeta keeps the identity and both privilege flags of info.
func ToAccountMeta(info *runtime.AccountInfo) *solana.AccountMeta {
	return &solana.AccountMeta{
		PublicKey:  info.Key,
		IsSigner:   info.IsSigner,
		IsWritable: info.IsWritable,
	}
}

// ToAccountMetas converts infos one to one. Order and duplicates are kept.
func ToAccountMetas(infos []*runtime.AccountInfo) solana.AccountMetaSlice {
	metas := make(solana.AccountMetaSlice, 0, len(infos))
	for _, info := range infos {
		metas = append(metas, ToAccountMeta(info))
	}
	return metas
}

func requireAccounts(accounts []*runtime.AccountInfo, n int, what string) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: %s needs %d accounts, got %d", ErrNotEnoughAccounts, what, n, len(accounts))
	}
	return nil
}

// loadConfig reads the fee config from an account the running program owns.
func loadConfig(env runtime.Env, account *runtime.AccountInfo) (*FeeConfig, error) {
	if !account.Owner.Equals(env.ProgramID()) {
		return nil, fmt.Errorf("%w: config %s owned by %s", ErrMalformedState, account.Key, account.Owner)
	}
	return DecodeFeeConfig(account.Data)
}
