package program

import "fmt"

// Operation enumerates every instruction the router accepts.
type Operation uint8

const (
	OpPumpBuy Operation = iota + 1
	OpPumpAMMBuy
	OpPumpSell
	OpPumpAMMSell
	OpRaydiumBuy
	OpRaydiumSell
	OpCreateAssociatedAccount
	OpCheckExpiry
	OpInitializeConfig
	OpRotateFeeWallet
)

// OpcodeLen is the size of the leading discriminator on every call.
const OpcodeLen = 8

// Opcode is the 8-byte prefix selecting an operation.
type Opcode [OpcodeLen]byte

func opcodeFromString(s string) Opcode {
	var out Opcode
	if len(s) != OpcodeLen {
		panic(fmt.Sprintf("opcode %q is not %d bytes", s, OpcodeLen))
	}
	copy(out[:], s)
	return out
}

var (
	PumpBuyOpcode     = Opcode{82, 225, 119, 231, 78, 29, 45, 70}
	PumpAMMBuyOpcode  = Opcode{129, 59, 179, 195, 110, 135, 61, 2}
	PumpSellOpcode    = Opcode{83, 225, 119, 231, 78, 29, 45, 70}
	PumpAMMSellOpcode = Opcode{130, 59, 179, 195, 110, 135, 61, 2}

	RaydiumBuyOpcode  = opcodeFromString("ray_buy\x00")
	RaydiumSellOpcode = opcodeFromString("ray_sell")

	CreateAssociatedAccountOpcode = opcodeFromString("crt_ata\x00")
	CheckExpiryOpcode             = opcodeFromString("exp_slot")
	InitializeConfigOpcode        = opcodeFromString("init_cfg")
	RotateFeeWalletOpcode         = opcodeFromString("set_fee\x00")
)

type opcodeEntry struct {
	code Opcode
	op   Operation
	name string
}

// opcodeTable is scanned in order; the order is part of the contract.
var opcodeTable = [...]opcodeEntry{
	{PumpBuyOpcode, OpPumpBuy, "pump-buy"},
	{PumpAMMBuyOpcode, OpPumpAMMBuy, "pump-amm-buy"},
	{PumpSellOpcode, OpPumpSell, "pump-sell"},
	{PumpAMMSellOpcode, OpPumpAMMSell, "pump-amm-sell"},
	{CreateAssociatedAccountOpcode, OpCreateAssociatedAccount, "create-associated-account"},
	{CheckExpiryOpcode, OpCheckExpiry, "check-expiry"},
	{RaydiumBuyOpcode, OpRaydiumBuy, "raydium-buy"},
	{RaydiumSellOpcode, OpRaydiumSell, "raydium-sell"},
	{InitializeConfigOpcode, OpInitializeConfig, "initialize-config"},
	{RotateFeeWalletOpcode, OpRotateFeeWallet, "rotate-fee-wallet"},
}

func init() {
	if err := validateOpcodeTable(); err != nil {
		panic(err)
	}
}

func validateOpcodeTable() error {
	seenCode := make(map[Opcode]Operation, len(opcodeTable))
	seenOp := make(map[Operation]struct{}, len(opcodeTable))
	for _, entry := range opcodeTable {
		if prev, ok := seenCode[entry.code]; ok {
			return fmt.Errorf("opcode %v shared by %s and %s", entry.code, prev, entry.op)
		}
		if _, ok := seenOp[entry.op]; ok {
			return fmt.Errorf("operation %s listed twice", entry.op)
		}
		seenCode[entry.code] = entry.op
		seenOp[entry.op] = struct{}{}
	}
	return nil
}

// LookupOperation finds the operation whose opcode equals code.
func LookupOperation(code Opcode) (Operation, bool) {
	for _, entry := range opcodeTable {
		if entry.code == code {
			return entry.op, true
		}
	}
	return 0, false
}

// Opcode returns the wire discriminator for op.
func (op Operation) Opcode() (Opcode, bool) {
	for _, entry := range opcodeTable {
		if entry.op == op {
			return entry.code, true
		}
	}
	return Opcode{}, false
}

func (op Operation) String() string {
	for _, entry := range opcodeTable {
		if entry.op == op {
			return entry.name
		}
	}
	return fmt.Sprintf("operation(%d)", uint8(op))
}

// ParseOperation maps a name as printed by String back to the operation.
func ParseOperation(name string) (Operation, error) {
	for _, entry := range opcodeTable {
		if entry.name == name {
			return entry.op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// Operations lists every operation in table order.
func Operations() []Operation {
	out := make([]Operation, len(opcodeTable))
	for i, entry := range opcodeTable {
		out[i] = entry.op
	}
	return out
}

// IsTrade reports whether op goes through the fee proxy.
func (op Operation) IsTrade() bool {
	_, _, ok := op.Route()
	return ok
}
