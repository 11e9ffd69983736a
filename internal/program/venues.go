package program

import solana "github.com/gagliardetto/solana-go"

// Side is the trade direction a venue instruction encodes.
type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Venue is a downstream trading program and the discriminators its own
// instructions start with.
type Venue struct {
	Name         string
	ProgramID    solana.PublicKey
	BuySelector  [8]byte
	SellSelector [8]byte
}

// Selector returns the venue discriminator for side.
func (v Venue) Selector(side Side) [8]byte {
	if side == Sell {
		return v.SellSelector
	}
	return v.BuySelector
}

var (
	PumpProgramID    = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	PumpAMMProgramID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")
	// Raydium LaunchLab.
	RaydiumProgramID = solana.MustPublicKeyFromBase58("LanMV9sAd7wArD4vJFi2qDdfnVhFxYSUg6eADduJ3uj")
)

// Anchor discriminators: sha256("global:<ix>")[:8].
var (
	anchorBuy         = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	anchorSell        = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
	anchorBuyExactIn  = [8]byte{250, 234, 13, 123, 213, 156, 19, 236}
	anchorSellExactIn = [8]byte{149, 39, 222, 155, 211, 124, 152, 26}
)

var (
	PumpVenue = Venue{
		Name:         "pump",
		ProgramID:    PumpProgramID,
		BuySelector:  anchorBuy,
		SellSelector: anchorSell,
	}
	PumpAMMVenue = Venue{
		Name:         "pump-amm",
		ProgramID:    PumpAMMProgramID,
		BuySelector:  anchorBuy,
		SellSelector: anchorSell,
	}
	RaydiumVenue = Venue{
		Name:         "raydium",
		ProgramID:    RaydiumProgramID,
		BuySelector:  anchorBuyExactIn,
		SellSelector: anchorSellExactIn,
	}
)

// Venues lists the downstream programs the router forwards to.
func Venues() []Venue {
	return []Venue{PumpVenue, PumpAMMVenue, RaydiumVenue}
}

// Route returns the venue and side a trade operation forwards to.
func (op Operation) Route() (Venue, Side, bool) {
	switch op {
	case OpPumpBuy:
		return PumpVenue, Buy, true
	case OpPumpSell:
		return PumpVenue, Sell, true
	case OpPumpAMMBuy:
		return PumpAMMVenue, Buy, true
	case OpPumpAMMSell:
		return PumpAMMVenue, Sell, true
	case OpRaydiumBuy:
		return RaydiumVenue, Buy, true
	case OpRaydiumSell:
		return RaydiumVenue, Sell, true
	default:
		return Venue{}, 0, false
	}
}
