package program

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
)

const (
	// ConfigSize is the length of a current config record:
	// version u8 | initialized u8 | fee_rate u8 | fee_wallet [32]byte.
	ConfigSize = 35
	// LegacyConfigSize is the unversioned record: fee_rate u8 | fee_wallet [32]byte.
	LegacyConfigSize = 33
	// ConfigVersion is the only versioned layout this program reads or writes.
	ConfigVersion = 1
	// MaxFeeRate bounds fee_rate; it is a percentage.
	MaxFeeRate = 100
)

// FeeConfig is the persisted fee configuration. FeeWallet both receives fees
// and is the only identity allowed to replace itself.
type FeeConfig struct {
	FeeRate   uint8
	FeeWallet solana.PublicKey

	legacy bool
}

// Legacy reports whether the record was read from the unversioned layout.
func (c FeeConfig) Legacy() bool { return c.legacy }

// Size is the number of bytes the record occupies when encoded.
func (c FeeConfig) Size() int {
	if c.legacy {
		return LegacyConfigSize
	}
	return ConfigSize
}

func (c FeeConfig) MarshalWithEncoder(encoder *bin.Encoder) error {
	if !c.legacy {
		if err := encoder.WriteUint8(ConfigVersion); err != nil {
			return err
		}
		if err := encoder.WriteUint8(1); err != nil {
			return err
		}
	}
	if err := encoder.WriteUint8(c.FeeRate); err != nil {
		return err
	}
	return encoder.WriteBytes(c.FeeWallet[:], false)
}

func (c *FeeConfig) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	switch remaining := decoder.Remaining(); {
	case remaining == LegacyConfigSize:
		c.legacy = true
	case remaining >= ConfigSize:
		version, err := decoder.ReadUint8()
		if err != nil {
			return err
		}
		if version != ConfigVersion {
			return fmt.Errorf("unsupported config version %d", version)
		}
		initialized, err := decoder.ReadUint8()
		if err != nil {
			return err
		}
		if initialized != 1 {
			return fmt.Errorf("config not initialized")
		}
		c.legacy = false
	default:
		return fmt.Errorf("config record is %d bytes", remaining)
	}

	rate, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	wallet, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	c.FeeRate = rate
	c.FeeWallet = solana.PublicKeyFromBytes(wallet)
	return nil
}

// DecodeFeeConfig parses and validates an account's data.
func DecodeFeeConfig(data []byte) (*FeeConfig, error) {
	var cfg FeeConfig
	if err := bin.NewBorshDecoder(data).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if cfg.FeeRate > MaxFeeRate {
		return nil, fmt.Errorf("%w: fee rate %d", ErrMalformedState, cfg.FeeRate)
	}
	return &cfg, nil
}

// EncodeFeeConfig writes cfg into dst, which must be large enough.
func EncodeFeeConfig(dst []byte, cfg FeeConfig) error {
	var buf bytes.Buffer
	if err := bin.NewBorshEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if len(dst) < buf.Len() {
		return fmt.Errorf("%w: account holds %d bytes, record needs %d", ErrMalformedState, len(dst), buf.Len())
	}
	copy(dst, buf.Bytes())
	return nil
}

// NewFeeConfig returns a current-layout record.
func NewFeeConfig(rate uint8, wallet solana.PublicKey) FeeConfig {
	return FeeConfig{FeeRate: rate, FeeWallet: wallet}
}

// holdsRecord reports whether data already decodes as a fee config. Stray
// bytes that do not form a record leave the account free to initialize.
func holdsRecord(data []byte) bool {
	_, err := DecodeFeeConfig(data)
	return err == nil
}
