package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// ErrNoKey means neither the environment nor a keypair file supplied a key.
var ErrNoKey = errors.New("no signing key configured")

// LoadPrivateKey reads a base58 key from envVar, loading .env first, and falls
// back to a solana-keygen JSON file at path.
func LoadPrivateKey(envVar, path string) (solana.PrivateKey, error) {
	_ = godotenv.Load() // best-effort
	if envVar != "" {
		if b58 := os.Getenv(envVar); b58 != "" {
			key, err := solana.PrivateKeyFromBase58(b58)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", envVar, err)
			}
			return key, nil
		}
	}
	if path == "" {
		return nil, ErrNoKey
	}
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("keypair %s: %w", path, err)
	}
	return key, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
