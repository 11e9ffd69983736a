// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a config that loaded but cannot be used.
var ErrInvalid = errors.New("invalid config")

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string
	Env         string
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	PrettyLogs  bool   `yaml:"pretty_logs"`
}

// SimAccount is a named, pre-funded identity in the simulator.
type SimAccount struct {
	Name     string `yaml:"name"`
	Lamports uint64 `yaml:"lamports"`
}

// Step is one scenario transaction. Account fields name SimAccounts.
type Step struct {
	Name          string `yaml:"name"`
	Op            string `yaml:"op"`
	Signer        string `yaml:"signer"`
	Receiver      string `yaml:"receiver"`
	Amount        uint64 `yaml:"amount"`
	NewWallet     string `yaml:"new_wallet"`
	LastValidSlot uint64 `yaml:"last_valid_slot"`
	// VenueError makes the target venue fail this step with the given message.
	VenueError   string `yaml:"venue_error"`
	AdvanceSlots uint64 `yaml:"advance_slots"`
	// ExpectError is the router error name the step should fail with.
	ExpectError string `yaml:"expect_error"`
}

// Sim configures the in-process simulator.
type Sim struct {
	Slot         uint64       `yaml:"slot"`
	FeeRate      uint8        `yaml:"fee_rate"`
	Admin        string       `yaml:"admin"`
	ReceiptsPath string       `yaml:"receipts_path"`
	StreamAddr   string       `yaml:"stream_addr"`
	JournalSize  int          `yaml:"journal_size"`
	Accounts     []SimAccount `yaml:"accounts"`
	Scenario     []Step       `yaml:"scenario"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Cluster Cluster `yaml:"cluster"`
	Program Program `yaml:"program"`
	Wallet  Wallet  `yaml:"wallet"`
	Sim     Sim     `yaml:"sim"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks fields whose bad values would only surface mid-run.
func (c *Config) Validate() error {
	switch c.Cluster.Commitment {
	case "", "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: commitment %q", ErrInvalid, c.Cluster.Commitment)
	}
	for field, value := range map[string]string{
		"program.id":             c.Program.ID,
		"program.config_account": c.Program.ConfigAccount,
	} {
		if value == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
		}
	}
	if c.Sim.FeeRate > 100 {
		return fmt.Errorf("%w: sim.fee_rate %d above 100", ErrInvalid, c.Sim.FeeRate)
	}
	names := make(map[string]struct{}, len(c.Sim.Accounts))
	for _, acct := range c.Sim.Accounts {
		if acct.Name == "" {
			return fmt.Errorf("%w: sim account without a name", ErrInvalid)
		}
		if _, dup := names[acct.Name]; dup {
			return fmt.Errorf("%w: sim account %q listed twice", ErrInvalid, acct.Name)
		}
		names[acct.Name] = struct{}{}
	}
	known := func(name string) bool {
		_, ok := names[name]
		return name == "" || ok
	}
	if c.Sim.Admin != "" && !known(c.Sim.Admin) {
		return fmt.Errorf("%w: sim.admin %q is not a sim account", ErrInvalid, c.Sim.Admin)
	}
	for i, step := range c.Sim.Scenario {
		if step.Op == "" {
			return fmt.Errorf("%w: scenario step %d has no op", ErrInvalid, i)
		}
		for _, ref := range []string{step.Signer, step.Receiver, step.NewWallet} {
			if !known(ref) {
				return fmt.Errorf("%w: scenario step %d names unknown account %q", ErrInvalid, i, ref)
			}
		}
	}
	return nil
}
