package config

// Cluster defines the RPC endpoint the client talks to.
type Cluster struct {
	RpcURL     string `yaml:"rpc_url"`
	Commitment string `yaml:"commitment"` // processed|confirmed|finalized
	// PollInterval paces config watching.
	PollInterval int `yaml:"poll_interval_ms"`
}

// Program names a router deployment and its fee config account.
type Program struct {
	ID            string `yaml:"id"`
	ConfigAccount string `yaml:"config_account"`
}

// Wallet says where signing material comes from. KeyEnv names an environment
// variable holding a base58 key; KeypairPath is a solana-keygen JSON file used
// when the variable is unset.
type Wallet struct {
	KeyEnv      string `yaml:"key_env"`
	KeypairPath string `yaml:"keypair_path"`
}
