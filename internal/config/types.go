package config

// Config holds all w3mint configuration.
type Config struct {
	APIHost        string              `json:"api_host"`
	TestAPIHost    string              `json:"test_api_host"`
	Mode           string              `json:"mode"` // "prod" | "test"
	DefaultWallet  string              `json:"default_wallet"`
	WalletChainID  int64               `json:"wallet_chain_id"` // chain the local wallet starts on; 0 = project chain
	PollIntervalMS int                 `json:"poll_interval_ms"`
	MaxPollSeconds int                 `json:"max_poll_seconds"` // 0 = until cancelled
	CustomRPCs     map[string][]string `json:"custom_rpcs"`      // chain name -> URLs
	RPCAlgorithm   string              `json:"rpc_algorithm"`    // "failover" | "fastest" | "round-robin"
	Currency       string              `json:"currency"`         // fiat for price estimates; "" = none

	// internal: config dir path used for Save()
	configDir string
}
