package config

import "time"

// API modes.
const (
	ModeProd = "prod"
	ModeTest = "test"
)

// Timeouts used by the cmd package.
const (
	ProjectFetchTimeout = 20 * time.Second // GET /api/nft/{slug}
	ConnectTimeout      = 30 * time.Second // wallet connect incl. chain switch
	StatusTimeout       = 30 * time.Second // read-only sale queries
	ENSLookupTimeout    = 5 * time.Second  // primary name shown next to an address
)
