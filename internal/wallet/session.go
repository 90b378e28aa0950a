package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// SessionCache remembers the last connected wallet so a later run can
// reconnect without prompting.
//
//	macOS:   ~/Library/Caches/w3mint/session.json
//	Linux:   ~/.cache/w3mint/session.json
//	Windows: %LocalAppData%\w3mint\session.json
type SessionCache struct {
	path string
}

type sessionFile struct {
	Wallet      string `json:"wallet"`
	ConnectedAt string `json:"connected_at"`
}

// DefaultSessionPath returns the per-user session cache file.
func DefaultSessionPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "w3mint", "session.json")
}

// NewSessionCache creates a cache stored at path.
func NewSessionCache(path string) *SessionCache {
	return &SessionCache{path: path}
}

// Load returns the cached wallet name. ok is false when nothing usable is
// cached.
func (c *SessionCache) Load() (name string, ok bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", false
	}
	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil || f.Wallet == "" {
		return "", false
	}
	return f.Wallet, true
}

// Save records name as the connected wallet, readable only by the user.
func (c *SessionCache) Save(name string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(sessionFile{
		Wallet:      name,
		ConnectedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return err
	}
	_ = os.Chmod(c.path, 0o600)
	return nil
}

// Clear forgets the cached wallet.
func (c *SessionCache) Clear() error {
	err := os.Remove(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
