package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxnote/voxnote/backend/internal/crypto"
)

// Identity is the persisted sign-in snapshot. The daemon restores it on
// startup so a restart does not sign the user out.
type Identity struct {
	OwnerID     string `json:"owner_id"`
	Entitled    bool   `json:"entitled"`
	AccessToken string `json:"access_token,omitempty"`
}

// IdentityFile stores the identity sealed at rest. The sealing key is
// generated on first use and kept next to the identity with 0600
// permissions.
type IdentityFile struct {
	path    string
	keyPath string
}

// NewIdentityFile stores identity state under dataDir.
func NewIdentityFile(dataDir string) *IdentityFile {
	return &IdentityFile{
		path:    filepath.Join(dataDir, "identity.enc"),
		keyPath: filepath.Join(dataDir, "machine.key"),
	}
}

// Load reads the persisted identity. A missing file yields a zero
// Identity and no error, matching a signed-out state.
func (f *IdentityFile) Load() (Identity, error) {
	sealed, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Identity{}, nil
	}
	if err != nil {
		return Identity{}, fmt.Errorf("failed to read identity file: %w", err)
	}

	key, err := f.key()
	if err != nil {
		return Identity{}, err
	}

	plaintext, err := crypto.Open(string(sealed), key)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to unseal identity: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(plaintext, &id); err != nil {
		return Identity{}, fmt.Errorf("failed to parse identity: %w", err)
	}
	return id, nil
}

// Save seals and persists the identity.
func (f *IdentityFile) Save(id Identity) error {
	key, err := f.key()
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(id)
	if err != nil {
		return err
	}
	sealed, err := crypto.Seal(plaintext, key)
	if err != nil {
		return fmt.Errorf("failed to seal identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(sealed), 0600)
}

// Clear removes the persisted identity, used on sign-out.
func (f *IdentityFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// key loads the sealing key, generating it on first use.
func (f *IdentityFile) key() ([]byte, error) {
	key, err := os.ReadFile(f.keyPath)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read sealing key: %w", err)
	}

	key, err = crypto.NewKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate sealing key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.keyPath), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(f.keyPath, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to persist sealing key: %w", err)
	}
	return key, nil
}
