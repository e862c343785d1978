package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/atinyakov/zkauth/internal/zkp"
)

// KeyFile is the on-disk identity of a CLI user.
type KeyFile struct {
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	PrivateKey string `json:"private_key"`
	// Token is the last session token obtained by login.
	Token string `json:"token,omitempty"`
}

// LoadKeyFile reads the identity at path.
func LoadKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file %s: %w", path, err)
	}
	if kf.PrivateKey == "" {
		return nil, errors.New("key file has no private key")
	}
	return &kf, nil
}

// Save writes kf to path, readable by the owner only.
func (kf *KeyFile) Save(path string) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Identity returns the username/email pair of kf.
func (kf *KeyFile) Identity() Identity {
	return Identity{Username: kf.Username, Email: kf.Email}
}

// Key decodes the private key.
func (kf *KeyFile) Key() (*zkp.PrivateKey, error) {
	return zkp.ParsePrivateKeyHex(kf.PrivateKey)
}
