package client

import (
	"encoding/json"
	"errors"
	"os"
)

// Credential is the locally persisted session identity, the equivalent of the
// browser's saved session. It is never trusted on its own: RestoreSession
// revalidates it against the server before use.
type Credential struct {
	SessionID    string `json:"session_id"`
	CustomerName string `json:"customer_name"`
	IsHost       bool   `json:"is_host"`
}

// CredentialStore saves the credential as a small JSON file.
type CredentialStore struct {
	Path string
}

func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{Path: path}
}

func (s *CredentialStore) Save(cred Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

// Load returns nil without error when no credential has been saved.
func (s *CredentialStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *CredentialStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
