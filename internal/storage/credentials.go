// Package storage persists the client's credential token and identity under
// the hoodly home directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credentials ties the bearer token to the identity it was issued for.
// Identity changes force the connection manager to tear down and redial.
type Credentials struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// SaveCredentials writes credentials with restrictive permissions.
func SaveCredentials(path string, creds Credentials) error {
	if creds.Token == "" {
		return fmt.Errorf("refusing to save empty token")
	}
	encoded, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// LoadCredentials reads previously saved credentials.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	if creds.Token == "" {
		return Credentials{}, fmt.Errorf("credentials file has no token")
	}
	return creds, nil
}

// ClearCredentials removes the credentials file. Missing files are fine.
func ClearCredentials(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
