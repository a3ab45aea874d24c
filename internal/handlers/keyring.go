package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

// KeyringHandler stores the new key pair in the OS keyring (Keychain
// on macOS, Secret Service on Linux, Credential Manager on Windows)
// under the configured service name, keyed by the IAM user name.
type KeyringHandler struct {
	service string

	// setFn is swappable for tests; the real keyring needs a desktop
	// session.
	setFn func(service, user, password string) error
}

// NewKeyringHandler creates an OS keyring propagation handler.
func NewKeyringHandler(service string) (*KeyringHandler, error) {
	if service == "" {
		return nil, fmt.Errorf("keyring handler requires 'service'")
	}
	return &KeyringHandler{
		service: service,
		setFn:   keyring.Set,
	}, nil
}

// Name returns the handler name
func (h *KeyringHandler) Name() string {
	return "keyring"
}

// Handle stores the key pair as a JSON entry.
func (h *KeyringHandler) Handle(ctx context.Context, key *rotator.Key) error {
	return openSecret(key, func(secret string) error {
		payload, err := json.Marshal(map[string]string{
			"access_key_id":     key.ID,
			"secret_access_key": secret,
		})
		if err != nil {
			return err
		}
		if err := h.setFn(h.service, key.Identity, string(payload)); err != nil {
			return fmt.Errorf("keyring set: %w", err)
		}
		return nil
	})
}
