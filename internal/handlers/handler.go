// Package handlers contains the propagation handlers a rotation can be
// configured with. Each handler receives the freshly created access
// key exactly once and distributes it to one consumer (a secret store,
// the OS keyring, a webhook, a credentials file). A handler error
// means the key was not delivered; the rotator then deletes it.
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

// openSecret exposes the plaintext secret of a key for the duration of
// fn. The locked buffer is destroyed before returning.
func openSecret(key *rotator.Key, fn func(secret string) error) error {
	locked, err := key.Secret.Open()
	if err != nil {
		return fmt.Errorf("opening key material: %w", err)
	}
	defer locked.Destroy()
	return fn(string(locked.Bytes()))
}

// Multi fans one key out to several handlers in order. It fails on the
// first handler error; handlers already run are not undone (they will
// be overwritten by the next successful rotation).
type Multi struct {
	handlers []rotator.Handler
}

// NewMulti composes handlers into one. A single handler is returned as is.
func NewMulti(hs ...rotator.Handler) rotator.Handler {
	if len(hs) == 1 {
		return hs[0]
	}
	return &Multi{handlers: hs}
}

// Name returns the composed handler names
func (m *Multi) Name() string {
	names := make([]string, len(m.handlers))
	for i, h := range m.handlers {
		names[i] = h.Name()
	}
	return strings.Join(names, "+")
}

// Handle runs every handler in order with the same key.
func (m *Multi) Handle(ctx context.Context, key *rotator.Key) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, key); err != nil {
			return fmt.Errorf("%s: %w", h.Name(), err)
		}
	}
	return nil
}
