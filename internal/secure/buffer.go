package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds a secret access key in a memguard enclave between the
// moment IAM returns it and the moment a handler delivers it. The
// plaintext only exists inside an opened LockedBuffer, which callers
// must destroy when done.
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy() calls and prevents use
	// after destroy
	destroyed bool
}

// NewBuffer copies data into a protected memory region. The caller
// should zero the original slice afterwards.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{
		enclave: memguard.NewEnclave(data),
	}
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer:
//
//	locked, err := buf.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	secret := locked.Bytes()
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}

	return b.enclave.Open()
}

// Destroy marks the buffer as destroyed. The enclave's ciphertext is
// safe even without explicit destruction; this only prevents reuse.
// Idempotent.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = true
	b.enclave = nil
}

// IsDestroyed reports whether Destroy has been called.
func (b *Buffer) IsDestroyed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.destroyed
}
