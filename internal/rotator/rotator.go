package rotator

import (
	"context"
	"fmt"
	"sync"
	"time"

	dserrors "github.com/EconomistDigitalSolutions/aws-key-rotator/internal/errors"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/logging"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/secure"
)

// KeyStatus is the remote service's status for an access key.
type KeyStatus string

const (
	StatusActive   KeyStatus = "Active"
	StatusInactive KeyStatus = "Inactive"
)

// KeySummary is metadata about an existing access key. It never
// carries secret material; the remote service owns the key, the
// rotator only reads and deletes by ID.
type KeySummary struct {
	ID     string
	Status KeyStatus
}

// Key is a freshly created credential. It exists only for the
// duration of one rotation run: ownership passes to the handler, and
// the rotator deletes it remotely if handling fails.
type Key struct {
	ID       string
	Identity string
	Secret   *secure.Buffer
}

// KeyService is the IAM capability the rotator drives.
type KeyService interface {
	ListKeys(ctx context.Context, identity string) ([]KeySummary, error)
	CreateKey(ctx context.Context, identity string) (*Key, error)
	DeleteKey(ctx context.Context, identity, keyID string) error
}

// Handler receives a newly created key and distributes it to wherever
// it needs to be used. Any returned error means the key was not
// delivered and must not survive the run.
type Handler interface {
	Name() string
	Handle(ctx context.Context, key *Key) error
}

// Rotator drives one rotation of an identity's access keys. It is
// stateless across runs; the remote service is the sole source of
// truth for which keys exist. Callers must not rotate the same
// identity concurrently.
type Rotator struct {
	service KeyService
	handler Handler
	logger  *logging.Logger
	metrics *Metrics
}

// New creates a rotator around an IAM capability and a propagation handler.
func New(service KeyService, handler Handler, logger *logging.Logger) *Rotator {
	return &Rotator{
		service: service,
		handler: handler,
		logger:  logger,
		metrics: NewMetrics(),
	}
}

// RotateKeys rotates all access keys belonging to identity: list the
// existing keys, create a new one (self-healing once if creation is
// rejected), hand the new key to the handler, then delete the old
// keys. On success the identity holds exactly one active key.
func (r *Rotator) RotateKeys(ctx context.Context, identity string) error {
	if identity == "" {
		return dserrors.UserError{
			Message:    "IAM user name is required",
			Suggestion: "Pass --identity or set 'identity' in the config file",
		}
	}

	start := time.Now()
	r.metrics.RecordRotationStarted(identity)

	err := r.rotate(ctx, identity)

	status := "success"
	if err != nil {
		status = "failure"
	}
	r.metrics.RecordRotationCompleted(identity, status, time.Since(start).Seconds())
	return err
}

func (r *Rotator) rotate(ctx context.Context, identity string) error {
	existing, err := r.service.ListKeys(ctx, identity)
	if err != nil {
		// Nothing has been mutated yet, so this is always safe to retry.
		return dserrors.IAMError("listKeys", identity, err)
	}
	r.logger.Debug("Found %d existing access keys for %s", len(existing), identity)

	key, remaining, err := r.createKey(ctx, identity, existing)
	if err != nil {
		return err
	}
	r.logger.Info("Created access key %s for %s", key.ID, identity)

	if err := r.handler.Handle(ctx, key); err != nil {
		// The handler declared the key undeliverable; remove it so the
		// identity is left with its original key set.
		r.metrics.RecordRollback(identity)
		if delErr := r.service.DeleteKey(ctx, identity, key.ID); delErr != nil {
			r.logger.Error("Failed to delete undelivered key %s: %v", key.ID, delErr)
		} else {
			r.logger.Warn("Deleted undelivered access key %s", key.ID)
		}
		return dserrors.HandlerError(r.handler.Name(), err)
	}

	if err := r.DeleteKeys(ctx, identity, remaining, nil); err != nil {
		return err
	}

	r.logger.Info("Rotation complete for %s: %d old keys removed", identity, len(remaining))
	return nil
}

// createKey creates a new access key for identity, retrying exactly
// once after deleting the identity's inactive keys. IAM caps a user
// at two access keys, so a prior interrupted rotation leaves the user
// at the cap and blocks every future creation; deleting inactive keys
// only is the sole filter that restores capacity without destroying a
// credential that may still be in use elsewhere.
//
// Any creation failure triggers the retry, not just the at-cap error:
// the service error shapes are not distinguished here.
//
// The returned summaries are the subset of existing that this run has
// not already deleted, for the caller's final cleanup.
func (r *Rotator) createKey(ctx context.Context, identity string, existing []KeySummary) (*Key, []KeySummary, error) {
	key, err := r.service.CreateKey(ctx, identity)
	if err == nil {
		return key, existing, nil
	}

	r.logger.Warn("Key creation for %s failed (%v); deleting inactive keys and retrying once", identity, err)
	r.metrics.RecordSelfHeal(identity)

	inactive := func(k KeySummary) bool { return k.Status == StatusInactive }
	if delErr := r.DeleteKeys(ctx, identity, existing, inactive); delErr != nil {
		// The deletion failure supersedes the original creation error.
		return nil, nil, delErr
	}

	var remaining []KeySummary
	for _, k := range existing {
		if !inactive(k) {
			remaining = append(remaining, k)
		}
	}

	key, err = r.service.CreateKey(ctx, identity)
	if err != nil {
		return nil, nil, dserrors.IAMError("createKey", identity, err)
	}
	return key, remaining, nil
}

// DeleteKeys deletes the subset of keys matching filter (all of them
// when filter is nil), one concurrent deletion per key, and waits for
// every deletion before returning. A single failure fails the batch;
// deletions already issued are not rolled back. Partial deletion is
// harmless: the remote service is the source of truth, and fewer old
// keys simply remain for the next run.
func (r *Rotator) DeleteKeys(ctx context.Context, identity string, keys []KeySummary, filter func(KeySummary) bool) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(keys))

	for _, k := range keys {
		if filter != nil && !filter(k) {
			continue
		}
		wg.Add(1)
		go func(k KeySummary) {
			defer wg.Done()
			r.logger.Debug("Deleting access key %s (%s) for %s", k.ID, k.Status, identity)
			if err := r.service.DeleteKey(ctx, identity, k.ID); err != nil {
				errs <- fmt.Errorf("deleting access key %s: %w", k.ID, err)
			}
		}(k)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return nil
}
