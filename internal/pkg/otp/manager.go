package otp

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/gootp/internal/pkg/clock"
)

// IDGenerator produces numeric record identifiers.
type IDGenerator interface {
	Generate() int64
}

// Config holds Manager dependencies and limits. Zero values fall back to the
// package defaults.
type Config struct {
	Store         Store
	Clock         clock.Clocker
	Codes         CodeGenerator
	IDs           IDGenerator
	TTL           time.Duration
	MaxAttempts   int
	SweepInterval time.Duration
}

// Manager owns the table of outstanding codes. It is safe for concurrent use.
type Manager struct {
	store         Store
	clock         clock.Clocker
	codes         CodeGenerator
	ids           IDGenerator
	ttl           time.Duration
	maxAttempts   int
	sweepInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config) *Manager {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Codes == nil {
		cfg.Codes = NewNumericCode()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	return &Manager{
		store:         cfg.Store,
		clock:         cfg.Clock,
		codes:         cfg.Codes,
		ids:           cfg.IDs,
		ttl:           cfg.TTL,
		maxAttempts:   cfg.MaxAttempts,
		sweepInterval: cfg.SweepInterval,
	}
}

// TTL returns the validity window given to every new code.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// MaxAttempts returns the number of verify calls a record accepts.
func (m *Manager) MaxAttempts() int {
	return m.maxAttempts
}

// Generate issues a new code for identity and purpose, replacing any record
// already held for that pair. It returns the code and its validity in seconds.
func (m *Manager) Generate(ctx context.Context, identity string, purpose Purpose) (string, int, error) {
	prior, ok, err := m.store.Get(ctx, Key{Identity: identity, Purpose: purpose})
	if err != nil {
		return "", 0, err
	}
	if !ok {
		return m.issue(ctx, identity, purpose, nil)
	}

	return m.issue(ctx, identity, purpose, &prior)
}

func (m *Manager) issue(ctx context.Context, identity string, purpose Purpose, prior *Record) (string, int, error) {
	now := m.clock.Now()

	// best-effort, every read path re-checks expiry
	if _, ok := m.store.(selfExpiring); !ok {
		if _, err := m.store.DeleteExpired(ctx, now); err != nil {
			slog.WarnContext(ctx, "failed to purge expired otp records", "error", err)
		}
	}

	code, err := m.codes.Generate()
	if err != nil {
		return "", 0, err
	}

	rec := Record{
		Identity:  identity,
		Purpose:   purpose,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
		Attempts:  0,
	}
	if m.ids != nil {
		rec.ID = m.ids.Generate()
	}
	if prior != nil {
		rec.Superseded = append(slices.Clone(prior.Superseded), codeDigest(prior.Code))
		if len(rec.Superseded) > maxSuperseded {
			rec.Superseded = rec.Superseded[len(rec.Superseded)-maxSuperseded:]
		}
	}

	if err := m.store.Save(ctx, rec); err != nil {
		return "", 0, err
	}

	return code, int(m.ttl / time.Second), nil
}

// Verify checks code against the record for identity and purpose.
//
// Checks run in order: missing record, expiry, attempt limit, then the code
// itself. Every call that reaches the comparison consumes one attempt. A
// match deletes the record so a code cannot be replayed. A code that was
// replaced by a later Generate or Resend is reported as ErrNotFoundOrExpired.
func (m *Manager) Verify(ctx context.Context, identity, code string, purpose Purpose) error {
	now := m.clock.Now()

	var outcome error
	found, err := m.store.Update(ctx, Key{Identity: identity, Purpose: purpose}, func(rec *Record) Action {
		if rec.Expired(now) {
			outcome = ErrExpired
			return ActionDelete
		}

		if rec.Attempts >= m.maxAttempts {
			outcome = ErrAttemptsExceeded
			return ActionDelete
		}

		rec.Attempts++
		if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
			if rec.supersedes(code) {
				outcome = ErrNotFoundOrExpired
				return ActionSave
			}
			outcome = &InvalidCodeError{Remaining: m.maxAttempts - rec.Attempts}
			return ActionSave
		}

		outcome = nil
		return ActionDelete
	})
	if err != nil {
		return err
	}

	if !found {
		return ErrNotFoundOrExpired
	}

	return outcome
}

// Resend drops any record for identity and purpose, then issues a new code.
// It always succeeds unless the store fails; throttling is up to the caller.
func (m *Manager) Resend(ctx context.Context, identity string, purpose Purpose) (string, int, error) {
	key := Key{Identity: identity, Purpose: purpose}

	prior, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return "", 0, err
	}
	if err := m.store.Delete(ctx, key); err != nil {
		return "", 0, err
	}
	if !ok {
		return m.issue(ctx, identity, purpose, nil)
	}

	return m.issue(ctx, identity, purpose, &prior)
}

// HasValid reports whether an unexpired record exists. An expired record
// found here is deleted.
func (m *Manager) HasValid(ctx context.Context, identity string, purpose Purpose) (bool, error) {
	now := m.clock.Now()

	valid := false
	_, err := m.store.Update(ctx, Key{Identity: identity, Purpose: purpose}, func(rec *Record) Action {
		if rec.Expired(now) {
			valid = false
			return ActionDelete
		}

		valid = true
		return ActionKeep
	})
	if err != nil {
		return false, err
	}

	return valid, nil
}

// RemainingTime returns the whole seconds left before the record expires,
// or zero when there is no record.
func (m *Manager) RemainingTime(ctx context.Context, identity string, purpose Purpose) (int, error) {
	rec, ok, err := m.store.Get(ctx, Key{Identity: identity, Purpose: purpose})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	left := rec.ExpiresAt.Sub(m.clock.Now())
	if left <= 0 {
		return 0, nil
	}

	return int(left / time.Second), nil
}

// Delete removes the record for identity and purpose if there is one.
func (m *Manager) Delete(ctx context.Context, identity string, purpose Purpose) error {
	return m.store.Delete(ctx, Key{Identity: identity, Purpose: purpose})
}

// Stats counts stored records, including expired ones the sweep has not
// reached yet.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	recs, err := m.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalOutstanding: len(recs),
		CountByPurpose:   lo.CountValuesBy(recs, func(r Record) Purpose { return r.Purpose }),
	}, nil
}

// Sweep deletes every expired record and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.clock.Now())
}

// Start runs Sweep every sweep interval until ctx is canceled or Stop is
// called. Calling Start on a running Manager is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.sweepLoop(ctx, m.done)
}

// Stop halts the sweep started by Start and waits for it to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

func (m *Manager) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				slog.WarnContext(ctx, "otp sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.DebugContext(ctx, "otp sweep removed expired records", "count", n)
			}
		}
	}
}
