// Package idempotency guards an operation so that one key runs at most once
// within a time window.
package idempotency

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

type State string

const (
	StateNone       State = "none"        // operation can proceed
	StateInProgress State = "in_progress" // operation already in progress
	StateCompleted  State = "completed"   // operation already completed
	StateFailed     State = "failed"      // previously operation failed
	StateError      State = "error"       // this operation error
)

func (s State) String() string {
	return string(s)
}

func parseState(v string) (State, error) {
	switch State(v) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(v), nil
	default:
		return StateError, ErrInvalidState
	}
}

// Tracker records the state of keyed operations.
type Tracker interface {
	// Acquire marks key in progress for lockDuration. It returns StateNone when
	// the caller owns the key, otherwise the state somebody else left.
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration   time.Duration
	stateTTL       time.Duration
	releaseOnError bool
}

func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) {
		o.lockDuration = lockDuration
	}
}

func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) {
		o.stateTTL = stateTTL
	}
}

// WithReleaseOnError frees the key when fn fails so the caller may retry
// immediately, instead of recording StateFailed.
func WithReleaseOnError() Option {
	return func(o *execOptions) {
		o.releaseOnError = true
	}
}

// Exec runs fn once per key. Concurrent or repeated calls for a key that is
// held return ErrAlreadyInProgress, ErrAlreadyCompleted or ErrAlreadyFailed.
func Exec(ctx context.Context, t Tracker, key string, fn func(context.Context) error, opts ...Option) error {
	o := &execOptions{
		lockDuration: defaultLockDuration,
		stateTTL:     defaultStateTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := t.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		var markErr error
		if o.releaseOnError {
			markErr = t.Release(ctx, key)
		} else {
			markErr = t.MarkFailed(ctx, key, o.stateTTL)
		}
		return errors.Join(err, markErr)
	}

	return t.MarkCompleted(ctx, key, o.stateTTL)
}
