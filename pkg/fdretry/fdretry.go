// Package fdretry wraps operations that acquire kernel resources (open files,
// open directory streams) and retries them while the process is out of file
// descriptors.
//
// The policy is deliberately narrow: only "too many open files" is retried,
// at a fixed interval and without an attempt limit. Every other failure is
// handed back to the caller on the first attempt. The loop ends on success or
// when the context is canceled.
package fdretry

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
)

// DefaultWait is the pause between two attempts.
const DefaultWait = time.Second

// Policy retries descriptor acquisition on exhaustion.
type Policy struct {
	wait    time.Duration
	onRetry func(attempt uint, err error)
}

// Option configures a Policy.
type Option func(*Policy)

// WithOnRetry registers a callback that is invoked before every wait.
func WithOnRetry(fn func(attempt uint, err error)) Option {
	return func(p *Policy) { p.onRetry = fn }
}

// New returns a Policy waiting wait between attempts. A negative wait is treated as zero.
func New(wait time.Duration, opts ...Option) *Policy {
	if wait < 0 {
		wait = 0
	}
	p := &Policy{wait: wait}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsDescriptorExhausted reports whether err means the process has no file descriptors left.
func IsDescriptorExhausted(err error) bool {
	return err != nil && errors.Is(err, errTooManyOpenFiles)
}

// Acquire runs op until it succeeds, fails with anything other than
// descriptor exhaustion, or ctx is canceled.
func Acquire[T any](ctx context.Context, p *Policy, op func() (T, error)) (T, error) {
	return retry.DoWithData(op,
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(p.wait),
		retry.MaxDelay(p.wait),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(IsDescriptorExhausted),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			plog.Debug("Out of file descriptors, waiting", "attempt", n, "after", p.wait, "error", err)
			if p.onRetry != nil {
				p.onRetry(n, err)
			}
		}),
	)
}

// OpenDir opens path as a directory stream. Unlike Open it fails when path
// is not a directory, before any entry is read.
func (p *Policy) OpenDir(ctx context.Context, path string) (*os.File, error) {
	return Acquire(ctx, p, func() (*os.File, error) {
		return openDir(path)
	})
}
