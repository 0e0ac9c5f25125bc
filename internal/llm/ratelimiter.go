package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider spaces calls to a provider to at most rpm per minute.
// The bucket holds up to rpm calls and refills continuously, so a partial
// refill is kept rather than lost between calls.
type RateLimitedProvider struct {
	provider Provider
	rpm      float64
	perCall  time.Duration

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
	now      func() time.Time
}

// NewRateLimitedProvider wraps provider so it is called at most rpm times
// per minute. The first rpm calls go through immediately.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		rpm:      float64(rpm),
		perCall:  time.Minute / time.Duration(rpm),
		tokens:   float64(rpm),
		lastFill: time.Now(),
		now:      time.Now,
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		delay := r.take()
		if delay == 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a call if one is available and returns 0, otherwise it
// returns how long until the next call will be.
func (r *RateLimitedProvider) take() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(r.lastFill); elapsed > 0 {
		r.tokens += elapsed.Seconds() * r.rpm / 60
		if r.tokens > r.rpm {
			r.tokens = r.rpm
		}
	}
	r.lastFill = now

	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	delay := time.Duration((1 - r.tokens) * float64(r.perCall))
	if delay < time.Millisecond {
		delay = time.Millisecond
	}
	return delay
}
