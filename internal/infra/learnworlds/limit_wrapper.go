package learnworlds

import (
	"context"
	"sync"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
)

var _ adapter.LearningPlatform = (*RateLimitedPlatform)(nil)

// RateLimitedPlatform throttles calls to the learning platform with a token
// bucket. The provider enforces a low request budget; waiting here keeps the
// enrollment pipeline free of hardcoded sleeps.
type RateLimitedPlatform struct {
	inner adapter.LearningPlatform

	mu     sync.Mutex
	tokens float64
	burst  float64
	rate   float64 // tokens per second
	last   time.Time
	now    func() time.Time
}

func NewRateLimitedPlatform(inner adapter.LearningPlatform, ratePerSec float64, burst int) *RateLimitedPlatform {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedPlatform{
		inner:  inner,
		tokens: float64(burst),
		burst:  float64(burst),
		rate:   ratePerSec,
		last:   time.Now(),
		now:    time.Now,
	}
}

// wait blocks until a token is available or the context is done.
func (r *RateLimitedPlatform) wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.now()
		r.tokens += now.Sub(r.last).Seconds() * r.rate
		if r.tokens > r.burst {
			r.tokens = r.burst
		}
		r.last = now
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		delay := time.Duration((1 - r.tokens) / r.rate * float64(time.Second))
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (r *RateLimitedPlatform) FindUserByEmail(ctx context.Context, email string) (*adapter.PlatformUser, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.FindUserByEmail(ctx, email)
}

func (r *RateLimitedPlatform) CreateUser(ctx context.Context, email, name string) (*adapter.PlatformUser, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.CreateUser(ctx, email, name)
}

func (r *RateLimitedPlatform) Enroll(ctx context.Context, req adapter.EnrollRequest) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.inner.Enroll(ctx, req)
}
