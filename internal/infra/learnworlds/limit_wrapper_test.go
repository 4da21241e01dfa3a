package learnworlds

import (
	"context"
	"testing"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain/ports/adapter"
)

type countingPlatform struct {
	enrolls int
}

func (p *countingPlatform) FindUserByEmail(ctx context.Context, email string) (*adapter.PlatformUser, error) {
	return &adapter.PlatformUser{ID: "lw_1", Email: email}, nil
}

func (p *countingPlatform) CreateUser(ctx context.Context, email, name string) (*adapter.PlatformUser, error) {
	return &adapter.PlatformUser{ID: "lw_1", Email: email, Name: name}, nil
}

func (p *countingPlatform) Enroll(ctx context.Context, req adapter.EnrollRequest) error {
	p.enrolls++
	return nil
}

func TestRateLimitedPlatformSpendsBurstImmediately(t *testing.T) {
	t.Parallel()

	inner := &countingPlatform{}
	rl := NewRateLimitedPlatform(inner, 1, 2)
	base := time.Unix(0, 0)
	rl.now = func() time.Time { return base }
	rl.last = base

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := rl.Enroll(ctx, adapter.EnrollRequest{ProductID: "c1"}); err != nil {
			t.Fatalf("enroll %d: %v", i, err)
		}
	}
	if inner.enrolls != 2 {
		t.Fatalf("expected 2 enrolls, got %d", inner.enrolls)
	}
	if rl.tokens >= 1 {
		t.Fatalf("expected bucket drained, have %v tokens", rl.tokens)
	}
}

func TestRateLimitedPlatformRefillsOverTime(t *testing.T) {
	t.Parallel()

	rl := NewRateLimitedPlatform(&countingPlatform{}, 2, 1)
	base := time.Unix(0, 0)
	now := base
	rl.now = func() time.Time { return now }
	rl.last = base
	rl.tokens = 0

	// Half a second at 2/s refills one token.
	now = base.Add(500 * time.Millisecond)
	if err := rl.wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestRateLimitedPlatformHonorsContextCancel(t *testing.T) {
	t.Parallel()

	rl := NewRateLimitedPlatform(&countingPlatform{}, 0.001, 1)
	rl.tokens = 0

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.wait(ctx); err == nil {
		t.Fatal("expected context error, got nil")
	}
}
