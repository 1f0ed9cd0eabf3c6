//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/nuber/nuber/internal/model"
	"github.com/nuber/nuber/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	c, err := New(ctx, testutil.RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return ctx, c
}

func TestIntegrationCache_AuthContextRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	miss, err := c.GetAuthContext(ctx, "absent")
	if err != nil || miss != nil {
		t.Fatalf("expected clean miss, got %v, %v", miss, err)
	}

	want := &model.AuthContext{KeyID: "k1", KeyPrefix: "abc123", UserID: "u1", Scopes: []string{model.ScopeRead}, RateLimitTier: model.TierFree}
	if err := c.SetAuthContext(ctx, "ck", want); err != nil {
		t.Fatalf("SetAuthContext failed: %v", err)
	}

	got, err := c.GetAuthContext(ctx, "ck")
	if err != nil || got == nil {
		t.Fatalf("GetAuthContext failed: %v", err)
	}
	if got.UserID != "u1" || got.KeyID != "k1" || !got.HasScope(model.ScopeRead) {
		t.Errorf("unexpected auth context %+v", got)
	}
}

func TestIntegrationCache_VerificationSendLimit(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	for i := 1; i <= 3; i++ {
		res, err := c.CheckVerificationSendLimit(ctx, "user-1", 3, time.Minute)
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("send %d should be allowed", i)
		}
	}

	res, err := c.CheckVerificationSendLimit(ctx, "user-1", 3, time.Minute)
	if err != nil {
		t.Fatalf("fourth send: %v", err)
	}
	if res.Allowed {
		t.Error("fourth send should be blocked")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("unexpected RetryAfter %v", res.RetryAfter)
	}

	other, err := c.CheckVerificationSendLimit(ctx, "user-2", 3, time.Minute)
	if err != nil || !other.Allowed {
		t.Errorf("other users have their own window, got %+v, %v", other, err)
	}
}
