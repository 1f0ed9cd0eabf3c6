package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/nuber/nuber/internal/auth"
	"github.com/nuber/nuber/internal/model"
)

var testHashParams = auth.HashParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16, SaltLen: 8}

const (
	testKey    = "nb_test_a1b2c3_0123456789abcdef0123456789abcdef"
	testPrefix = "a1b2c3"
)

type fakeKeyStore struct {
	mu      sync.Mutex
	keys    []*model.APIKey
	err     error
	lookups int
	used    chan string
}

func (f *fakeKeyStore) GetAPIKeysByPrefix(_ context.Context, prefix string) ([]*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.APIKey
	for _, k := range f.keys {
		if k.KeyPrefix == prefix {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKeyStore) UpdateAPIKeyLastUsed(_ context.Context, id string) error {
	if f.used != nil {
		f.used <- id
	}
	return nil
}

type fakeAuthCache struct {
	mu      sync.Mutex
	entries map[string]*model.AuthContext
}

func (c *fakeAuthCache) GetAuthContext(_ context.Context, key string) (*model.AuthContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *fakeAuthCache) SetAuthContext(_ context.Context, key string, a *model.AuthContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*model.AuthContext)
	}
	c.entries[key] = a
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newKeyStore(t *testing.T) *fakeKeyStore {
	t.Helper()
	hash, err := auth.HashSecretWith(testHashParams, testKey)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &fakeKeyStore{
		keys: []*model.APIKey{{
			ID:            "key-1",
			UserID:        "user-1",
			KeyHash:       hash,
			KeyPrefix:     testPrefix,
			Scopes:        []string{model.ScopeRead, model.ScopeWrite},
			RateLimitTier: model.TierFree,
		}},
		used: make(chan string, 4),
	}
}

// callerEcho writes the authenticated user id, or "anonymous".
var callerEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if a := auth.AuthFromContext(r.Context()); a != nil {
		_, _ = io.WriteString(w, a.UserID)
		return
	}
	_, _ = io.WriteString(w, "anonymous")
})

func TestAuth(t *testing.T) {
	testCases := []struct {
		name       string
		optional   bool
		header     string
		value      string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer token", header: "Authorization", value: "Bearer " + testKey, wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "x-api-key header", header: "X-API-Key", value: testKey, wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "missing key required", wantStatus: http.StatusUnauthorized},
		{name: "missing key optional", optional: true, wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "malformed key optional", optional: true, header: "X-API-Key", value: "nope", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", header: "X-API-Key", value: "nb_test_a1b2c3_ffffffffffffffffffffffffffffffff", wantStatus: http.StatusUnauthorized},
		{name: "unknown prefix", header: "X-API-Key", value: "nb_test_ffffff_0123456789abcdef0123456789abcdef", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mw := Auth(AuthConfig{
				Logger:   discardLogger(),
				Keys:     newKeyStore(t),
				Cache:    &fakeAuthCache{},
				Optional: tc.optional,
			})

			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			mw(callerEcho).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
				t.Errorf("expected body %q, got %q", tc.wantBody, rec.Body.String())
			}
			if tc.wantStatus == http.StatusUnauthorized && rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON error, got %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAuth_CachesAndTouchesKey(t *testing.T) {
	keys := newKeyStore(t)
	c := &fakeAuthCache{}
	handler := Auth(AuthConfig{Logger: discardLogger(), Keys: keys, Cache: c})(callerEcho)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.Header.Set("X-API-Key", testKey)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	keys.mu.Lock()
	lookups := keys.lookups
	keys.mu.Unlock()
	if lookups != 1 {
		t.Errorf("expected one repository lookup, got %d", lookups)
	}
	if got := <-keys.used; got != "key-1" {
		t.Errorf("expected last_used update for key-1, got %s", got)
	}
}

func TestAuth_LookupError(t *testing.T) {
	keys := newKeyStore(t)
	keys.err = errors.New("db down")
	handler := Auth(AuthConfig{Logger: discardLogger(), Keys: keys})(callerEcho)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
