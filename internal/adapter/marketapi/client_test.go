package marketapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/cardsmarket/internal/adapter/marketapi"
	"github.com/Strob0t/cardsmarket/internal/auth"
	"github.com/Strob0t/cardsmarket/internal/domain"
	"github.com/Strob0t/cardsmarket/internal/logger"
	"github.com/Strob0t/cardsmarket/internal/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*marketapi.Client, *auth.MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := auth.NewMemoryTokenStore()
	return marketapi.NewClient(srv.URL, time.Second, tokens), tokens
}

func TestClient_HeadersAndBearer(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected content type %q", got)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-42" {
			t.Errorf("unexpected request id %q", got)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	tokens.SetToken("tok-1")

	var out struct{ OK bool }
	ctx := logger.WithRequestID(context.Background(), "req-42")
	if err := c.Get(ctx, "/ping", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !out.OK {
		t.Fatal("expected decoded body")
	}
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("expected no Authorization header without a token")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected a generated request id")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.Delete(context.Background(), "/trades/1", nil); err != nil {
		t.Fatal(err)
	}
}

func TestClient_ErrorNormalization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
		wantIs   error
	}{
		{"structured", http.StatusBadRequest, `{"message":"bad email","code":"VALIDATION","field":"email"}`, "VALIDATION", "bad email", nil},
		{"no body", http.StatusInternalServerError, ``, marketapi.CodeUnknown, "unknown error", nil},
		{"not found", http.StatusNotFound, `{"message":"missing"}`, marketapi.CodeUnknown, "missing", domain.ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"message":"expired","code":"TOKEN_EXPIRED"}`, marketapi.CodeTokenExpired, "expired", domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := c.Get(context.Background(), "/x", nil, nil)
			apiErr, ok := marketapi.AsAPIError(err)
			if !ok {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMsg {
				t.Fatalf("unexpected error: %+v", apiErr)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Fatalf("expected errors.Is(%v)", tt.wantIs)
			}
		})
	}
}

func TestClient_FieldPreserved(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"taken","code":"EMAIL_ALREADY_EXISTS","field":"email"}`))
	})
	err := c.Post(context.Background(), "/register", map[string]string{"email": "a@b.co"}, nil)
	apiErr, _ := marketapi.AsAPIError(err)
	if apiErr == nil || apiErr.Field != "email" {
		t.Fatalf("expected field email, got %+v", apiErr)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := marketapi.NewClient(url, time.Second, nil)
	err := c.Get(context.Background(), "/cards", nil, nil)
	apiErr, ok := marketapi.AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != marketapi.CodeNetworkError || apiErr.StatusCode != 0 {
		t.Fatalf("unexpected network error: %+v", apiErr)
	}
	if !apiErr.Retryable() {
		t.Fatal("network errors must be retryable")
	}
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	tokens.SetToken("stale")
	called := false
	c.OnUnauthorized(func() { called = true })

	_ = c.Get(context.Background(), "/me", nil, nil)

	if tokens.Token() != "" {
		t.Fatal("expected token cleared after 401")
	}
	if !called {
		t.Fatal("expected OnUnauthorized hook to run")
	}
}

func TestClient_PostBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["name"] != "x" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"1"}`))
	})
	var out struct{ ID string }
	if err := c.Post(context.Background(), "/things", map[string]string{"name": "x"}, &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != "1" {
		t.Fatalf("unexpected id %q", out.ID)
	}
}

func TestClient_BreakerIgnoresClientErrors(t *testing.T) {
	status := http.StatusBadRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	b := resilience.NewBreaker(2, time.Minute)
	c.SetBreaker(b)
	ctx := context.Background()

	for range 3 {
		_ = c.Get(ctx, "/x", nil, nil)
	}
	if b.State() != resilience.StateClosed {
		t.Fatalf("4xx must not open the breaker, state=%s", b.State())
	}

	status = http.StatusBadGateway
	for range 2 {
		_ = c.Get(ctx, "/x", nil, nil)
	}
	if b.State() != resilience.StateOpen {
		t.Fatalf("expected open breaker after 5xx, state=%s", b.State())
	}
	if err := c.Get(ctx, "/x", nil, nil); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestMessageForCode(t *testing.T) {
	if got := marketapi.MessageForCode(marketapi.CodeInvalidCredentials); got != "Incorrect email or password" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := marketapi.MessageForCode("WHATEVER"); got != "Unknown error. Please try again" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestClient_MaxConcurrent(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		w.WriteHeader(http.StatusNoContent)
	})
	c.SetMaxConcurrent(2)

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() {
			if err := c.Get(context.Background(), "/cards", nil, nil); err != nil {
				t.Errorf("Get: %v", err)
			}
		})
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if p := peak.Load(); p > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", p)
	}
}
