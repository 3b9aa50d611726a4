package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func newTestLimiter(limit int) (*Limiter, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{RequestsPerMinute: limit})
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, now := newTestLimiter(2)
	defer l.Stop()

	for i, want := range []bool{true, true, false} {
		if got := l.Allow("1.2.3.4"); got != want {
			t.Errorf("request %d: Allow() = %v, want %v", i+1, got, want)
		}
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other clients have their own window")
	}
	if got := l.RetryAfter("1.2.3.4"); got != 60 {
		t.Errorf("RetryAfter() = %d, want 60", got)
	}

	*now = now.Add(time.Minute)
	if !l.Allow("1.2.3.4") {
		t.Error("window should reset after a minute")
	}
	if m := l.Metrics(); m.Rejected != 1 || m.Clients != 2 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l, now := newTestLimiter(5)
	defer l.Stop()

	l.Allow("a")
	*now = now.Add(11 * time.Minute)
	l.Allow("b")
	l.cleanup()
	if m := l.Metrics(); m.Clients != 1 {
		t.Errorf("Clients = %d, want 1", m.Clients)
	}
}

func TestLimiter_StopWaitsForCleanupLoop(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: 10 * time.Millisecond})
	time.Sleep(25 * time.Millisecond)
	l.Stop()
	l.Stop()
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1)
	defer l.Stop()

	h := l.Middleware(
		func(*http.Request) string { return "client" },
		Mutating,
		nil,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
	}
	for i, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/projects", nil))
		if rec.Code != tt.want {
			t.Errorf("request %d (%s): status = %d, want %d", i+1, tt.method, rec.Code, tt.want)
		}
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") == "" {
			t.Error("Retry-After header missing")
		}
	}
}
