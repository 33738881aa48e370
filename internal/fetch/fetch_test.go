package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skylark-tools/letterpipe/internal/fetch"
	"github.com/skylark-tools/letterpipe/pkg/pipeline/core"
)

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ReturnsBody(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Write([]byte("<html>hello</html>"))
	})

	f := fetch.NewWithClient(srv.Client())
	got, err := f.Fetch(context.Background(), srv.URL, 0, time.Second)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != "<html>hello</html>" {
		t.Fatalf("body = %q", got)
	}
}

func TestFetch_TruncatesToMaxLen(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	})

	f := fetch.NewWithClient(srv.Client())
	got, err := f.Fetch(context.Background(), srv.URL, 10, time.Second)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
}

func TestFetch_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		class  core.FailureClass
	}{
		{http.StatusTooManyRequests, core.FailureRateLimited},
		{http.StatusInternalServerError, core.FailureServer},
		{http.StatusBadGateway, core.FailureServer},
		{http.StatusNotFound, core.FailureBadRequest},
		{http.StatusForbidden, core.FailureBadRequest},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			f := fetch.NewWithClient(srv.Client())
			_, err := f.Fetch(context.Background(), srv.URL, 0, time.Second)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := core.Classify(err); got != tt.class {
				t.Fatalf("class = %v, want %v", got, tt.class)
			}
		})
	}
}

func TestFetch_EmptyURLIsFatal(t *testing.T) {
	t.Parallel()

	f := fetch.New()
	_, err := f.Fetch(context.Background(), "   ", 0, time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := core.Classify(err); got != core.FailureBadRequest {
		t.Fatalf("class = %v, want bad-request", got)
	}
}

func TestFetch_TimeoutClassifiesRetryable(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	f := fetch.NewWithClient(srv.Client())
	_, err := f.Fetch(context.Background(), srv.URL, 0, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if got := core.Classify(err); !got.Retryable() {
		t.Fatalf("class = %v, want retryable", got)
	}
}
