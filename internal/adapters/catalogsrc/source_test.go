package catalogsrc_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"safari_quote/internal/adapters/catalogsrc"
	"safari_quote/internal/domain"
)

const feeSheet = "Service Code,Service Description,Fee\nPARK1,Entry,70\n"

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

func TestSource_HTTP_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = io.WriteString(w, feeSheet)
		}
	}))
	defer ts.Close()

	src := catalogsrc.New(100) // high RPS for tests
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rc, err := src.Open(ctx, ts.URL+"/fees.csv")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := readAll(t, rc); got != feeSheet {
		t.Fatalf("unexpected body: %q", got)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestSource_HTTP_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := catalogsrc.New(100).Open(context.Background(), ts.URL+"/missing.csv")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSource_HTTP_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := catalogsrc.New(100).Open(context.Background(), ts.URL)
	if !errors.Is(err, catalogsrc.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.csv")
	if err := os.WriteFile(path, []byte(feeSheet), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	src := catalogsrc.New(0)

	rc, err := src.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := readAll(t, rc); got != feeSheet {
		t.Fatalf("unexpected body: %q", got)
	}

	if _, err := src.Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
