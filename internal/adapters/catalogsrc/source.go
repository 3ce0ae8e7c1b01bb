package catalogsrc

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"safari_quote/internal/adapters/observability"
	"safari_quote/internal/domain"
)

// maxDocument caps a downloaded reference document.
const maxDocument = 32 << 20

const attempts = 4

var ErrUnauthorized = errors.New("catalog source: unauthorized")

// Source opens reference documents from the local filesystem or over HTTP.
// Remote fetches are rate limited and retried on 429 and transient 5xx.
type Source struct {
	hc *http.Client
	rl *rate.Limiter
}

func New(rps float64) *Source {
	return NewWithClient(&http.Client{Timeout: 30 * time.Second}, rps)
}

func NewWithClient(hc *http.Client, rps float64) *Source {
	if rps <= 0 {
		rps = 5
	}
	burst := max(int(rps), 1)
	return &Source{hc: hc, rl: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (s *Source) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if isRemote(ref) {
		b, err := s.get(ctx, ref)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return openFile(ref)
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func openFile(path string) (io.ReadCloser, error) {
	start := time.Now()
	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		observability.ObserveSource("file", http.StatusNotFound, time.Since(start))
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	case err != nil:
		observability.ObserveSource("file", http.StatusInternalServerError, time.Since(start))
		return nil, err
	}
	observability.ObserveSource("file", http.StatusOK, time.Since(start))
	return f, nil
}

// get performs a GET with client-side rate limiting and retries, returning
// the full body. Retry-After is honoured when present.
func (s *Source) get(ctx context.Context, url string) ([]byte, error) {
	if err := s.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "safari-quote/1.0")

		start := time.Now()
		resp, err := s.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < attempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveSource("http", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxDocument+1))
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			if len(b) > maxDocument {
				return nil, fmt.Errorf("%s: document larger than %d bytes", url, maxDocument)
			}
			return b, nil

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < attempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or returns false once ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter reads Retry-After in seconds or HTTP-date form; 0 if unusable.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
