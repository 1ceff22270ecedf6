package blackhole

import (
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
)

// New spawns a blackhole on a free loopback port for the duration of the
// process and returns its URL. A nil h answers with Always200.
//
// While t is running, the server's error line goes to t.Log so it shows up
// next to the failing test. The server outlives t, so anything written after
// t finishes goes to os.Stderr.
func New(t testing.TB, h http.Handler) *url.URL {
	t.Helper()

	addr, err := FreeAddr()
	if err != nil {
		t.Fatalf("blackhole: %v", err)
	}

	w := &tbWriter{tb: t}
	t.Cleanup(w.detach)

	return Spawn(addr, h, WithErrorLog(w))
}

// tbWriter forwards writes to a testing.TB until detached. Calling Log on
// a finished test panics, hence the fallback.
type tbWriter struct {
	mu       sync.Mutex
	tb       testing.TB
	detached bool
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.detached {
		return os.Stderr.Write(p)
	}
	w.tb.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

func (w *tbWriter) detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.detached = true
}
