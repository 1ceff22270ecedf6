// Package blackhole starts throwaway HTTP servers for tests that exercise
// code making outbound HTTP calls.
//
// A blackhole answers every request with a caller-supplied handler. It runs
// in the background for the rest of the process and cannot be stopped:
//
//	addr, _ := blackhole.FreeAddr()
//	u := blackhole.Spawn(addr, http.HandlerFunc(blackhole.Always200))
//	resp, err := http.Get(u.String())
package blackhole

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// errorPrefix starts the line written when a blackhole stops serving.
const errorPrefix = "blackhole HTTP server error: "

// Option configures Spawn.
type Option func(*config)

type config struct {
	errorLog io.Writer
}

// WithErrorLog sets where the server's terminal error is written.
// Defaults to os.Stderr.
func WithErrorLog(w io.Writer) Option {
	return func(c *config) {
		c.errorLog = w
	}
}

// Spawn binds addr, serves every request on it with h in a background
// goroutine, and returns the server's URL (http://addr/).
//
// Only the bind happens before Spawn returns, so the URL can be used
// immediately. Bind and serve errors are never returned: they are written
// as a single line to the error log and the caller just sees failing
// requests. There is no way to stop the server.
//
// h is shared by every connection and may be called concurrently. A nil h
// answers with Always200. Both HTTP/1.x and cleartext HTTP/2 are served.
//
// Spawn panics if addr is the zero AddrPort or otherwise invalid.
func Spawn(addr netip.AddrPort, h http.Handler, opts ...Option) *url.URL {
	cfg := config{errorLog: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !addr.IsValid() {
		panic(fmt.Sprintf("blackhole: invalid address %v", addr))
	}
	// Built field by field: a zone in the host is escaped by URL.String,
	// which url.Parse would reject.
	u := &url.URL{Scheme: "http", Host: addr.String(), Path: "/"}

	if h == nil {
		h = http.HandlerFunc(Always200)
	}

	ln, err := net.Listen("tcp", addr.String())
	if err != nil {
		cfg.logError(err)
		return u
	}

	go cfg.serve(ln, h)

	return u
}

// serve runs the accept loop on ln until it fails, then logs why.
func (c *config) serve(ln net.Listener, h http.Handler) {
	srv := &http.Server{Handler: h2c.NewHandler(h, &http2.Server{})}
	if err := srv.Serve(ln); err != nil {
		c.logError(err)
	}
}

func (c *config) logError(err error) {
	fmt.Fprintf(c.errorLog, "%s%v\n", errorPrefix, err)
}

// Always200 answers any request with 200 OK and an empty body.
func Always200(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
