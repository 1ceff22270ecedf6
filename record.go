package blackhole

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"
)

// maxBodyCapture is the maximum number of body bytes kept per recorded
// request. The wrapped handler always sees the full body.
const maxBodyCapture = 64 * 1024 // 64KB

// Request is a captured inbound request.
type Request struct {
	Method        string
	Path          string // includes the query string, if any
	Header        http.Header
	Body          []byte
	BodyTruncated bool
	BodySize      int64
	Received      time.Time
}

// Recorder is an http.Handler that captures every request before passing
// it to the handler it wraps. It is safe for concurrent use.
//
//	rec := blackhole.Record(http.HandlerFunc(blackhole.Always200))
//	u := blackhole.New(t, rec)
//	// ... exercise the client ...
//	reqs := rec.Requests()
type Recorder struct {
	next http.Handler

	mu       sync.Mutex
	requests []Request
}

// Record wraps h in a Recorder. A nil h answers with Always200.
func Record(h http.Handler) *Recorder {
	if h == nil {
		h = http.HandlerFunc(Always200)
	}
	return &Recorder{next: h}
}

func (rec *Recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	received := time.Now()

	// Read the body up front so the request is recorded before any part of
	// the response can reach the client. The handler gets the whole body; the
	// record keeps at most maxBodyCapture bytes.
	body, _ := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	var kept []byte
	if len(body) > 0 {
		kept = bytes.Clone(body[:min(len(body), maxBodyCapture)])
	}

	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	rec.mu.Lock()
	rec.requests = append(rec.requests, Request{
		Method:        r.Method,
		Path:          path,
		Header:        r.Header.Clone(),
		Body:          kept,
		BodyTruncated: len(body) > maxBodyCapture,
		BodySize:      int64(len(body)),
		Received:      received,
	})
	rec.mu.Unlock()

	rec.next.ServeHTTP(w, r)
}

// Requests returns a copy of the requests captured so far, in the order
// they were recorded.
func (rec *Recorder) Requests() []Request {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]Request, len(rec.requests))
	copy(out, rec.requests)
	return out
}

// Len returns the number of requests captured so far.
func (rec *Recorder) Len() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.requests)
}
