package ready

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// probeClient keeps each probe short so Poll's backoff, not a hung
// request, decides how long readiness takes.
var probeClient = &http.Client{Timeout: 200 * time.Millisecond}

// HTTP probes with a GET to Path (default "/"). A blackhole's handler may
// answer with any status, so anything below 500 counts as ready.
type HTTP struct {
	Path string
}

func (h *HTTP) Check(ctx context.Context, addr string) error {
	path := h.Path
	if path == "" {
		path = "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
	if err != nil {
		return err
	}

	resp, err := probeClient.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
