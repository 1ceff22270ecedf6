package ready

import (
	"context"
	"net"
	"time"
)

// TCP probes by opening and closing a connection. It only proves the
// port is bound, which is all a non-HTTP handler can promise.
type TCP struct{}

func (TCP) Check(ctx context.Context, addr string) error {
	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
