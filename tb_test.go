package blackhole

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/matryer/is"
)

// logTB captures Log calls.
type logTB struct {
	testing.TB
	lines []string
}

func (tb *logTB) Log(args ...any) {
	for _, a := range args {
		tb.lines = append(tb.lines, a.(string))
	}
}

func TestTBWriter(t *testing.T) {
	is := is.New(t)

	tb := &logTB{TB: t}
	w := &tbWriter{tb: tb}

	n, err := w.Write([]byte(errorPrefix + "accept: too many open files\n"))
	is.NoErr(err)
	is.Equal(n, len(errorPrefix)+len("accept: too many open files\n"))
	is.Equal(tb.lines, []string{"blackhole HTTP server error: accept: too many open files"})

	w.detach()
	_, err = w.Write([]byte("after\n")) // goes to stderr
	is.NoErr(err)
	is.Equal(len(tb.lines), 1)
}

func TestNew_BindErrorGoesToTestLog(t *testing.T) {
	is := is.New(t)

	tb := &logTB{TB: t}
	u := New(tb, nil)

	// Binding the same address again fails and is reported through tb.
	w := &tbWriter{tb: tb}
	Spawn(netip.MustParseAddrPort(u.Host), nil, WithErrorLog(w))

	is.Equal(len(tb.lines), 1)
	is.True(strings.HasPrefix(tb.lines[0], errorPrefix))
}
