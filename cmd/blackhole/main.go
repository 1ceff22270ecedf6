// blackhole runs throwaway HTTP servers that answer every request with an
// empty 200 (or, with -grpc, an empty successful gRPC reply). It prints one
// URL per server on stdout once each is answering, then runs until
// interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/matgreaves/run"

	"github.com/matgreaves/blackhole"
	"github.com/matgreaves/blackhole/internal/ready"
)

func main() {
	var addrs addrList
	flag.Var(&addrs, "addr", "listen address, repeatable; port 0 picks a free port (default 127.0.0.1:0)")
	grpcMode := flag.Bool("grpc", false, "answer every request as a successful gRPC call")
	timeout := flag.Duration("timeout", 5*time.Second, "how long to wait for each server to answer")
	flag.Parse()

	if len(addrs) == 0 {
		addrs = addrList{netip.MustParseAddrPort("127.0.0.1:0")}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config{
		addrs:   addrs,
		grpc:    *grpcMode,
		timeout: *timeout,
		log:     slog.New(slog.NewTextHandler(os.Stderr, nil)),
		out:     os.Stdout,
	}
	if err := serve(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "blackhole: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	addrs   []netip.AddrPort
	grpc    bool
	timeout time.Duration
	log     *slog.Logger
	out     io.Writer
}

// serve spawns every blackhole, then idles until ctx is cancelled.
func serve(ctx context.Context, cfg config) error {
	err := run.Sequence{
		run.Func(func(ctx context.Context) error {
			return spawnAll(ctx, cfg)
		}),
		run.Idle,
	}.Run(ctx)
	if ctx.Err() != nil {
		cfg.log.Info("shutting down")
		return nil
	}
	if err != nil {
		return errors.New(stripRunPrefixes(err.Error()))
	}
	return nil
}

// runPrefixRE matches the error prefixes added by run.Sequence. The step
// index means nothing to someone reading the CLI's output.
var runPrefixRE = regexp.MustCompile(`^(sequence \[\d+:\d+\]: )+`)

func stripRunPrefixes(s string) string {
	return runPrefixRE.ReplaceAllString(s, "")
}

// spawnAll starts one blackhole per address and waits for each to answer.
// A bind failure is reported synchronously through Spawn's error log, so it
// is checked before polling: otherwise whatever already owns the port would
// answer the poll.
func spawnAll(ctx context.Context, cfg config) error {
	handler := http.HandlerFunc(blackhole.Always200)
	var checker ready.Checker = &ready.HTTP{}
	if cfg.grpc {
		handler = blackhole.AlwaysGRPCOK
		checker = ready.GRPC{}
	}

	for _, addr := range cfg.addrs {
		if addr.Port() == 0 {
			free, err := blackhole.FreeAddrOn(addr.Addr())
			if err != nil {
				return err
			}
			addr = free
		}

		errLog := &serverLog{log: cfg.log.With("addr", addr.String())}
		u := blackhole.Spawn(addr, handler, blackhole.WithErrorLog(errLog))
		if err := errLog.err(); err != nil {
			return fmt.Errorf("blackhole %s: %w", u, err)
		}

		err := ready.Poll(ctx, u.Host, checker, &ready.Options{Timeout: cfg.timeout}, func(err error) {
			cfg.log.Debug("not ready yet", "url", u.String(), "error", err)
		})
		if err != nil {
			return fmt.Errorf("blackhole %s: %w", u, err)
		}

		cfg.log.Info("blackhole ready", "url", u.String(), "grpc", cfg.grpc)
		fmt.Fprintln(cfg.out, u.String())
	}
	return nil
}

// serverLog receives Spawn's error line, logs it through slog and keeps the
// first one. It is written from the server goroutine after Spawn returns.
type serverLog struct {
	log *slog.Logger

	mu    sync.Mutex
	first string
}

func (l *serverLog) Write(p []byte) (int, error) {
	msg := strings.TrimSuffix(string(p), "\n")
	msg = strings.TrimPrefix(msg, "blackhole HTTP server error: ")

	l.mu.Lock()
	if l.first == "" {
		l.first = msg
	}
	l.mu.Unlock()

	l.log.Error("blackhole server error", "error", msg)
	return len(p), nil
}

// err returns the first logged failure, if any.
func (l *serverLog) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.first == "" {
		return nil
	}
	return errors.New(l.first)
}

// addrList collects repeated -addr flags.
type addrList []netip.AddrPort

func (l *addrList) String() string {
	if l == nil {
		return ""
	}
	s := make([]string, len(*l))
	for i, a := range *l {
		s[i] = a.String()
	}
	return strings.Join(s, ",")
}

func (l *addrList) Set(v string) error {
	addr, err := netip.ParseAddrPort(v)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", v, err)
	}
	*l = append(*l, addr)
	return nil
}
