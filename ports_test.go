package blackhole

import (
	"net"
	"net/netip"
	"testing"

	"github.com/matryer/is"
)

func TestFreeAddr_Loopback(t *testing.T) {
	is := is.New(t)

	addr, err := FreeAddr()
	is.NoErr(err)
	is.Equal(addr.Addr(), loopback)
	is.True(addr.Port() != 0)

	// The port is actually free.
	ln, err := net.Listen("tcp", addr.String())
	is.NoErr(err)
	ln.Close()
}

func TestFreeAddr_Unique(t *testing.T) {
	is := is.New(t)

	seen := make(map[netip.AddrPort]bool)
	for range 50 {
		addr, err := FreeAddr()
		is.NoErr(err)
		is.True(!seen[addr]) // no address handed out twice
		seen[addr] = true
	}
}

func TestPortAllocator_ClaimOnce(t *testing.T) {
	is := is.New(t)

	a := &portAllocator{allocated: make(map[netip.AddrPort]struct{})}
	addr := netip.MustParseAddrPort("127.0.0.1:4242")

	is.True(a.claim(addr))
	is.True(!a.claim(addr))
	is.True(a.claim(netip.MustParseAddrPort("127.0.0.1:4243")))
}

func TestFreeAddrOn_BadIP(t *testing.T) {
	// TEST-NET-1 is never assigned to a local interface.
	_, err := FreeAddrOn(netip.MustParseAddr("192.0.2.1"))
	if err == nil {
		t.Error("expected error binding a non-local address")
	}
}
