package blackhole

import (
	"fmt"
	"net"
	"net/netip"
	"sync"
)

// maxAllocAttempts bounds how often FreeAddrOn asks the OS for another port
// when it keeps getting ports that were already handed out.
const maxAllocAttempts = 16

var loopback = netip.MustParseAddr("127.0.0.1")

// portAllocator hands out OS-assigned ports and remembers them, so two
// blackholes in the same process never get the same port even when the
// OS recycles one between calls.
type portAllocator struct {
	mu        sync.Mutex
	allocated map[netip.AddrPort]struct{}
}

var ports = &portAllocator{allocated: make(map[netip.AddrPort]struct{})}

// FreeAddr returns a loopback address with a free port for Spawn.
func FreeAddr() (netip.AddrPort, error) {
	return FreeAddrOn(loopback)
}

// FreeAddrOn returns an address on ip with a port the OS reports as free
// and that no earlier call in this process has returned.
//
// The port is found by binding :0 and closing the listener, so there is a
// small window in which something else may take it before Spawn binds.
func FreeAddrOn(ip netip.Addr) (netip.AddrPort, error) {
	return ports.allocate(ip)
}

func (a *portAllocator) allocate(ip netip.Addr) (netip.AddrPort, error) {
	for range maxAllocAttempts {
		ln, err := net.Listen("tcp", netip.AddrPortFrom(ip, 0).String())
		if err != nil {
			return netip.AddrPort{}, fmt.Errorf("allocate port: %w", err)
		}
		port := uint16(ln.Addr().(*net.TCPAddr).Port)
		ln.Close()

		addr := netip.AddrPortFrom(ip, port)
		if a.claim(addr) {
			return addr, nil
		}
	}
	return netip.AddrPort{}, fmt.Errorf("allocate port on %s: no unused port after %d attempts", ip, maxAllocAttempts)
}

func (a *portAllocator) claim(addr netip.AddrPort) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.allocated[addr]; ok {
		return false
	}
	a.allocated[addr] = struct{}{}
	return true
}
