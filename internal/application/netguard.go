package application

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/scholarseal/veritas/internal/domain"
)

// NetworkGuard confines all extractor traffic to local destinations. It
// hands out http.Clients whose dialer resolves every address and refuses
// anything that is not loopback or RFC 1918/4193 private, recording the
// attempt as an isolation breach.
//
// A breach is treated as a compromised run, not a soft failure: the dial
// returns a domain.IsolationBreachError and the sandbox aborts the whole
// submission once the guard reports a recorded breach.
type NetworkGuard struct {
	mu     sync.Mutex
	breach *domain.IsolationBreachError
}

// NewNetworkGuard creates a guard with no recorded breaches.
func NewNetworkGuard() *NetworkGuard {
	return &NetworkGuard{}
}

// GuardedClient returns an http.Client whose connections are restricted
// to local addresses. The extractor name labels any breach the client
// trips.
func (g *NetworkGuard) GuardedClient(extractor string, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if err := g.check(extractor, network, addr); err != nil {
					return nil, err
				}
				return dialer.DialContext(ctx, network, addr)
			},
			MaxIdleConns:        4,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}

// check validates one dial target, recording and returning a breach
// error when the target is non-local.
func (g *NetworkGuard) check(extractor, network, addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if localHost(host) {
		return nil
	}

	breach := &domain.IsolationBreachError{
		Extractor: extractor,
		Network:   network,
		Address:   addr,
	}
	g.mu.Lock()
	if g.breach == nil {
		g.breach = breach
	}
	g.mu.Unlock()
	return breach
}

// Breach returns the first recorded isolation breach, or nil.
func (g *NetworkGuard) Breach() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.breach == nil {
		return nil
	}
	return g.breach
}

// localHost reports whether a hostname or literal address is loopback or
// private. Hostnames are resolved so a public name cannot slip through
// as a string; resolution failure counts as non-local.
func localHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return localIP(ip)
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return false
	}
	for _, ip := range ips {
		if !localIP(ip) {
			return false
		}
	}
	return true
}

func localIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
