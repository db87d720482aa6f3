// Package hostnet resolves the host-side addresses a session needs to build
// its egress policy: the host bridge address, the default gateway, and the
// configured DNS resolvers.
//
// Resolution is read-only and performed fresh for every session start; the
// addresses are only valid for the lifetime of one network-namespace setup.
package hostnet

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrBridgeUnresolved indicates the host bridge name did not resolve. The
// session still starts; host-service rules are skipped instead.
var ErrBridgeUnresolved = errors.New("host bridge address could not be resolved")

const (
	defaultRoutePath      = "/proc/net/route"
	defaultResolvConfPath = "/etc/resolv.conf"
	defaultTimeout        = 3 * time.Second
)

// EndpointSet holds the resolved host addresses. Fields may be empty when
// the corresponding lookup failed; consumers degrade rather than fail.
type EndpointSet struct {
	// BridgeIP is the host bridge address, empty when unresolved.
	BridgeIP string

	// GatewayIP is the container's default gateway, empty when unknown.
	GatewayIP string

	// DNSServers are the resolver addresses, deduplicated, with the
	// gateway appended as a fallback (the runtime's DNS may be reachable
	// only through it).
	DNSServers []string
}

// Resolver performs host endpoint resolution. The zero value is not usable;
// construct with NewResolver.
type Resolver struct {
	// BridgeHost is the name the container runtime maps to the host
	// bridge address.
	BridgeHost string

	// RoutePath and ResolvConfPath exist as seams for tests.
	RoutePath      string
	ResolvConfPath string

	// Timeout bounds the bridge name lookup. Resolution must fail fast
	// into the degraded branch, never block a session start.
	Timeout time.Duration

	lookupHost func(ctx context.Context, host string) ([]string, error)
}

// NewResolver creates a Resolver for the given bridge host name.
func NewResolver(bridgeHost string) *Resolver {
	return &Resolver{
		BridgeHost:     bridgeHost,
		RoutePath:      defaultRoutePath,
		ResolvConfPath: defaultResolvConfPath,
		Timeout:        defaultTimeout,
		lookupHost:     net.DefaultResolver.LookupHost,
	}
}

// Resolve gathers the endpoint set. A failed bridge lookup is reported by
// wrapping ErrBridgeUnresolved while still returning a usable (degraded)
// set; callers warn and continue. Gateway and DNS failures only leave the
// corresponding fields empty.
func (r *Resolver) Resolve(ctx context.Context) (EndpointSet, error) {
	var set EndpointSet
	var bridgeErr error

	lookupCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	addrs, err := r.lookupHost(lookupCtx, r.BridgeHost)
	if err != nil || len(addrs) == 0 {
		bridgeErr = fmt.Errorf("%w: lookup %s: %v", ErrBridgeUnresolved, r.BridgeHost, err)
	} else {
		set.BridgeIP = firstIPv4(addrs)
		if set.BridgeIP == "" {
			bridgeErr = fmt.Errorf("%w: %s has no IPv4 address", ErrBridgeUnresolved, r.BridgeHost)
		}
	}

	if f, err := os.Open(r.RoutePath); err == nil {
		gw, err := parseDefaultGateway(f)
		f.Close()
		if err == nil {
			set.GatewayIP = gw
		}
	}

	var servers []string
	if f, err := os.Open(r.ResolvConfPath); err == nil {
		servers = parseNameservers(f)
		f.Close()
	}
	if set.GatewayIP != "" {
		servers = append(servers, set.GatewayIP)
	}
	set.DNSServers = dedupe(servers)

	return set, bridgeErr
}

// parseDefaultGateway extracts the default route's gateway from
// /proc/net/route content (little-endian hex fields).
func parseDefaultGateway(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] == "Iface" {
			continue
		}
		if fields[1] != "00000000" {
			continue
		}
		gw, err := parseHexIP(fields[2])
		if err != nil {
			return "", err
		}
		return gw, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no default route found")
}

// parseHexIP converts a little-endian hex address from the kernel route
// table into dotted form.
func parseHexIP(s string) (string, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return "", fmt.Errorf("parsing route address %q: %w", s, err)
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return net.IP(b).String(), nil
}

// parseNameservers extracts nameserver addresses from resolv.conf content.
func parseNameservers(r io.Reader) []string {
	var servers []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "nameserver" {
			continue
		}
		if ip := net.ParseIP(fields[1]); ip != nil && ip.To4() != nil {
			servers = append(servers, fields[1])
		}
	}
	return servers
}

func firstIPv4(addrs []string) string {
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	return ""
}

func dedupe(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	var out []string
	for _, a := range addrs {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
