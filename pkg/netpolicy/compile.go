package netpolicy

import (
	"errors"
	"fmt"
	"net"
	"sort"

	"cage/pkg/hostnet"
)

// ErrInvalidPort is returned for ports outside 1..65535. Invalid input is
// rejected up front, never silently dropped during compile.
var ErrInvalidPort = errors.New("port out of range")

// Options are the declarative allow-list inputs.
type Options struct {
	// StaticPorts are the fixed host-side service ports.
	StaticPorts []int

	// ExtraPorts are user-requested host ports, unioned with StaticPorts.
	ExtraPorts []int

	// PrivateRanges are the CIDRs dropped after host-service carve-outs.
	PrivateRanges []string
}

// ValidatePorts checks that every port is within the valid range.
func ValidatePorts(ports []int) error {
	for _, p := range ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPort, p)
		}
	}
	return nil
}

// Compile turns the resolved host endpoints and allow-list inputs into an
// ordered Policy. First match wins; the default chain policy is DROP.
//
// When the bridge address is unresolved the host-service rules are omitted:
// isolation still holds, only host-service reachability is lost.
func Compile(eps hostnet.EndpointSet, opts Options) (Policy, error) {
	if err := ValidatePorts(opts.StaticPorts); err != nil {
		return Policy{}, fmt.Errorf("static ports: %w", err)
	}
	if err := ValidatePorts(opts.ExtraPorts); err != nil {
		return Policy{}, fmt.Errorf("extra ports: %w", err)
	}
	for _, cidr := range opts.PrivateRanges {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return Policy{}, fmt.Errorf("private range %q: %w", cidr, err)
		}
	}

	p := Policy{Default: Drop}

	// 1. Loopback.
	p.Rules = append(p.Rules, Rule{Action: Accept, OutIface: "lo"})

	// 2. Replies to already-permitted flows.
	p.Rules = append(p.Rules, Rule{Action: Accept, ConnStates: "ESTABLISHED,RELATED"})

	// 3. DNS to every resolved resolver address.
	for _, dns := range dedupeStrings(eps.DNSServers) {
		p.Rules = append(p.Rules,
			Rule{Action: Accept, Proto: "udp", Dest: dns, Port: 53},
			Rule{Action: Accept, Proto: "tcp", Dest: dns, Port: 53},
		)
	}

	// 4. Host services on the bridge address. The bridge may itself live
	// inside a private range, so these must precede the DROP rules.
	if eps.BridgeIP != "" {
		for _, port := range unionPorts(opts.StaticPorts, opts.ExtraPorts) {
			p.Rules = append(p.Rules, Rule{
				Action: Accept,
				Proto:  "tcp",
				Dest:   eps.BridgeIP,
				Port:   port,
			})
		}
	}

	// 5. Private and link-local ranges.
	for _, cidr := range opts.PrivateRanges {
		p.Rules = append(p.Rules, Rule{Action: Drop, Dest: cidr})
	}

	// 6. Everything else is the public internet, explicitly opted in.
	p.Rules = append(p.Rules, Rule{Action: Accept})

	return p, nil
}

// unionPorts merges, dedupes and sorts the static and extra port sets. Extra
// ports are unioned, never intersected: an explicitly requested port must be
// reachable even when absent from the defaults.
func unionPorts(static, extra []int) []int {
	seen := make(map[int]bool, len(static)+len(extra))
	var out []int
	for _, set := range [][]int{static, extra} {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Ints(out)
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
