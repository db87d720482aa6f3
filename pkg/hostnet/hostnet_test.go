package hostnet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const routeFixture = `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	00000000	010011AC	0003	0	0	0	00000000	0	0	0
eth0	000011AC	00000000	0001	0	0	0	0000FFFF	0	0	0
`

func TestParseDefaultGateway(t *testing.T) {
	gw, err := parseDefaultGateway(strings.NewReader(routeFixture))
	if err != nil {
		t.Fatalf("parseDefaultGateway() error: %v", err)
	}
	// 010011AC little-endian is 172.17.0.1
	if gw != "172.17.0.1" {
		t.Errorf("parseDefaultGateway() = %q, want 172.17.0.1", gw)
	}
}

func TestParseDefaultGatewayNoDefaultRoute(t *testing.T) {
	content := `Iface	Destination	Gateway 	Flags
eth0	000011AC	00000000	0001
`
	if _, err := parseDefaultGateway(strings.NewReader(content)); err == nil {
		t.Error("expected error when no default route exists")
	}
}

func TestParseNameservers(t *testing.T) {
	content := `# Generated by the container runtime
nameserver 127.0.0.11
nameserver 8.8.8.8
nameserver fe80::1
search example.com
; comment
`
	servers := parseNameservers(strings.NewReader(content))
	want := []string{"127.0.0.11", "8.8.8.8"}
	if len(servers) != len(want) {
		t.Fatalf("parseNameservers() = %v, want %v", servers, want)
	}
	for i := range want {
		if servers[i] != want[i] {
			t.Errorf("servers[%d] = %q, want %q", i, servers[i], want[i])
		}
	}
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolve(t *testing.T) {
	r := NewResolver("host.docker.internal")
	r.RoutePath = writeFixture(t, "route", routeFixture)
	r.ResolvConfPath = writeFixture(t, "resolv.conf", "nameserver 127.0.0.11\n")
	r.lookupHost = func(ctx context.Context, host string) ([]string, error) {
		return []string{"192.168.65.2"}, nil
	}

	set, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if set.BridgeIP != "192.168.65.2" {
		t.Errorf("BridgeIP = %q, want 192.168.65.2", set.BridgeIP)
	}
	if set.GatewayIP != "172.17.0.1" {
		t.Errorf("GatewayIP = %q, want 172.17.0.1", set.GatewayIP)
	}
	// Gateway is appended as a DNS fallback after configured resolvers.
	want := []string{"127.0.0.11", "172.17.0.1"}
	if len(set.DNSServers) != len(want) {
		t.Fatalf("DNSServers = %v, want %v", set.DNSServers, want)
	}
	for i := range want {
		if set.DNSServers[i] != want[i] {
			t.Errorf("DNSServers[%d] = %q, want %q", i, set.DNSServers[i], want[i])
		}
	}
}

func TestResolveBridgeFailureDegrades(t *testing.T) {
	r := NewResolver("host.docker.internal")
	r.RoutePath = writeFixture(t, "route", routeFixture)
	r.ResolvConfPath = writeFixture(t, "resolv.conf", "nameserver 127.0.0.11\n")
	r.lookupHost = func(ctx context.Context, host string) ([]string, error) {
		return nil, errors.New("no such host")
	}

	set, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrBridgeUnresolved) {
		t.Errorf("expected ErrBridgeUnresolved, got %v", err)
	}

	// The rest of the set is still usable.
	if set.BridgeIP != "" {
		t.Errorf("BridgeIP should be empty, got %q", set.BridgeIP)
	}
	if set.GatewayIP != "172.17.0.1" {
		t.Errorf("GatewayIP = %q, want 172.17.0.1", set.GatewayIP)
	}
	if len(set.DNSServers) == 0 {
		t.Error("DNSServers should survive a bridge lookup failure")
	}
}

func TestResolveDedupesGatewayResolver(t *testing.T) {
	// When resolv.conf already lists the gateway, the fallback append must
	// not duplicate it.
	r := NewResolver("host.docker.internal")
	r.RoutePath = writeFixture(t, "route", routeFixture)
	r.ResolvConfPath = writeFixture(t, "resolv.conf", "nameserver 172.17.0.1\n")
	r.lookupHost = func(ctx context.Context, host string) ([]string, error) {
		return []string{"192.168.65.2"}, nil
	}

	set, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(set.DNSServers) != 1 || set.DNSServers[0] != "172.17.0.1" {
		t.Errorf("DNSServers = %v, want [172.17.0.1]", set.DNSServers)
	}
}

func TestFirstIPv4SkipsIPv6(t *testing.T) {
	if got := firstIPv4([]string{"fd00::2", "192.168.65.2"}); got != "192.168.65.2" {
		t.Errorf("firstIPv4() = %q, want 192.168.65.2", got)
	}
	if got := firstIPv4([]string{"fd00::2"}); got != "" {
		t.Errorf("firstIPv4() = %q, want empty", got)
	}
}
