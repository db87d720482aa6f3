package privdrop

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cage/pkg/hostnet"
	"cage/pkg/netpolicy"
)

// fakeRunner records commands and can fail on a chosen invocation.
type fakeRunner struct {
	calls  [][]string
	failAt int // 1-based call index to fail on, 0 never fails
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return errors.New("injected failure")
	}
	return nil
}

func compileTestPolicy(t *testing.T) netpolicy.Policy {
	t.Helper()
	p, err := netpolicy.Compile(hostnet.EndpointSet{
		BridgeIP:   "192.168.65.2",
		DNSServers: []string{"127.0.0.11"},
	}, netpolicy.Options{
		StaticPorts:   []int{4713},
		PrivateRanges: []string{"10.0.0.0/8"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestApplySetsDefaultDenyFirst(t *testing.T) {
	runner := &fakeRunner{}
	policy := compileTestPolicy(t)

	if err := Apply(context.Background(), policy, runner); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if len(runner.calls) < 2 {
		t.Fatalf("expected at least 2 calls, got %d", len(runner.calls))
	}

	first := strings.Join(runner.calls[0], " ")
	if first != "iptables -P OUTPUT DROP" {
		t.Errorf("first call = %q, want default-deny policy set", first)
	}

	// Every rule is installed, in compile order, after the flush.
	ruleCalls := runner.calls[2:]
	if len(ruleCalls) != len(policy.Rules) {
		t.Fatalf("installed %d rules, want %d", len(ruleCalls), len(policy.Rules))
	}
	for i, rule := range policy.Rules {
		got := strings.Join(ruleCalls[i][1:], " ")
		if got != rule.String() {
			t.Errorf("rule %d installed as %q, want %q", i, got, rule.String())
		}
	}
}

func TestApplyFailsClosed(t *testing.T) {
	policy := compileTestPolicy(t)

	// Whichever call fails, Apply reports ErrPolicyApply and stops
	// immediately: no later rule is attempted past a broken policy.
	for failAt := 1; failAt <= len(policy.Rules)+2; failAt++ {
		runner := &fakeRunner{failAt: failAt}
		err := Apply(context.Background(), policy, runner)
		if !errors.Is(err, ErrPolicyApply) {
			t.Fatalf("failAt=%d: error = %v, want ErrPolicyApply", failAt, err)
		}
		if len(runner.calls) != failAt {
			t.Errorf("failAt=%d: %d calls made, want stop at failure", failAt, len(runner.calls))
		}
	}
}
