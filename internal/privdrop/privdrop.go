// Package privdrop applies a compiled egress policy while the entrypoint is
// still privileged, performs first-run session setup, and then permanently
// switches to the unprivileged workload identity.
//
// The order is the system's core safety property: Apply must complete in
// full before DropAndExec hands control to the workload, and the workload
// identity lacks the capability to alter the installed policy afterwards.
package privdrop

import (
	"context"
	"errors"
	"fmt"

	"cage/pkg/netpolicy"
)

// ErrPolicyApply indicates a filter rule failed to install. Always fatal:
// the workload must never start behind a partial policy.
var ErrPolicyApply = errors.New("network policy application failed")

const iptablesBin = "iptables"

// Runner executes a privileged system command. *executor.Executor satisfies
// it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// Apply installs the policy into the live packet filter, in order. The
// chain default is set to the deny policy first so that an interrupted
// application leaves the session with no egress rather than full egress.
func Apply(ctx context.Context, policy netpolicy.Policy, runner Runner) error {
	if err := runner.Run(ctx, iptablesBin, "-P", "OUTPUT", string(policy.Default)); err != nil {
		return fmt.Errorf("%w: set default %s: %v", ErrPolicyApply, policy.Default, err)
	}
	if err := runner.Run(ctx, iptablesBin, "-F", "OUTPUT"); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrPolicyApply, err)
	}
	for _, rule := range policy.Rules {
		if err := runner.Run(ctx, iptablesBin, rule.Args()...); err != nil {
			return fmt.Errorf("%w: install %q: %v", ErrPolicyApply, rule.String(), err)
		}
	}
	return nil
}
