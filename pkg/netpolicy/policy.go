// Package netpolicy compiles a declarative egress allow-list into an ordered
// packet-filter rule sequence with a default-deny tail.
//
// Rule order is significant: specific ACCEPT rules for loopback, return
// traffic, DNS and host services come first, the private-range DROP rules
// follow, and a terminal ACCEPT opts the public internet back in. The
// default chain policy stays DROP so nothing is reachable if application
// stops half way.
package netpolicy

import (
	"fmt"
	"strings"
)

// Action is a packet-filter verdict.
type Action string

const (
	Accept Action = "ACCEPT"
	Drop   Action = "DROP"
)

// Rule is one ordered entry in the output chain. Zero-valued match fields
// mean "any".
type Rule struct {
	Action Action

	// Proto is "tcp", "udp" or empty for any protocol.
	Proto string

	// Dest is a destination IP or CIDR, empty for any destination.
	Dest string

	// Port is the destination port, 0 for any.
	Port int

	// OutIface restricts the rule to an output interface ("lo").
	OutIface string

	// ConnStates enables stateful matching ("ESTABLISHED,RELATED").
	ConnStates string
}

// Args renders the rule as iptables arguments appending to the OUTPUT chain.
func (r Rule) Args() []string {
	args := []string{"-A", "OUTPUT"}
	if r.OutIface != "" {
		args = append(args, "-o", r.OutIface)
	}
	if r.Proto != "" {
		args = append(args, "-p", r.Proto)
	}
	if r.Dest != "" {
		args = append(args, "-d", r.Dest)
	}
	if r.Port != 0 {
		args = append(args, "--dport", fmt.Sprintf("%d", r.Port))
	}
	if r.ConnStates != "" {
		args = append(args, "-m", "state", "--state", r.ConnStates)
	}
	return append(args, "-j", string(r.Action))
}

func (r Rule) String() string {
	return strings.Join(r.Args(), " ")
}

// Policy is the compiled ordered rule set. It is built fresh per session
// start, never persisted, and never mutated after application.
type Policy struct {
	Rules []Rule

	// Default is the chain policy applied before any rule is installed,
	// so an interrupted application fails closed.
	Default Action
}

// String renders a readable listing of the policy, one rule per line.
func (p Policy) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "-P OUTPUT %s\n", p.Default)
	for _, r := range p.Rules {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
