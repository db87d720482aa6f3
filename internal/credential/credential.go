// Package credential gates forwarding of the host's git identity and ssh
// agent into a session.
//
// A Grant references the host agent socket; key material is never read,
// copied, or persisted. The grant dies with the session's process tree.
package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrPrecondition indicates credential forwarding was requested without the
// required host-side setup. All-or-nothing: a partial credential setup never
// proceeds.
var ErrPrecondition = errors.New("credential forwarding precondition not met")

// ContainerSocketPath is where the forwarded agent socket appears inside
// the session.
const ContainerSocketPath = "/run/host-services/ssh-auth.sock"

// Identity is the host git identity attached to forwarded credentials.
type Identity struct {
	Name  string
	Email string
}

// Grant is a session-scoped reference to the host credential agent plus the
// identity metadata. Never written to persistent storage.
type Grant struct {
	Identity   Identity
	SocketPath string
}

// Runner is the command seam used to read the host git configuration.
type Runner interface {
	OutputQuiet(ctx context.Context, name string, args ...string) (string, error)
}

// GitIdentity reads the global git identity from the host. Missing values
// come back empty; Evaluate decides whether that is fatal.
func GitIdentity(ctx context.Context, runner Runner) Identity {
	get := func(key string) string {
		out, err := runner.OutputQuiet(ctx, "git", "config", "--global", key)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(out)
	}
	return Identity{
		Name:  get("user.name"),
		Email: get("user.email"),
	}
}

// Evaluate checks every forwarding precondition and produces a Grant only
// when all hold. Each missing precondition gets its own remediation line.
func Evaluate(id Identity, socketPath string) (Grant, error) {
	var problems []string

	if socketPath == "" {
		problems = append(problems,
			"SSH agent not running. Start it with:\n"+
				"    eval $(ssh-agent -s)\n"+
				"    ssh-add ~/.ssh/your_key")
	} else if !socketExists(socketPath) {
		problems = append(problems,
			fmt.Sprintf("SSH agent socket %s is gone. Restart the agent:\n"+
				"    eval $(ssh-agent -s)", socketPath))
	}

	if id.Name == "" {
		problems = append(problems,
			`git user.name not set. Run: git config --global user.name "Your Name"`)
	}
	if id.Email == "" {
		problems = append(problems,
			`git user.email not set. Run: git config --global user.email "you@example.com"`)
	}

	if len(problems) > 0 {
		return Grant{}, fmt.Errorf("%w:\n  %s", ErrPrecondition, strings.Join(problems, "\n  "))
	}

	return Grant{Identity: id, SocketPath: socketPath}, nil
}

// MountArgs returns the docker arguments that forward the agent socket.
func (g Grant) MountArgs() []string {
	return []string{"-v", g.SocketPath + ":" + ContainerSocketPath}
}

// Env returns the environment the session needs to use the grant.
func (g Grant) Env() []string {
	return []string{
		"SSH_AUTH_SOCK=" + ContainerSocketPath,
		"GIT_AUTHOR_NAME=" + g.Identity.Name,
		"GIT_AUTHOR_EMAIL=" + g.Identity.Email,
		"GIT_COMMITTER_NAME=" + g.Identity.Name,
		"GIT_COMMITTER_EMAIL=" + g.Identity.Email,
	}
}

func socketExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSocket != 0
}
