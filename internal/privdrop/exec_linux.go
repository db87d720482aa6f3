//go:build linux

package privdrop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"
)

// ErrExec indicates the identity switch or final exec failed. Fatal: the
// session aborts rather than running the workload privileged.
var ErrExec = errors.New("cannot switch to workload identity")

// Identity is a resolved unprivileged account.
type Identity struct {
	Name string
	UID  int
	GID  int
	Home string
}

// LookupIdentity resolves the unprivileged account the workload runs as.
func LookupIdentity(username string) (Identity, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: lookup %q: %v", ErrExec, username, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: uid %q: %v", ErrExec, u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: gid %q: %v", ErrExec, u.Gid, err)
	}
	return Identity{Name: username, UID: uid, GID: gid, Home: u.HomeDir}, nil
}

// FixSocketPerms makes a forwarded credential socket usable by the session
// identity. The socket is a reference to the host agent, not a copy; only
// its permission bits change.
func FixSocketPerms(path string, id Identity) error {
	if err := os.Chown(path, id.UID, id.GID); err != nil {
		return fmt.Errorf("chown %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}

// RunUnprivileged runs a best-effort helper command under the session
// identity while the entrypoint itself is still root. Used for the voice
// plugin installer; failures are the caller's to log, not fatal.
func RunUnprivileged(ctx context.Context, id Identity, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = id.Home
	cmd.Env = append(os.Environ(), "HOME="+id.Home, "USER="+id.Name)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid: uint32(id.UID),
			Gid: uint32(id.GID),
		},
	}
	return cmd.Run()
}

// DropAndExec permanently switches the process to the unprivileged identity
// and replaces it with the workload command. On success it never returns:
// no privileged code remains resident, and the new identity cannot
// re-invoke Apply (no CAP_NET_ADMIN, no re-elevation path).
//
// The supplementary group list is cleared before the gid/uid switch; the
// uid switch comes last because nothing may run privileged after it.
func DropAndExec(id Identity, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("%w: empty command", ErrExec)
	}

	bin, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("%w: %s not found: %v", ErrExec, argv[0], err)
	}

	if err := os.Chdir(id.Home); err != nil {
		fmt.Fprintf(os.Stderr, "[cage-init] warning: chdir %s: %v\n", id.Home, err)
	}

	if err := syscall.Setgroups([]int{id.GID}); err != nil {
		return fmt.Errorf("%w: setgroups: %v", ErrExec, err)
	}
	if err := syscall.Setgid(id.GID); err != nil {
		return fmt.Errorf("%w: setgid(%d): %v", ErrExec, id.GID, err)
	}
	if err := syscall.Setuid(id.UID); err != nil {
		return fmt.Errorf("%w: setuid(%d): %v", ErrExec, id.UID, err)
	}

	env := append(os.Environ(), "HOME="+id.Home, "USER="+id.Name, "LOGNAME="+id.Name)

	if err := syscall.Exec(bin, argv, env); err != nil {
		return fmt.Errorf("%w: exec %s: %v", ErrExec, bin, err)
	}
	return nil // unreachable
}
