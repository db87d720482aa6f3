package credential

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
)

// listenSocket creates a real unix socket for liveness checks.
func listenSocket(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sock")
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Skipf("cannot create unix socket: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return path
}

func TestEvaluateSuccess(t *testing.T) {
	sock := listenSocket(t)
	id := Identity{Name: "Test User", Email: "test@example.com"}

	grant, err := Evaluate(id, sock)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if grant.SocketPath != sock {
		t.Errorf("SocketPath = %q, want %q", grant.SocketPath, sock)
	}
	if grant.Identity != id {
		t.Errorf("Identity = %+v, want %+v", grant.Identity, id)
	}
}

func TestEvaluateMissingPreconditions(t *testing.T) {
	sock := listenSocket(t)

	tests := []struct {
		name     string
		id       Identity
		sock     string
		mentions []string
	}{
		{
			"no agent socket",
			Identity{Name: "A", Email: "a@b.c"},
			"",
			[]string{"ssh-agent"},
		},
		{
			"dead socket path",
			Identity{Name: "A", Email: "a@b.c"},
			"/nonexistent/agent.sock",
			[]string{"ssh-agent"},
		},
		{
			"no name",
			Identity{Email: "a@b.c"},
			sock,
			[]string{"user.name"},
		},
		{
			"no email",
			Identity{Name: "A"},
			sock,
			[]string{"user.email"},
		},
		{
			"everything missing",
			Identity{},
			"",
			[]string{"ssh-agent", "user.name", "user.email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.id, tt.sock)
			if !errors.Is(err, ErrPrecondition) {
				t.Fatalf("Evaluate() error = %v, want ErrPrecondition", err)
			}
			// Remediation text names each missing precondition.
			for _, m := range tt.mentions {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("error %q does not mention %q", err, m)
				}
			}
		})
	}
}

func TestGrantEnv(t *testing.T) {
	g := Grant{
		Identity:   Identity{Name: "Test User", Email: "test@example.com"},
		SocketPath: "/tmp/agent.sock",
	}

	env := g.Env()
	want := map[string]bool{
		"SSH_AUTH_SOCK=" + ContainerSocketPath:   false,
		"GIT_AUTHOR_NAME=Test User":              false,
		"GIT_AUTHOR_EMAIL=test@example.com":      false,
		"GIT_COMMITTER_NAME=Test User":           false,
		"GIT_COMMITTER_EMAIL=test@example.com":   false,
	}
	for _, e := range env {
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("missing env entry %q", k)
		}
	}
}

func TestGrantMountArgs(t *testing.T) {
	g := Grant{SocketPath: "/tmp/agent.sock"}
	args := strings.Join(g.MountArgs(), " ")
	if args != "-v /tmp/agent.sock:"+ContainerSocketPath {
		t.Errorf("MountArgs() = %q", args)
	}
}

type fakeGitRunner struct {
	values map[string]string
}

func (f *fakeGitRunner) OutputQuiet(ctx context.Context, name string, args ...string) (string, error) {
	key := args[len(args)-1]
	if v, ok := f.values[key]; ok {
		return v + "\n", nil
	}
	return "", errors.New("not set")
}

func TestGitIdentity(t *testing.T) {
	runner := &fakeGitRunner{values: map[string]string{
		"user.name": "Test User",
	}}

	id := GitIdentity(context.Background(), runner)
	if id.Name != "Test User" {
		t.Errorf("Name = %q, want 'Test User'", id.Name)
	}
	if id.Email != "" {
		t.Errorf("Email = %q, want empty for unset key", id.Email)
	}
}
