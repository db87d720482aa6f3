package privdrop

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testFiles() SessionFiles {
	return SessionFiles{
		PulseServer: "tcp:host.docker.internal:4713",
		TTSEndpoint: "http://host.docker.internal:8880",
		STTEndpoint: "http://host.docker.internal:9090",
	}
}

func TestFirstRunSetupCreatesFiles(t *testing.T) {
	home := t.TempDir()

	if err := FirstRunSetup(home, testFiles()); err != nil {
		t.Fatalf("FirstRunSetup() error: %v", err)
	}

	pulse, err := os.ReadFile(filepath.Join(home, ".config", "pulse", "client.conf"))
	if err != nil {
		t.Fatalf("pulse client config not created: %v", err)
	}
	if !strings.Contains(string(pulse), "default-server = tcp:host.docker.internal:4713") {
		t.Errorf("pulse config missing server address: %q", pulse)
	}

	voice, err := os.ReadFile(filepath.Join(home, ".config", "cage", "voice.toml"))
	if err != nil {
		t.Fatalf("voice config not created: %v", err)
	}
	if !strings.Contains(string(voice), "8880") || !strings.Contains(string(voice), "9090") {
		t.Errorf("voice config missing endpoints: %q", voice)
	}
}

func TestFirstRunSetupIdempotent(t *testing.T) {
	home := t.TempDir()

	if err := FirstRunSetup(home, testFiles()); err != nil {
		t.Fatal(err)
	}

	// Simulate a user edit, then re-run.
	pulsePath := filepath.Join(home, ".config", "pulse", "client.conf")
	edited := "default-server = tcp:other:1234\n"
	if err := os.WriteFile(pulsePath, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	if err := FirstRunSetup(home, testFiles()); err != nil {
		t.Fatalf("second FirstRunSetup() error: %v", err)
	}

	got, err := os.ReadFile(pulsePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != edited {
		t.Errorf("re-run overwrote user edit: %q", got)
	}
}

func TestWriteIfAbsentCreatesParents(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "a", "b", "c.txt")

	if err := writeIfAbsent(path, []byte("x"), SessionFiles{}); err != nil {
		t.Fatalf("writeIfAbsent() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}
