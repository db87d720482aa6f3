package privdrop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SessionFiles describes the configuration written into the session home on
// first run.
type SessionFiles struct {
	// PulseServer is the audio client's server address
	// (e.g. "tcp:host.docker.internal:4713").
	PulseServer string

	// TTSEndpoint and STTEndpoint are the host inference-service URLs.
	TTSEndpoint string
	STTEndpoint string

	// UID and GID own the created files so the unprivileged identity can
	// read and edit them.
	UID int
	GID int
}

type voiceEndpoints struct {
	TTSURL string `toml:"tts_url"`
	STTURL string `toml:"stt_url"`
}

// FirstRunSetup writes the session configuration files under home with
// create-if-absent semantics: re-running against an existing session never
// overwrites user edits. Idempotent by construction, not by marker files.
func FirstRunSetup(home string, files SessionFiles) error {
	pulseConf := fmt.Sprintf("default-server = %s\nautospawn = no\n", files.PulseServer)
	if err := writeIfAbsent(filepath.Join(home, ".config", "pulse", "client.conf"), []byte(pulseConf), files); err != nil {
		return fmt.Errorf("audio client config: %w", err)
	}

	voiceConf, err := toml.Marshal(voiceEndpoints{
		TTSURL: files.TTSEndpoint,
		STTURL: files.STTEndpoint,
	})
	if err != nil {
		return fmt.Errorf("voice endpoint config: %w", err)
	}
	if err := writeIfAbsent(filepath.Join(home, ".config", "cage", "voice.toml"), voiceConf, files); err != nil {
		return fmt.Errorf("voice endpoint config: %w", err)
	}

	return nil
}

// writeIfAbsent creates path with the given content only when it does not
// already exist, creating parent directories as needed and chowning new
// files to the session identity.
func writeIfAbsent(path string, content []byte, files SessionFiles) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return err
	}

	if files.UID > 0 {
		// Ownership errors are non-fatal on platforms/tests without the
		// target user.
		_ = os.Chown(path, files.UID, files.GID) //nolint:errcheck
		_ = os.Chown(dir, files.UID, files.GID)  //nolint:errcheck
	}
	return nil
}
