package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the complete cage configuration.
type Config struct {
	Sandbox SandboxConfig `toml:"sandbox"`
	Network NetworkConfig `toml:"network"`
	Audio   AudioConfig   `toml:"audio"`
	Output  OutputConfig  `toml:"output"`
}

// SandboxConfig contains session and image settings.
type SandboxConfig struct {
	// Image is the container image used for every session.
	Image string `toml:"image"`

	// User is the unprivileged account the workload runs as after the
	// entrypoint drops privileges.
	User string `toml:"user"`

	// Command is the default workload when none is given on the command
	// line. The default runs the assistant in unattended mode.
	Command []string `toml:"command"`

	// APIKeyVar names the host environment variable passed through to the
	// session unchanged.
	APIKeyVar string `toml:"api_key_var"`
}

// NetworkConfig contains the egress allow-list inputs.
type NetworkConfig struct {
	// BridgeHost is the name the container runtime resolves to the host
	// bridge address.
	BridgeHost string `toml:"bridge_host"`

	// StaticPorts are the fixed host-side service ports every session may
	// reach on the bridge address: the audio daemon plus the two inference
	// endpoints.
	StaticPorts []int `toml:"static_ports"`

	// PrivateRanges are the CIDRs dropped after host-service carve-outs.
	PrivateRanges []string `toml:"private_ranges"`
}

// AudioConfig contains host audio daemon settings.
type AudioConfig struct {
	// Port is the TCP port the host audio daemon listens on.
	Port int `toml:"port"`

	// SyncDevices mirrors the host's current input/output devices onto the
	// daemon defaults before each launch.
	SyncDevices bool `toml:"sync_devices"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			Image:     "cage",
			User:      "agent",
			Command:   []string{"assistant", "--unattended"},
			APIKeyVar: "ASSISTANT_API_KEY",
		},
		Network: NetworkConfig{
			BridgeHost:  "host.docker.internal",
			StaticPorts: []int{4713, 8880, 9090},
			PrivateRanges: []string{
				"10.0.0.0/8",
				"172.16.0.0/12",
				"192.168.0.0/16",
				"169.254.0.0/16",
			},
		},
		Audio: AudioConfig{
			Port:        4713,
			SyncDevices: true,
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
			Verbose: false,
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
