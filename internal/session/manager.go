package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"cage/internal/audio"
	"cage/internal/config"
	"cage/internal/credential"
	"cage/internal/docker"
	"cage/internal/executor"
	"cage/internal/history"
	"cage/internal/ui"
	"cage/pkg/netpolicy"
)

var (
	// ErrSessionExists is returned when a live session already holds the
	// profile's container identity. The launcher never attaches to or
	// restarts it.
	ErrSessionExists = errors.New("session already exists")

	// ErrVolume is returned when persistent storage cannot be prepared.
	ErrVolume = errors.New("volume setup failed")

	// ErrAudio is returned when the host audio daemon cannot be started.
	ErrAudio = errors.New("host audio daemon unavailable")

	// ErrImage is returned when the workload image cannot be provided.
	ErrImage = errors.New("workload image unavailable")
)

// ExitError carries the wrapped workload's exit code out of an interactive
// session.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("session exited with code %d", e.Code)
}

// Options describe one launch request.
type Options struct {
	// Profile is the session's profile name; empty selects the default.
	Profile string

	// Detach starts the session in the background with an idle
	// placeholder instead of attaching.
	Detach bool

	// ExtraPorts are additional host-service ports unioned into the
	// egress allow-list.
	ExtraPorts []int

	// ForwardGit forwards the host git identity and ssh agent.
	ForwardGit bool

	// Command overrides the default workload.
	Command []string

	// BuildContext is the directory the image provider builds from when
	// the image is absent.
	BuildContext string
}

// Manager launches and manages sessions.
type Manager struct {
	cfg     *config.Config
	docker  *docker.Client
	audio   *audio.Daemon
	git     credential.Runner
	store   *history.Store // nil disables history
	environ func(string) string
}

// NewManager wires a manager from its collaborators. store may be nil.
func NewManager(cfg *config.Config, dc *docker.Client, ad *audio.Daemon, git credential.Runner, store *history.Store) *Manager {
	return &Manager{
		cfg:     cfg,
		docker:  dc,
		audio:   ad,
		git:     git,
		store:   store,
		environ: os.Getenv,
	}
}

// Launch starts a session for the given options. Interactive launches block
// until the workload exits and return an *ExitError carrying its status;
// detached launches return once the container is up.
func (m *Manager) Launch(ctx context.Context, opts Options) error {
	profile, err := NewProfile(opts.Profile)
	if err != nil {
		return err
	}
	if err := netpolicy.ValidatePorts(opts.ExtraPorts); err != nil {
		return err
	}

	entry := history.NewEntry(history.OpLaunch, profile.Name())
	entry.Detached = opts.Detach
	entry.Ports = opts.ExtraPorts
	entry.GitAccess = opts.ForwardGit
	err = m.launch(ctx, profile, opts)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			// The session ran; a workload exit status is not a
			// launch failure.
			entry.MarkSuccess()
		} else {
			entry.MarkFailed(err)
		}
	} else {
		entry.MarkSuccess()
	}
	m.record(entry)
	return err
}

func (m *Manager) launch(ctx context.Context, profile Profile, opts Options) error {
	if err := m.ensureAudio(ctx); err != nil {
		return err
	}
	if err := m.ensureImage(ctx, opts.BuildContext); err != nil {
		return err
	}

	name := profile.ContainerName()
	if m.docker.ContainerExists(ctx, name) {
		return fmt.Errorf("%w: container %q is already running\nStop it first with: cage stop %s",
			ErrSessionExists, name, profile.Name())
	}

	// Gate credentials before any storage is created: a launch that
	// cannot forward what was asked for must leave nothing behind.
	var grant *credential.Grant
	if opts.ForwardGit {
		id := credential.GitIdentity(ctx, m.git)
		g, err := credential.Evaluate(id, m.environ("SSH_AUTH_SOCK"))
		if err != nil {
			return err
		}
		grant = &g
		ui.InfoMsg("Git access: enabled (%s <%s>)", g.Identity.Name, g.Identity.Email)
	}

	if err := m.ensureVolume(ctx, profile.HomeVolume(), profile.Name()); err != nil {
		return err
	}
	if err := m.ensureVolume(ctx, profile.WorkspaceVolume(), profile.Name()); err != nil {
		return err
	}

	m.syncAudioDevices(ctx)

	args := m.buildRunArgs(profile, grant, opts)

	if opts.Detach {
		ui.InfoMsg("Starting session in detached mode (profile: %s)", profile.Name())
		if err := m.docker.RunDetached(ctx, args); err != nil {
			return err
		}
		m.printDetachHelp(profile)
		return nil
	}

	ui.InfoMsg("Launching session (profile: %s)", profile.Name())
	err := m.docker.RunInteractive(ctx, args)
	if code := executor.ExitCode(err); code > 0 {
		return &ExitError{Code: code}
	}
	return err
}

// Stop stops the profile's running session.
func (m *Manager) Stop(ctx context.Context, profileName string) error {
	profile, err := NewProfile(profileName)
	if err != nil {
		return err
	}

	entry := history.NewEntry(history.OpStop, profile.Name())
	name := profile.ContainerName()
	if !m.docker.ContainerExists(ctx, name) {
		err := fmt.Errorf("no session found for profile %q", profile.Name())
		entry.MarkFailed(err)
		m.record(entry)
		return err
	}
	if err := m.docker.Stop(ctx, name); err != nil {
		entry.MarkFailed(err)
		m.record(entry)
		return err
	}
	entry.MarkSuccess()
	m.record(entry)
	return nil
}

// Wipe removes the profile's persistent volumes. Callers confirm first;
// volumes are never removed as a side effect of anything else.
func (m *Manager) Wipe(ctx context.Context, profileName string) error {
	profile, err := NewProfile(profileName)
	if err != nil {
		return err
	}
	if m.docker.ContainerExists(ctx, profile.ContainerName()) {
		return fmt.Errorf("%w: stop session %q before wiping its storage",
			ErrSessionExists, profile.Name())
	}

	entry := history.NewEntry(history.OpWipe, profile.Name())
	for _, vol := range []string{profile.HomeVolume(), profile.WorkspaceVolume()} {
		if !m.docker.VolumeExists(ctx, vol) {
			continue
		}
		if err := m.docker.RemoveVolume(ctx, vol); err != nil {
			wrapped := fmt.Errorf("%w: %v", ErrVolume, err)
			entry.MarkFailed(wrapped)
			m.record(entry)
			return wrapped
		}
		ui.InfoMsg("Removed volume %s", vol)
	}
	entry.MarkSuccess()
	m.record(entry)
	return nil
}

// Shell execs an interactive shell in the profile's running session under
// the unprivileged user.
func (m *Manager) Shell(ctx context.Context, profileName string) error {
	profile, err := NewProfile(profileName)
	if err != nil {
		return err
	}
	name := profile.ContainerName()
	if !m.docker.ContainerRunning(ctx, name) {
		return fmt.Errorf("no running session for profile %q\nStart one with: cage run %s --detach",
			profile.Name(), profile.Name())
	}
	return m.docker.Exec(ctx, name, m.cfg.Sandbox.User, []string{"/bin/bash"})
}

// Status describes one profile's current state.
type Status struct {
	Profile   string
	Running   bool
	HasHome   bool
	HasWork   bool
	Container string
}

// List returns the status of every known profile (running containers and
// existing volumes).
func (m *Manager) List(ctx context.Context) ([]Status, error) {
	containers, err := m.docker.ListContainers(ctx, VolumePrefix())
	if err != nil {
		return nil, err
	}
	volumes, err := m.docker.ListVolumes(ctx, VolumePrefix())
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*Status)
	get := func(name string) *Status {
		if s, ok := profiles[name]; ok {
			return s
		}
		s := &Status{Profile: name}
		profiles[name] = s
		return s
	}

	for _, c := range containers {
		if name := ProfileFromContainer(c); name != "" {
			s := get(name)
			s.Container = c
			s.Running = m.docker.ContainerRunning(ctx, c)
		}
	}
	for _, v := range volumes {
		name := strings.TrimPrefix(v, VolumePrefix())
		if ws := strings.TrimSuffix(name, "-workspace"); ws != name {
			get(ws).HasWork = true
		} else {
			get(name).HasHome = true
		}
	}

	var out []Status
	for _, s := range profiles {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profile < out[j].Profile })
	return out, nil
}

func (m *Manager) ensureAudio(ctx context.Context) error {
	if m.audio == nil {
		return nil
	}
	if m.audio.Running(ctx) {
		return nil
	}
	ui.WarningMsg("Host audio daemon is not running. Starting it...")
	if err := m.audio.Start(ctx); err != nil {
		return fmt.Errorf("%w: %v\nRun the host audio setup first", ErrAudio, err)
	}
	return nil
}

func (m *Manager) syncAudioDevices(ctx context.Context) {
	if m.audio == nil || !m.cfg.Audio.SyncDevices {
		return
	}
	output, input := m.audio.CurrentDevices(ctx)
	if output == "" && input == "" {
		return
	}
	sink, source := m.audio.SyncDefaults(ctx, output, input)
	if sink != "" {
		ui.InfoMsg("Audio output: %s", output)
	}
	if source != "" {
		ui.InfoMsg("Audio input: %s", input)
	}
}

func (m *Manager) ensureImage(ctx context.Context, buildContext string) error {
	image := m.cfg.Sandbox.Image
	if m.docker.ImageExists(ctx, image) {
		return nil
	}
	if buildContext == "" {
		return fmt.Errorf("%w: image %q not found and no build context given", ErrImage, image)
	}
	ui.WarningMsg("Image %q not found.", image)
	err := ui.WithSpinner(fmt.Sprintf("Building image %q...", image), func() error {
		return m.docker.BuildImage(ctx, image, buildContext)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImage, err)
	}
	return nil
}

func (m *Manager) ensureVolume(ctx context.Context, name, profile string) error {
	if m.docker.VolumeExists(ctx, name) {
		return nil
	}
	ui.InfoMsg("Creating persistent volume %q for profile %q...", name, profile)
	if err := m.docker.CreateVolume(ctx, name); err != nil {
		return fmt.Errorf("%w: %v", ErrVolume, err)
	}
	return nil
}

// buildRunArgs assembles the docker run arguments for a session. The
// entrypoint inside the image applies the egress policy and drops privilege
// before the command runs; NET_ADMIN exists only for that window.
func (m *Manager) buildRunArgs(profile Profile, grant *credential.Grant, opts Options) []string {
	name := profile.ContainerName()
	bridge := m.cfg.Network.BridgeHost

	args := []string{
		"--rm",
		"--cap-add=NET_ADMIN",
		"--add-host=" + bridge + ":host-gateway",
		"-v", profile.HomeVolume() + ":/home/" + m.cfg.Sandbox.User,
		"-v", profile.WorkspaceVolume() + ":/workspace",
		"-e", fmt.Sprintf("PULSE_SERVER=tcp:%s:%d", bridge, m.cfg.Audio.Port),
		"-e", m.cfg.Sandbox.APIKeyVar + "=" + m.environ(m.cfg.Sandbox.APIKeyVar),
		"-e", "TERM=" + termOrDefault(m.environ("TERM")),
		"-e", "CAGE_HOST_PORTS=" + joinPorts(opts.ExtraPorts),
		"--hostname", name,
		"--name", name,
	}

	if grant != nil {
		args = append(args, grant.MountArgs()...)
		for _, e := range grant.Env() {
			args = append(args, "-e", e)
		}
	}

	args = append(args, m.cfg.Sandbox.Image)

	switch {
	case opts.Detach:
		args = append(args, "sleep", "infinity")
	case len(opts.Command) > 0:
		args = append(args, opts.Command...)
	default:
		args = append(args, m.cfg.Sandbox.Command...)
	}

	return args
}

func (m *Manager) printDetachHelp(profile Profile) {
	name := profile.ContainerName()
	ui.SuccessMsg("Session %q is running.", name)
	ui.Println("")
	ui.Println("To open a shell:")
	ui.Println("  cage shell %s", profile.Name())
	ui.Println("")
	ui.Println("To stop:")
	ui.Println("  cage stop %s", profile.Name())
}

func (m *Manager) record(entry *history.Entry) {
	if m.store == nil {
		return
	}
	if err := m.store.Record(entry); err != nil {
		ui.WarningMsg("Could not record history: %v", err)
	}
}

func joinPorts(ports []int) string {
	strs := make([]string, len(ports))
	for i, p := range ports {
		strs[i] = strconv.Itoa(p)
	}
	return strings.Join(strs, " ")
}

func termOrDefault(term string) string {
	if term == "" {
		return "xterm-256color"
	}
	return term
}
