// Package session maps user-chosen profiles to stable container and volume
// identities and owns the launch lifecycle around them.
package session

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultProfile is used when the operator names no profile.
const DefaultProfile = "default"

// namePrefix keys every container and volume this tool owns.
const namePrefix = "cage"

// Profile names become container and volume names, so they carry the
// runtime's naming restrictions.
var profileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ErrInvalidProfile is returned for profile names the runtime cannot use.
var ErrInvalidProfile = errors.New("invalid profile name")

// Profile is a named, durable identity for a session and its storage. Two
// different profiles never share storage or container identity.
type Profile struct {
	name string
}

// NewProfile validates and creates a profile. An empty name selects the
// default profile.
func NewProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	if !profileNamePattern.MatchString(name) {
		return Profile{}, fmt.Errorf("%w: %q (use letters, digits, '_', '.', '-')", ErrInvalidProfile, name)
	}
	return Profile{name: name}, nil
}

// Name returns the profile name.
func (p Profile) Name() string {
	return p.name
}

// ContainerName returns the deterministic container identity for this
// profile. At most one live session may hold it at a time.
func (p Profile) ContainerName() string {
	return namePrefix + "-" + p.name
}

// HomeVolume returns the durable home/identity volume name.
func (p Profile) HomeVolume() string {
	return namePrefix + "-" + p.name
}

// WorkspaceVolume returns the durable workspace volume name.
func (p Profile) WorkspaceVolume() string {
	return namePrefix + "-" + p.name + "-workspace"
}

// VolumePrefix returns the name prefix shared by everything this tool owns,
// for listing.
func VolumePrefix() string {
	return namePrefix + "-"
}

// ProfileFromContainer recovers the profile name from a container name, or
// "" when the container is not ours.
func ProfileFromContainer(container string) string {
	prefix := namePrefix + "-"
	if len(container) <= len(prefix) || container[:len(prefix)] != prefix {
		return ""
	}
	return container[len(prefix):]
}
