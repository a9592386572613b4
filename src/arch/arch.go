// Package arch determines the Debian architecture of the system being
// installed.
package arch

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ErrUnknownArchitecture is returned when no architecture can be determined.
var ErrUnknownArchitecture = errors.New("arch: target architecture could not be determined")

// Prober reports the target architecture.
type Prober interface {
	Architecture() (string, error)
}

// Static is a Prober returning a fixed architecture.
type Static string

func (s Static) Architecture() (string, error) {
	a := strings.TrimSpace(string(s))
	if a == "" {
		return "", ErrUnknownArchitecture
	}
	return a, nil
}

// Host probes the architecture with dpkg, chrooting into Target when it is
// set. Without a target, a missing dpkg falls back to the kernel machine
// name.
type Host struct {
	Target string

	run   func(name string, args ...string) ([]byte, error)
	uname func() (string, error)
}

// Architecture runs the probe.
func (h Host) Architecture() (string, error) {
	argv := []string{"dpkg", "--print-architecture"}
	chrooted := h.Target != "" && h.Target != "/"
	if chrooted {
		argv = append([]string{"chroot", h.Target}, argv...)
	}

	run := h.run
	if run == nil {
		run = runCommand
	}
	out, err := run(argv[0], argv[1:]...)
	if err == nil {
		if a := strings.TrimSpace(string(out)); a != "" {
			return a, nil
		}
		err = errors.New("empty output")
	}
	if chrooted {
		return "", fmt.Errorf("%w: %s: %w", ErrUnknownArchitecture, strings.Join(argv, " "), err)
	}

	uname := h.uname
	if uname == nil {
		uname = hostMachine
	}
	machine, uerr := uname()
	if uerr != nil {
		return "", fmt.Errorf("%w: dpkg: %v; uname: %w", ErrUnknownArchitecture, err, uerr)
	}
	a, ok := FromMachine(machine)
	if !ok {
		return "", fmt.Errorf("%w: dpkg: %v; unrecognised machine %q", ErrUnknownArchitecture, err, machine)
	}
	return a, nil
}

func runCommand(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

var machineArches = map[string]string{
	"x86_64":  "amd64",
	"amd64":   "amd64",
	"i386":    "i386",
	"i486":    "i386",
	"i586":    "i386",
	"i686":    "i386",
	"aarch64": "arm64",
	"arm64":   "arm64",
	"armv7l":  "armhf",
	"armv8l":  "armhf",
	"ppc64le": "ppc64el",
	"s390x":   "s390x",
	"riscv64": "riscv64",
}

// FromMachine maps a kernel machine name (uname -m) to a Debian
// architecture.
func FromMachine(machine string) (string, bool) {
	a, ok := machineArches[strings.TrimSpace(machine)]
	return a, ok
}

// Cached runs the wrapped probe once and replays its result.
type Cached struct {
	p    Prober
	once sync.Once
	arch string
	err  error
}

// NewCached wraps p.
func NewCached(p Prober) *Cached {
	return &Cached{p: p}
}

func (c *Cached) Architecture() (string, error) {
	c.once.Do(func() {
		c.arch, c.err = c.p.Architecture()
	})
	return c.arch, c.err
}
