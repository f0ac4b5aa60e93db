package systemd

import (
	"errors"
	"strings"
	"time"
)

var ErrUnsupported = errors.New("systemd: unsupported OS (linux only)")

// UnitStatus is the subset of unit properties the CLI prints.
type UnitStatus struct {
	Name        string
	Description string
	LoadState   string
	ActiveState string
	SubState    string
	ActiveSince time.Time
}

func (s UnitStatus) Active() bool { return s.ActiveState == "active" }

func (s UnitStatus) NotFound() bool { return s.LoadState == "not-found" }

// UnitName appends ".service" when name has no unit suffix.
func UnitName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}
