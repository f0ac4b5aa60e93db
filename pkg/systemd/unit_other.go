//go:build !linux

package systemd

import "context"

func Status(ctx context.Context, unit string) (UnitStatus, error) {
	return UnitStatus{Name: UnitName(unit)}, ErrUnsupported
}
