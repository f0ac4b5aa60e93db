//go:build linux

package systemd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Status queries the system bus for unit.
func Status(ctx context.Context, unit string) (UnitStatus, error) {
	unit = UnitName(unit)
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return UnitStatus{}, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	st := UnitStatus{Name: unit}
	units, err := conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return UnitStatus{}, fmt.Errorf("failed to get status for %s: %w", unit, err)
	}
	for _, u := range units {
		if u.Name != unit {
			continue
		}
		st.Description = u.Description
		st.LoadState = u.LoadState
		st.ActiveState = u.ActiveState
		st.SubState = u.SubState
	}
	if st.LoadState == "" || st.NotFound() {
		st.LoadState, st.ActiveState, st.SubState = "not-found", "unknown", "not-found"
		return st, nil
	}

	props, err := conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchUnit") {
			return st, nil
		}
		return st, fmt.Errorf("failed to get properties for %s: %w", unit, err)
	}
	// systemd timestamps are microseconds since the Unix epoch.
	if ts, ok := props["ActiveEnterTimestamp"].(uint64); ok && ts > 0 {
		st.ActiveSince = time.UnixMicro(int64(ts))
	}
	return st, nil
}
