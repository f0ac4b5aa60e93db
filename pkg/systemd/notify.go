// Package systemd talks to the service manager: readiness and watchdog
// notifications for the running daemon, unit status for the CLI.
package systemd

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	unsetEnv bool
	send     func(unsetEnv bool, state string) (bool, error)
}

func NewNotifier() *Notifier {
	return &Notifier{send: daemon.SdNotify}
}

func (n *Notifier) notify(state string) error {
	if n == nil || n.send == nil {
		return nil
	}
	_, err := n.send(n.unsetEnv, state)
	return err
}

func (n *Notifier) Ready() error    { return n.notify(daemon.SdNotifyReady) }
func (n *Notifier) Stopping() error { return n.notify(daemon.SdNotifyStopping) }
func (n *Notifier) Watchdog() error { return n.notify(daemon.SdNotifyWatchdog) }
func (n *Notifier) Reloading() error {
	return n.notify(daemon.SdNotifyReloading)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(s string) error { return n.notify("STATUS=" + s) }

// WatchdogInterval returns half the configured WatchdogSec, or 0 when the
// watchdog is off.
func WatchdogInterval() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d <= 0 {
		return 0
	}
	return d / 2
}
