package eventbus

import (
	"context"

	logx "adhan/pkg/logx"
)

// Relay writes every event to log until ctx is done or the bus closes the
// subscription.
func Relay(ctx context.Context, b Bus, log logx.Logger) {
	ch, unsub := b.Subscribe(64)
	defer func() {
		if n := unsub(); n > 0 {
			log.Warn("relay fell behind; events dropped", logx.Int64("dropped", int64(n)))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time), logx.Any("data", e.Data))
		}
	}
}
