package config

import (
	"reflect"
	"strings"

	logx "adhan/pkg/logx"
)

// SummarizeConfigChange lists the sections that differ and safe fields
// describing the new values. Tokens and passwords are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var (
		changed []string
		attrs   []logx.Field
	)

	if strings.TrimSpace(oldCfg.Timezone) != strings.TrimSpace(newCfg.Timezone) {
		changed = append(changed, "timezone")
		attrs = append(attrs, logx.String("timezone", strings.TrimSpace(newCfg.Timezone)))
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Source, newCfg.Source) {
		changed = append(changed, "source")
		attrs = append(attrs,
			logx.String("source.kind", newCfg.Source.Kind),
			logx.String("source.url", newCfg.Source.URL),
			logx.String("source.table_id", newCfg.Source.TableID),
		)
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		if newCfg.Storage != nil {
			attrs = append(attrs, logx.String("storage.driver", newCfg.Storage.Driver))
		}
	}

	if oldCfg.Engine != newCfg.Engine {
		changed = append(changed, "engine")
		attrs = append(attrs,
			logx.String("engine.retry_delay", newCfg.Engine.RetryDelay),
			logx.String("engine.fire_window", newCfg.Engine.FireWindow),
			logx.String("engine.max_sleep", newCfg.Engine.MaxSleep),
			logx.String("engine.refresh_cron", newCfg.Engine.RefreshCron),
		)
	}

	if !reflect.DeepEqual(oldCfg.Player, newCfg.Player) {
		changed = append(changed, "player")
		p := newCfg.Player
		attrs = append(attrs,
			logx.Bool("player.audio", p.Audio == nil || p.Audio.Enabled),
			logx.Bool("player.telegram", p.Telegram != nil && p.Telegram.Enabled),
			logx.Bool("player.mqtt", p.MQTT != nil && p.MQTT.Enabled),
		)
	}
	return changed, attrs
}

// RestartRequired reports sections that only take effect at startup.
func RestartRequired(sections []string) []string {
	var out []string
	for _, s := range sections {
		switch s {
		case "storage", "source", "player":
			out = append(out, s)
		}
	}
	return out
}
