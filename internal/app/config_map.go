package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"adhan/internal/config"
	"adhan/internal/engine"
	"adhan/internal/player"
	"adhan/internal/prayer"
	"adhan/internal/source"
	"adhan/internal/storage"
	logx "adhan/pkg/logx"
	"adhan/pkg/systemd"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			Truncate: cfg.Logging.File.Truncate,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return storage.Config{}, false, err
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		if path == "" {
			path = "prayer_times.json"
		}
		return storage.Config{Driver: "file", Path: path, Location: loc}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.Duration("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy, Location: loc}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapSourceConfig(cfg *config.Config) (source.Config, error) {
	sc := cfg.Source
	timeout, err := config.Duration("source.timeout", sc.Timeout, source.DefaultTimeout)
	if err != nil {
		return source.Config{}, err
	}
	kind := strings.ToLower(strings.TrimSpace(sc.Kind))
	switch kind {
	case "", "html", "http":
	case "file":
		if strings.TrimSpace(sc.Path) == "" {
			return source.Config{}, fmt.Errorf("source.path is required when source.kind=file")
		}
	default:
		return source.Config{}, fmt.Errorf("unknown source.kind: %s", sc.Kind)
	}

	l := source.DefaultLayout()
	if id := strings.TrimSpace(sc.TableID); id != "" {
		l.TableID = id
	}
	if sc.SkipRows != nil {
		if *sc.SkipRows < 0 {
			return source.Config{}, fmt.Errorf("source.skip_rows must be >= 0")
		}
		l.SkipRows = *sc.SkipRows
	}
	if sc.DayColumn != nil {
		if *sc.DayColumn < 0 {
			return source.Config{}, fmt.Errorf("source.day_column must be >= 0")
		}
		l.DayColumn = *sc.DayColumn
	}
	if len(sc.Columns) > 0 {
		if len(sc.Columns) != len(prayer.Names) {
			return source.Config{}, fmt.Errorf("source.columns needs %d entries (Fajr..Ishaa), got %d", len(prayer.Names), len(sc.Columns))
		}
		for i, c := range sc.Columns {
			if c < 0 {
				return source.Config{}, fmt.Errorf("source.columns[%d] must be >= 0", i)
			}
			l.Columns[i] = c
		}
	}

	url := strings.TrimSpace(sc.URL)
	if url == "" {
		url = source.DefaultURL
	}
	return source.Config{
		Kind:      kind,
		URL:       url,
		Path:      strings.TrimSpace(sc.Path),
		Timeout:   timeout,
		UserAgent: strings.TrimSpace(sc.UserAgent),
		Layout:    l,
	}, nil
}

func mapEngineConfig(cfg *config.Config) (engine.Config, error) {
	ec := cfg.Engine
	loc, err := cfg.Location()
	if err != nil {
		return engine.Config{}, err
	}
	fetchTimeout, err := config.Duration("source.timeout", cfg.Source.Timeout, engine.DefaultFetchTimeout)
	if err != nil {
		return engine.Config{}, err
	}
	minInterval, err := config.Duration("engine.fetch_min_interval", ec.FetchMinInterval, engine.DefaultFetchMinInterval)
	if err != nil {
		return engine.Config{}, err
	}
	retry, err := config.Duration("engine.retry_delay", ec.RetryDelay, engine.DefaultRetryDelay)
	if err != nil {
		return engine.Config{}, err
	}
	window, err := config.Duration("engine.fire_window", ec.FireWindow, engine.DefaultFireWindow)
	if err != nil {
		return engine.Config{}, err
	}
	maxSleep, err := config.Duration("engine.max_sleep", ec.MaxSleep, engine.DefaultMaxSleep)
	if err != nil {
		return engine.Config{}, err
	}

	spec := strings.TrimSpace(ec.RefreshCron)
	switch {
	case spec == "":
		spec = engine.DefaultRefreshCron
	case strings.EqualFold(spec, "off"):
		spec = ""
	default:
		if _, err := engine.ParseCron(spec); err != nil {
			return engine.Config{}, fmt.Errorf("engine.refresh_cron: %w", err)
		}
	}

	var watchdog time.Duration
	if ec.Watchdog {
		watchdog = systemd.WatchdogInterval()
	}
	return engine.Config{
		FetchTimeout:     fetchTimeout,
		FetchMinInterval: minInterval,
		RetryDelay:       retry,
		FireWindow:       window,
		MaxSleep:         maxSleep,
		RefreshCron:      spec,
		Location:         loc,
		Watchdog:         watchdog,
	}, nil
}

// mapPlayerConfig builds the player set. platform, when set, overrides the
// audio platform. With no player section at all the audio command is used.
func mapPlayerConfig(cfg *config.Config, platform string) (player.Config, error) {
	pc := cfg.Player
	var out player.Config

	audio := pc.Audio
	if audio == nil && pc.Telegram == nil && pc.MQTT == nil {
		audio = &config.AudioConfig{Enabled: true}
	}
	if audio != nil && audio.Enabled {
		timeout, err := config.Duration("player.audio.timeout", audio.Timeout, player.DefaultAudioTimeout)
		if err != nil {
			return player.Config{}, err
		}
		plat := audio.Platform
		if p := strings.TrimSpace(platform); p != "" {
			plat = p
		}
		if len(audio.Command) == 0 {
			if _, err := player.DefaultCommand(plat); err != nil {
				return player.Config{}, fmt.Errorf("player.audio.platform: %w", err)
			}
		}
		out.Audio = &player.CommandConfig{
			Platform:      plat,
			Command:       audio.Command,
			AudioFile:     audio.File,
			FajrAudioFile: audio.FajrFile,
			Timeout:       timeout,
		}
	}

	if tc := pc.Telegram; tc != nil && tc.Enabled {
		if strings.TrimSpace(tc.Token) == "" {
			return player.Config{}, fmt.Errorf("player.telegram.token is required (or set %s)", config.EnvTelegramToken)
		}
		if tc.ChatID == 0 {
			return player.Config{}, fmt.Errorf("player.telegram.chat_id is required")
		}
		out.Telegram = &player.TelegramConfig{
			Token:    tc.Token,
			ChatID:   tc.ChatID,
			ThreadID: tc.ThreadID,
			Template: tc.Template,
		}
	}

	if mc := pc.MQTT; mc != nil && mc.Enabled {
		if strings.TrimSpace(mc.Broker) == "" {
			return player.Config{}, fmt.Errorf("player.mqtt.broker is required")
		}
		if mc.QoS < 0 || mc.QoS > 2 {
			return player.Config{}, fmt.Errorf("player.mqtt.qos must be 0, 1 or 2")
		}
		timeout, err := config.Duration("player.mqtt.timeout", mc.Timeout, 10*time.Second)
		if err != nil {
			return player.Config{}, err
		}
		out.MQTT = &player.MQTTConfig{
			Broker:   mc.Broker,
			ClientID: mc.ClientID,
			Topic:    mc.Topic,
			QoS:      byte(mc.QoS),
			Retained: mc.Retained,
			Username: mc.Username,
			Password: mc.Password,
			Timeout:  timeout,
		}
	}

	if out.Audio == nil && out.Telegram == nil && out.MQTT == nil {
		return player.Config{}, errors.New("player: every player is disabled")
	}
	return out, nil
}

// telegramSendBudget bounds one Telegram send during shutdown.
const telegramSendBudget = 30 * time.Second

// playbackBudget is how long one signal can take to play. Members of a
// player.Multi run one after another, so their limits add up.
func playbackBudget(pc player.Config) time.Duration {
	var d time.Duration
	if pc.Audio != nil {
		t := pc.Audio.Timeout
		if t <= 0 {
			t = player.DefaultAudioTimeout
		}
		d += t
	}
	if pc.Telegram != nil {
		d += telegramSendBudget
	}
	if pc.MQTT != nil {
		d += pc.MQTT.Timeout
	}
	return d
}

// validateConfig runs every mapping so a bad reload is rejected before it is
// committed.
func validateConfig(_ context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if lvl := strings.TrimSpace(cfg.Logging.Level); lvl != "" && !logx.ValidLevel(lvl) {
		return fmt.Errorf("logging.level: invalid %q", cfg.Logging.Level)
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	if _, err := mapSourceConfig(cfg); err != nil {
		return err
	}
	if _, err := mapEngineConfig(cfg); err != nil {
		return err
	}
	if _, err := mapPlayerConfig(cfg, ""); err != nil {
		return err
	}
	return nil
}
