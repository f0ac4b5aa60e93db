package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adhan/internal/config"
	"adhan/internal/engine"
	"adhan/internal/eventbus"
	"adhan/internal/player"
	"adhan/internal/runtime/supervisor"
	"adhan/internal/source"
	"adhan/internal/storage"
	logx "adhan/pkg/logx"
	"adhan/pkg/systemd"
)

// Options are command line overrides that win over the config file.
type Options struct {
	// Platform selects the default audio command (windows, linux, mac).
	Platform string
}

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store        storage.Store
	players      *player.Multi
	closePlayers func()

	loop    *engine.Loop
	trigger *engine.Trigger
	notify  *systemd.Notifier

	// playback bounds the wait for a signal in flight at shutdown.
	playback time.Duration
}

func NewApp(cfgPath string, opts Options) (*App, error) {
	if err := config.LoadDotEnv(cfgPath); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(context.Background(), cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	srcCfg, err := mapSourceConfig(cfg)
	if err != nil {
		return nil, err
	}
	src, err := source.Open(srcCfg, log.With(logx.String("comp", "source")))
	if err != nil {
		return nil, err
	}

	pcfg, err := mapPlayerConfig(cfg, opts.Platform)
	if err != nil {
		return nil, err
	}
	players, closePlayers, err := player.Open(pcfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("players ready", logx.String("players", strings.Join(players.Names(), ",")))

	engCfg, err := mapEngineConfig(cfg)
	if err != nil {
		return nil, err
	}
	bus := eventbus.New()
	notify := systemd.NewNotifier()
	loop, err := engine.New(engCfg, engine.Deps{
		Source:   src,
		Store:    store,
		Player:   players,
		Bus:      bus,
		Notifier: notify,
		Log:      log,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfgPath:      cfgPath,
		cfgm:         cfgm,
		log:          log,
		logs:         logSvc,
		bus:          bus,
		store:        store,
		players:      players,
		closePlayers: closePlayers,
		loop:         loop,
		trigger:      engine.NewTrigger(loop.Refresh, log),
		notify:       notify,
		playback:     playbackBudget(pcfg),
	}, nil
}

// StopTimeout is the context budget Stop needs to let a playback in flight
// finish and still close storage.
func (a *App) StopTimeout() time.Duration {
	return a.playback + 10*time.Second
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(validateConfig)

	engCfg, err := mapEngineConfig(a.cfgm.Get())
	if err != nil {
		return err
	}
	if err := a.trigger.Apply(engCfg.RefreshCron, engCfg.Location); err != nil {
		return fmt.Errorf("engine.refresh_cron: %w", err)
	}

	a.sup.GoRestart("engine.loop", a.loop.Run, supervisor.WithRestartBackoff(time.Second, time.Minute))

	a.sup.Go0("eventbus.relay", func(c context.Context) {
		eventbus.Relay(c, a.bus, a.log.With(logx.String("comp", "eventbus")))
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started", logx.String("config", a.cfgPath))
	return nil
}

// applyConfig pushes a validated reload into the running components. Storage,
// source and player changes only take effect after a restart.
func (a *App) applyConfig(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Debug("config change summary", fields...)

	if restart := config.RestartRequired(sections); len(restart) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect",
			logx.String("sections", strings.Join(restart, ",")))
	}

	_ = a.notify.Reloading()
	a.logs.Apply(mapLoggingConfig(newCfg))

	engCfg, err := mapEngineConfig(newCfg)
	if err != nil {
		a.log.Warn("invalid engine config; keeping previous", logx.Err(err))
	} else {
		if err := a.trigger.Apply(engCfg.RefreshCron, engCfg.Location); err != nil {
			a.log.Warn("invalid refresh schedule; keeping previous", logx.Err(err))
		}
		a.loop.Apply(engCfg)
	}
	_ = a.notify.Ready()

	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	// Each step is bounded so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("trigger", time.Second, func(context.Context) error { a.trigger.Stop(); return nil })
	// The loop may be mid-playback; it returns once the player does.
	step("supervisor", a.playback+5*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("players", 2*time.Second, func(context.Context) error {
		if a.closePlayers != nil {
			a.closePlayers()
		}
		return nil
	})
	step("storage", time.Second, func(context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
