package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
timezone: Europe/London
logging:
  level: info
  console: true
  file:
    enabled: true
    path: ./adhan_service.log
    truncate: true
source:
  kind: html
  timeout: 20s
  columns: [3, 6, 8, 10, 11]
storage:
  driver: file
  path: ./prayer_times.json
engine:
  retry_delay: 10m
  fire_window: 5m
  refresh_cron: "5 0 * * *"
player:
  audio:
    enabled: true
    platform: linux
    file: adhan.mp3
  telegram:
    enabled: true
    chat_id: -100123
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Decode("config.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Timezone != "Europe/London" || !cfg.Logging.File.Truncate {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "file" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if len(cfg.Source.Columns) != 5 || cfg.Source.Columns[4] != 11 {
		t.Fatalf("columns = %v", cfg.Source.Columns)
	}
	if cfg.Player.Telegram == nil || cfg.Player.Telegram.ChatID != -100123 {
		t.Fatalf("telegram = %+v", cfg.Player.Telegram)
	}
}

func TestDecodeRejectsUnknownAndTrailing(t *testing.T) {
	t.Parallel()

	if _, err := Decode("c.yaml", []byte("engine:\n  retry: 10m\n")); err == nil {
		t.Fatal("unknown yaml key accepted")
	}
	if _, err := Decode("c.json", []byte(`{"timezone":"UTC"}{"timezone":"UTC"}`)); err == nil {
		t.Fatal("trailing json accepted")
	}
	if _, err := Decode("c.json", []byte(`{"timezone":"UTC"}`)); err != nil {
		t.Fatalf("json: %v", err)
	}
}

func TestParseAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, sampleYAML)
	writeFile(t, filepath.Join(dir, ".env"), EnvTelegramToken+"=123:from-dotenv\n")

	t.Setenv(EnvTelegramToken, "")
	os.Unsetenv(EnvTelegramToken)
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvTelegramToken) })

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Player.Telegram.Token != "123:from-dotenv" {
		t.Fatalf("token = %q", cfg.Player.Telegram.Token)
	}

	t.Setenv(EnvTimezone, "Asia/Jakarta")
	cfg, err = NewManager(path).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timezone != "Asia/Jakarta" {
		t.Fatalf("timezone = %q", cfg.Timezone)
	}
}

func TestLoadDotEnvMissingIsFine(t *testing.T) {
	t.Parallel()

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "config.yaml")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", time.Minute, false},
		{"0s", time.Minute, false},
		{"90s", 90 * time.Second, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := Duration("engine.retry_delay", tt.raw, time.Minute)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("Duration(%q) = %s, %v", tt.raw, got, err)
		}
		if err != nil && !strings.Contains(err.Error(), "engine.retry_delay") {
			t.Fatalf("error %q does not name the key", err)
		}
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	if loc, err := (&Config{}).Location(); err != nil || loc != time.Local {
		t.Fatalf("empty timezone = %v, %v", loc, err)
	}
	if _, err := (&Config{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatal("bad timezone accepted")
	}
}

func TestSummarizeConfigChangeHidesSecrets(t *testing.T) {
	t.Parallel()

	oldCfg, _ := Decode("c.yaml", []byte(sampleYAML))
	newCfg, _ := Decode("c.yaml", []byte(sampleYAML))
	newCfg.Engine.RetryDelay = "5m"
	newCfg.Player.Telegram.Token = "123:secret"

	sections, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if strings.Join(sections, ",") != "engine,player" {
		t.Fatalf("sections = %v", sections)
	}
	if len(attrs) == 0 {
		t.Fatal("no attrs")
	}
	if got := RestartRequired(sections); strings.Join(got, ",") != "player" {
		t.Fatalf("RestartRequired = %v", got)
	}

	if s, _ := SummarizeConfigChange(oldCfg, oldCfg); len(s) != 0 {
		t.Fatalf("identical configs changed: %v", s)
	}
}

func TestReloadValidatesAndPublishes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"engine":{"retry_delay":"10m"}}`)

	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	m.SetValidator(func(ctx context.Context, cfg *Config) error {
		if _, err := Duration("engine.retry_delay", cfg.Engine.RetryDelay, 0); err != nil {
			return err
		}
		return nil
	})
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	if ok, err := m.Reload(context.Background()); ok || err != nil {
		t.Fatalf("unchanged reload = %v, %v", ok, err)
	}

	writeFile(t, path, `{"engine":{"retry_delay":"banana"}}`)
	if ok, err := m.Reload(context.Background()); ok || err == nil {
		t.Fatalf("invalid reload = %v, %v", ok, err)
	}
	if m.Get().Engine.RetryDelay != "10m" {
		t.Fatal("rejected config was committed")
	}

	writeFile(t, path, `{"engine":{"retry_delay":"5m"}}`)
	if ok, err := m.Reload(context.Background()); !ok || err != nil {
		t.Fatalf("valid reload = %v, %v", ok, err)
	}
	select {
	case cfg := <-sub:
		if cfg.Engine.RetryDelay != "5m" {
			t.Fatalf("published = %+v", cfg.Engine)
		}
	default:
		t.Fatal("nothing published")
	}
}

func TestPublishKeepsNewest(t *testing.T) {
	t.Parallel()

	m := NewManager("unused.json")
	sub := m.Subscribe(1)
	m.publish(&Config{Timezone: "A"})
	m.publish(&Config{Timezone: "B"})
	if got := <-sub; got.Timezone != "B" {
		t.Fatalf("got %q, want newest", got.Timezone)
	}
	m.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel not closed")
	}
}

func TestWatchPublishesOnWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"timezone":"UTC"}`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	sub := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	// Keep rewriting until the watcher is up and notices.
	for got := false; !got; {
		select {
		case cfg := <-sub:
			if cfg.Timezone != "Europe/London" {
				t.Fatalf("published %q", cfg.Timezone)
			}
			got = true
		case <-tick.C:
			writeFile(t, path, `{"timezone":"Europe/London"}`)
		case <-deadline:
			t.Fatal("no reload published")
		}
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Watch = %v", err)
	}
}
