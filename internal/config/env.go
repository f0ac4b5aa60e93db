package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvTelegramToken = "ADHAN_TELEGRAM_TOKEN"
	EnvMQTTPassword  = "ADHAN_MQTT_PASSWORD"
	EnvTimezone      = "ADHAN_TIMEZONE"
)

// LoadDotEnv loads a .env file next to the config into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(cfgPath string) error {
	p := filepath.Join(filepath.Dir(cfgPath), ".env")
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(p)
}

// applyEnv overrides secrets and the timezone from the environment, so they
// can stay out of the config file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvTimezone)); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelegramToken)); v != "" && cfg.Player.Telegram != nil {
		cfg.Player.Telegram.Token = v
	}
	if v := os.Getenv(EnvMQTTPassword); v != "" && cfg.Player.MQTT != nil {
		cfg.Player.MQTT.Password = v
	}
}
