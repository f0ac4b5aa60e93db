package config

// Config is the daemon configuration file (JSON or YAML).
//
// All durations are Go duration strings (e.g. "30s", "10m").
type Config struct {
	// Timezone of the mosque timetable, e.g. "Europe/London". Empty means
	// the host's local zone.
	Timezone string         `json:"timezone,omitempty"`
	Logging  LoggingConfig  `json:"logging"`
	Source   SourceConfig   `json:"source"`
	Storage  *StorageConfig `json:"storage,omitempty"`
	Engine   EngineConfig   `json:"engine"`
	Player   PlayerConfig   `json:"player"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	// Truncate empties the file once at startup.
	Truncate bool `json:"truncate,omitempty"`
}

// SourceConfig selects where the month timetable comes from.
//
// Defaults: kind "html", url of the Croydon mosque prayer page, table_id
// "salaat_times_month", skip_rows 2, day_column 0, columns [3,6,8,10,11],
// timeout "30s".
type SourceConfig struct {
	Kind      string `json:"kind,omitempty"` // html | file
	URL       string `json:"url,omitempty"`
	Path      string `json:"path,omitempty"` // kind=file
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	TableID   string `json:"table_id,omitempty"`
	SkipRows  *int   `json:"skip_rows,omitempty"`
	DayColumn *int   `json:"day_column,omitempty"`
	// Columns are the cell indexes of Fajr, Dhuhr, Asr, Maghrib and Ishaa.
	Columns []int `json:"columns,omitempty"`
}

// StorageConfig controls the schedule cache.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./prayer_times.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite
}

type EngineConfig struct {
	FetchMinInterval string `json:"fetch_min_interval,omitempty"`
	RetryDelay       string `json:"retry_delay,omitempty"`
	FireWindow       string `json:"fire_window,omitempty"`
	MaxSleep         string `json:"max_sleep,omitempty"`
	// RefreshCron forces a live fetch; "off" disables it.
	RefreshCron string `json:"refresh_cron,omitempty"`
	// Watchdog pings systemd when the unit sets WatchdogSec.
	Watchdog bool `json:"watchdog,omitempty"`
}

// PlayerConfig lists the ways a prayer is announced. When every section is
// omitted the platform audio command is used.
type PlayerConfig struct {
	Audio    *AudioConfig          `json:"audio,omitempty"`
	Telegram *TelegramPlayerConfig `json:"telegram,omitempty"`
	MQTT     *MQTTPlayerConfig     `json:"mqtt,omitempty"`
}

type AudioConfig struct {
	Enabled bool `json:"enabled"`
	// Platform is windows, linux, mac or auto.
	Platform string   `json:"platform,omitempty"`
	Command  []string `json:"command,omitempty"`
	File     string   `json:"file,omitempty"`
	FajrFile string   `json:"fajr_file,omitempty"`
	Timeout  string   `json:"timeout,omitempty"`
}

type TelegramPlayerConfig struct {
	Enabled  bool   `json:"enabled"`
	Token    string `json:"token,omitempty"` // or ADHAN_TELEGRAM_TOKEN
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	Template string `json:"template,omitempty"`
}

type MQTTPlayerConfig struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id,omitempty"`
	Topic    string `json:"topic,omitempty"`
	QoS      int    `json:"qos,omitempty"`
	Retained bool   `json:"retained,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"` // or ADHAN_MQTT_PASSWORD
	Timeout  string `json:"timeout,omitempty"`
}
