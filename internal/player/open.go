package player

import (
	"errors"

	logx "adhan/pkg/logx"
)

type Config struct {
	Audio    *CommandConfig
	Telegram *TelegramConfig
	MQTT     *MQTTConfig
}

// Open builds a Multi from every configured player. A nil section is
// disabled. The returned close func releases broker connections.
func Open(cfg Config, log logx.Logger) (*Multi, func(), error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	m := NewMulti()
	closeFn := func() {}

	if cfg.Audio != nil {
		c, err := NewCommand(*cfg.Audio, log)
		if err != nil {
			return nil, nil, err
		}
		m.Add("audio", c)
	}
	if cfg.Telegram != nil {
		t, err := NewTelegram(*cfg.Telegram, log)
		if err != nil {
			return nil, nil, err
		}
		m.Add("telegram", t)
	}
	if cfg.MQTT != nil {
		q, err := NewMQTT(*cfg.MQTT, log)
		if err != nil {
			return nil, nil, err
		}
		m.Add("mqtt", q)
		closeFn = q.Close
	}
	if m.Len() == 0 {
		return nil, nil, errors.New("no player enabled")
	}
	return m, closeFn, nil
}
