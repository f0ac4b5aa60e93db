package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string
	Console bool
	File    FileConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
	// Truncate empties the file the first time this process opens it.
	Truncate bool
}

// DefaultFilePath is used when the file sink is enabled without a path.
const DefaultFilePath = "./adhan_service.log"

// Service owns the sinks and swaps them when the config is reloaded.
type Service struct {
	mu   sync.Mutex
	root atomic.Pointer[zerolog.Logger]

	file      *os.File
	filePath  string
	truncated map[string]bool
}

// New applies cfg and returns the service and a logger bound to it.
func New(cfg Config) (*Service, Logger) {
	s := &Service{truncated: map[string]bool{}}
	s.Apply(cfg)
	return s, Logger{svc: s}
}

func (s *Service) current() zerolog.Logger {
	if zl := s.root.Load(); zl != nil {
		return *zl
	}
	return zerolog.Nop()
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeFileLocked()
}

func (s *Service) closeFileLocked() error {
	f := s.file
	s.file, s.filePath = nil, ""
	if f == nil {
		return nil
	}
	return f.Close()
}

// Apply rebuilds the sinks. The log file stays open across reloads that keep
// its path, so a reload never truncates the current run's log.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writers := make([]io.Writer, 0, 2)
	if cfg.Console {
		writers = append(writers, newConsoleWriter())
	}
	if cfg.File.Enabled {
		if f, err := s.openFileLocked(cfg.File); err != nil {
			fmt.Fprintf(os.Stderr, "logx: %v\n", err)
		} else {
			writers = append(writers, zerolog.SyncWriter(f))
		}
	} else {
		_ = s.closeFileLocked()
	}
	if len(writers) == 0 {
		writers = append(writers, newConsoleWriter())
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level, zerolog.InfoLevel)).
		With().Timestamp().Logger()
	s.root.Store(&zl)
}

func (s *Service) openFileLocked(fc FileConfig) (*os.File, error) {
	path := strings.TrimSpace(fc.Path)
	if path == "" {
		path = DefaultFilePath
	}
	if s.file != nil && s.filePath == path {
		return s.file, nil
	}
	_ = s.closeFileLocked()

	flags := os.O_CREATE | os.O_APPEND | os.O_WRONLY
	if fc.Truncate && !s.truncated[path] {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	s.truncated[path] = true
	s.file, s.filePath = f, path
	return f, nil
}

// newConsoleWriter prints "time level comp caller message fields".
func newConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{
		Out:           os.Stdout,
		TimeFormat:    timeFormat,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, compField, zerolog.CallerFieldName, zerolog.MessageFieldName},
		FieldsExclude: []string{compField},
		FormatCaller: func(i interface{}) string {
			s, _ := i.(string)
			return s
		},
		FormatPartValueByName: func(i interface{}, _ string) string {
			if s, ok := i.(string); ok && s != "" {
				return "[" + s + "]"
			}
			return ""
		},
	}
}
