package source

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
)

// File scrapes a saved copy of the timetable page.
type File struct {
	fs     afero.Fs
	path   string
	layout Layout
	log    logx.Logger
}

func NewFile(fs afero.Fs, path string, l Layout, log logx.Logger) *File {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &File{fs: fs, path: path, layout: l.normalize(), log: log.With(logx.String("comp", "source.file"))}
}

func (f *File) FetchRawMonthRows(ctx context.Context) ([]prayer.RawDayRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	fh, err := f.fs.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer fh.Close()
	rows, err := ParseMonthTable(fh, f.layout)
	if err != nil {
		return nil, err
	}
	f.log.Debug("timetable read", logx.String("path", f.path), logx.Int("rows", len(rows)))
	return rows, nil
}
