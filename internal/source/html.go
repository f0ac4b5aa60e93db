package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
)

const maxBody = 4 << 20

// HTML downloads the timetable page and scrapes the month table.
type HTML struct {
	url       string
	userAgent string
	layout    Layout
	client    *http.Client
	log       logx.Logger
}

// NewHTML returns an HTML source. A nil client gets one bounded by cfg.Timeout.
func NewHTML(cfg Config, client *http.Client, log logx.Logger) *HTML {
	if log.IsZero() {
		log = logx.Nop()
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTML{
		url:       url,
		userAgent: strings.TrimSpace(cfg.UserAgent),
		layout:    cfg.Layout.normalize(),
		client:    client,
		log:       log.With(logx.String("comp", "source.html")),
	}
}

func (h *HTML) FetchRawMonthRows(ctx context.Context) ([]prayer.RawDayRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, h.url, resp.Status)
	}

	rows, err := ParseMonthTable(io.LimitReader(resp.Body, maxBody), h.layout)
	if err != nil {
		return nil, err
	}
	h.log.Debug("timetable fetched",
		logx.String("url", h.url),
		logx.Int("rows", len(rows)),
		logx.Duration("took", time.Since(start)),
	)
	return rows, nil
}
