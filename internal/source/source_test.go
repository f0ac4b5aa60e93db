package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
)

const monthPage = `<!doctype html>
<html><body>
<table id="other"><tr><td>1</td></tr></table>
<table id="salaat_times_month">
  <tr><th colspan="12">October</th></tr>
  <tr><td>Date</td><td>Day</td><td>Fajr start</td><td>Fajr</td><td>Sunrise</td><td>Zuhr start</td><td>Zuhr</td><td>Asr start</td><td>Asr</td><td>Maghrib start</td><td>Maghrib</td><td>Isha</td></tr>
  <tr><td>1</td><td>Wed</td><td>5:20</td><td> 5:40 </td><td>7:05</td><td>12:55</td><td>1:15</td><td>3:50</td><td>4:15</td><td>6:35</td><td>6:40</td><td>8:00</td></tr>
  <tr><td><b>2</b></td><td>Thu</td><td>5:22</td><td>5:42</td><td>7:07</td><td>12:55</td><td>1:15</td><td>3:48</td><td>4:15</td><td>6:33</td><td>6:38</td><td>7:58</td></tr>
  <tr><td>3</td><td>Fri</td><td>5:24</td></tr>
  <tr><td></td></tr>
</table>
</body></html>`

func TestParseMonthTableDefaultLayout(t *testing.T) {
	t.Parallel()

	rows, err := ParseMonthTable(strings.NewReader(monthPage), DefaultLayout())
	if err != nil {
		t.Fatalf("ParseMonthTable: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3: %+v", len(rows), rows)
	}
	want := prayer.RawDayRow{Day: "1", Fields: []string{"5:40", "1:15", "4:15", "6:40", "8:00"}}
	if rows[0].Day != want.Day || strings.Join(rows[0].Fields, ",") != strings.Join(want.Fields, ",") {
		t.Fatalf("row 0 = %+v, want %+v", rows[0], want)
	}
	if rows[1].Day != "2" {
		t.Fatalf("row 1 day = %q, want text of nested element", rows[1].Day)
	}
	// Short rows survive so the parser can reject them individually.
	if rows[2].Day != "3" || len(rows[2].Fields) != 0 {
		t.Fatalf("row 2 = %+v", rows[2])
	}

	tb, errs := prayer.BuildTable(2026, time.October, rows)
	if tb.Len() != 2 || len(errs) != 1 {
		t.Fatalf("BuildTable days=%d errs=%v", tb.Len(), errs)
	}
	if got := tb.Days[1][prayer.Dhuhr]; got != (prayer.TimeOfDay{Hour: 13, Minute: 15}) {
		t.Fatalf("Dhuhr = %v", got)
	}
}

func TestParseMonthTableErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing table": `<html><body><table id="x"><tr><td>1</td></tr></table></body></html>`,
		"headers only":  `<table id="salaat_times_month"><tr><td>a</td></tr><tr><td>b</td></tr></table>`,
	}
	for name, page := range tests {
		page := page
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseMonthTable(strings.NewReader(page), DefaultLayout())
			if !errors.Is(err, ErrFetch) {
				t.Fatalf("err = %v, want ErrFetch", err)
			}
		})
	}
}

func TestParseMonthTableCustomLayout(t *testing.T) {
	t.Parallel()

	page := `<table id="times"><tr><td>1</td><td>5:00</td><td>1:00</td><td>4:00</td><td>6:00</td><td>8:00</td></tr></table>`
	l := Layout{TableID: "times", Columns: [5]int{1, 2, 3, 4, 5}}
	rows, err := ParseMonthTable(strings.NewReader(page), l)
	if err != nil {
		t.Fatalf("ParseMonthTable: %v", err)
	}
	if len(rows) != 1 || len(rows[0].Fields) != 5 || rows[0].Fields[4] != "8:00" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestHTMLFetch(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(monthPage))
	}))
	defer srv.Close()

	src := NewHTML(Config{URL: srv.URL, UserAgent: "adhan-test", Layout: DefaultLayout()}, srv.Client(), logx.Nop())
	rows, err := src.FetchRawMonthRows(context.Background())
	if err != nil {
		t.Fatalf("FetchRawMonthRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if gotUA != "adhan-test" {
		t.Fatalf("User-Agent = %q", gotUA)
	}
}

func TestHTMLFetchFailures(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer srv.Close()
		_, err := NewHTML(Config{URL: srv.URL}, srv.Client(), logx.Nop()).FetchRawMonthRows(context.Background())
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("err = %v, want ErrFetch", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		src := NewHTML(Config{URL: srv.URL, Timeout: 50 * time.Millisecond}, nil, logx.Nop())
		_, err := src.FetchRawMonthRows(context.Background())
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("err = %v, want ErrFetch", err)
		}
	})

	t.Run("markup", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html><body>maintenance</body></html>"))
		}))
		defer srv.Close()
		_, err := NewHTML(Config{URL: srv.URL}, srv.Client(), logx.Nop()).FetchRawMonthRows(context.Background())
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("err = %v, want ErrFetch", err)
		}
	})
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/pages/october.html", []byte(monthPage), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewFile(fs, "/pages/october.html", DefaultLayout(), logx.Nop())
	rows, err := src.FetchRawMonthRows(context.Background())
	if err != nil || len(rows) != 3 {
		t.Fatalf("rows=%d err=%v", len(rows), err)
	}

	_, err = NewFile(fs, "/pages/missing.html", DefaultLayout(), logx.Nop()).FetchRawMonthRows(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	if s, err := Open(Config{}, logx.Nop()); err != nil {
		t.Fatalf("Open default: %v", err)
	} else if _, ok := s.(*HTML); !ok {
		t.Fatalf("default source = %T, want *HTML", s)
	}
	if _, err := Open(Config{Kind: "file"}, logx.Nop()); err == nil {
		t.Fatal("file source without path should fail")
	}
	if _, err := Open(Config{Kind: "ftp"}, logx.Nop()); err == nil {
		t.Fatal("unknown kind should fail")
	}
}
