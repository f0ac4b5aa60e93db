package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"adhan/internal/prayer"
)

// ParseMonthTable extracts day rows from the table identified by l.TableID.
//
// Rows without a usable day cell are dropped. Rows that are too short to hold
// every prayer column keep the cells they have, so the parser rejects them
// per row instead of the whole page failing.
func ParseMonthTable(r io.Reader, l Layout) ([]prayer.RawDayRow, error) {
	l = l.normalize()
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrFetch, err)
	}
	table := findByID(doc, atom.Table, l.TableID)
	if table == nil {
		return nil, fmt.Errorf("%w: table #%s not found", ErrFetch, l.TableID)
	}

	var trs []*html.Node
	collect(table, atom.Tr, &trs)
	if len(trs) <= l.SkipRows {
		return nil, fmt.Errorf("%w: table #%s has no data rows", ErrFetch, l.TableID)
	}

	out := make([]prayer.RawDayRow, 0, len(trs)-l.SkipRows)
	for _, tr := range trs[l.SkipRows:] {
		cells := rowCells(tr)
		if l.DayColumn >= len(cells) {
			continue
		}
		day := cells[l.DayColumn]
		if day == "" {
			continue
		}
		fields := make([]string, 0, len(l.Columns))
		for _, c := range l.Columns {
			if c < 0 || c >= len(cells) {
				break
			}
			fields = append(fields, cells[c])
		}
		out = append(out, prayer.RawDayRow{Day: day, Fields: fields})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: table #%s has no data rows", ErrFetch, l.TableID)
	}
	return out, nil
}

func findByID(n *html.Node, a atom.Atom, id string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, a, id); found != nil {
			return found
		}
	}
	return nil
}

// collect appends matching descendants in document order. Nested tables are
// not descended into.
func collect(n *html.Node, a atom.Atom, out *[]*html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == a {
			*out = append(*out, c)
			continue
		}
		if c.DataAtom == atom.Table {
			continue
		}
		collect(c, a, out)
	}
}

// rowCells returns the trimmed text of each <td> in tr.
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			cells = append(cells, strings.TrimSpace(text(c)))
		}
	}
	return cells
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
