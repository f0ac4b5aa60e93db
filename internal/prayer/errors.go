package prayer

import (
	"errors"
	"strings"
)

var (
	// ErrParse matches every *ParseError via errors.Is.
	ErrParse = errors.New("prayer: parse error")

	// ErrUnresolvable means neither today nor tomorrow yields a next prayer.
	ErrUnresolvable = errors.New("prayer: next event unresolvable")
)

// ParseError describes a malformed or out-of-range field, or a day whose
// prayers are not in order.
type ParseError struct {
	Day    string
	Field  string
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if e.Day != "" {
		b.WriteString(" day ")
		b.WriteString(e.Day)
	}
	if e.Field != "" {
		b.WriteString(" ")
		b.WriteString(e.Field)
	}
	if e.Raw != "" {
		b.WriteString(" \"")
		b.WriteString(e.Raw)
		b.WriteString("\"")
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
