package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expr is a parsed 5-field cron expression. Each field is a bit set of the
// values it allows.
type Expr struct {
	minute uint64
	hour   uint64
	dom    uint64
	month  uint64
	dow    uint64

	// Standard cron: when both day fields are restricted a day matches if
	// either one does.
	domStar bool
	dowStar bool

	source string
}

type bounds struct {
	name     string
	min, max int
}

var fields = [5]bounds{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 7},
}

// Parse reads "minute hour day-of-month month day-of-week". Each field
// accepts *, */n, n, n-m, n-m/s and comma lists. Day-of-week 7 is Sunday.
func Parse(expr string) (*Expr, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(parts))
	}

	var sets [5]uint64
	for i, part := range parts {
		set, err := parseField(part, fields[i])
		if err != nil {
			return nil, fmt.Errorf("%s field: %w", fields[i].name, err)
		}
		sets[i] = set
	}

	// Fold 7 onto 0 so both spellings of Sunday match.
	if sets[4]&(1<<7) != 0 {
		sets[4] = sets[4]&^(1<<7) | 1
	}

	return &Expr{
		minute:  sets[0],
		hour:    sets[1],
		dom:     sets[2],
		month:   sets[3],
		dow:     sets[4],
		domStar: strings.HasPrefix(parts[2], "*"),
		dowStar: strings.HasPrefix(parts[4], "*"),
		source:  expr,
	}, nil
}

func (e *Expr) String() string { return e.source }

// Matches reports whether t, truncated to the minute, is a firing time.
func (e *Expr) Matches(t time.Time) bool {
	if !has(e.minute, t.Minute()) || !has(e.hour, t.Hour()) || !has(e.month, int(t.Month())) {
		return false
	}
	dom := has(e.dom, t.Day())
	dow := has(e.dow, int(t.Weekday()))
	switch {
	case e.domStar || e.dowStar:
		return dom && dow
	default:
		return dom || dow
	}
}

// Next returns the first firing time strictly after t, or the zero time if
// there is none within five years.
func (e *Expr) Next(t time.Time) time.Time {
	t = t.Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(5, 0, 0)
	for t.Before(limit) {
		if e.Matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

func has(set uint64, v int) bool {
	return set&(1<<uint(v)) != 0
}

func parseField(field string, b bounds) (uint64, error) {
	var set uint64
	for _, part := range strings.Split(field, ",") {
		bits, err := parsePart(part, b)
		if err != nil {
			return 0, err
		}
		set |= bits
	}
	return set, nil
}

func parsePart(part string, b bounds) (uint64, error) {
	rangePart, stepPart, stepped := strings.Cut(part, "/")

	lo, hi := b.min, b.max
	switch {
	case rangePart == "*":
	case strings.Contains(rangePart, "-"):
		from, to, _ := strings.Cut(rangePart, "-")
		var err error
		if lo, err = value(from, b); err != nil {
			return 0, err
		}
		if hi, err = value(to, b); err != nil {
			return 0, err
		}
		if lo > hi {
			return 0, fmt.Errorf("invalid range: %s", part)
		}
	default:
		if stepped {
			return 0, fmt.Errorf("step needs a range or *: %s", part)
		}
		v, err := value(rangePart, b)
		if err != nil {
			return 0, err
		}
		return 1 << uint(v), nil
	}

	step := 1
	if stepped {
		var err error
		step, err = strconv.Atoi(stepPart)
		if err != nil || step <= 0 {
			return 0, fmt.Errorf("invalid step: %s", part)
		}
	}

	var set uint64
	for v := lo; v <= hi; v += step {
		set |= 1 << uint(v)
	}
	return set, nil
}

func value(s string, b bounds) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value: %q", s)
	}
	if v < b.min || v > b.max {
		return 0, fmt.Errorf("value %d out of range %d-%d", v, b.min, b.max)
	}
	return v, nil
}
