// Package snitchlog parses pasted snitch event logs into timeline events.
//
// A log is plain text with one event per line, in the form produced by
// snitch relay bots:
//
//	[07:54:40] [basenji] Mallqi is at choclo (4504,71,-2203)
//	[2022-07-25 07:55:03] [basenji] Mallqi logged out at choclo (4504,71,-2203)
//
// The bracketed timestamp is either a bare clock time or a full
// datetime. Coordinates are Minecraft order (x, height, z); the parser
// swaps the last two so height ends up in Z and the horizontal plane in
// X/Y, which is what the top-down renderer draws.
package snitchlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"time"

	"snitchvis/internal/model"
)

// ErrNoEvents is returned when no line of the input parses as an event.
var ErrNoEvents = errors.New("snitchlog: no events found")

// ParseError reports a line that matched the event shape but could not
// be fully parsed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("snitchlog: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// eventRE matches one relayed snitch event. Lines that do not match at
// all are treated as noise (chat fragments, bot decorations) and
// skipped.
var eventRE = regexp.MustCompile(
	`\[([^\]]*)\] \[([^\]]*)\] (\w+) (is|logged out|logged in) at (.*?) \((-?\d+),(-?\d+),(-?\d+)\)`)

var kinds = map[string]model.EventKind{
	"is":         model.EventPing,
	"logged in":  model.EventLogin,
	"logged out": model.EventLogout,
}

const (
	clockLayout    = "15:04:05"
	datetimeLayout = "2006-01-02 15:04:05"
)

// Parse reads a snitch log and returns its events sorted by time, with
// T normalized to milliseconds since the earliest event.
//
// Bare clock timestamps carry no date, so they are anchored to ref's
// date (in UTC). A clock time that jumps backwards by more than twelve
// hours is taken as a midnight rollover and pushed to the next day;
// logs spanning a night therefore stay in order.
func Parse(r io.Reader, ref time.Time) ([]model.Event, error) {
	var events []model.Event

	anchor := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	dayOffset := 0
	var prevClock time.Duration = -1

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		m := eventRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		occurred, clock, hasClock, err := parseEventTime(m[1], anchor, dayOffset)
		if err != nil {
			return nil, &ParseError{Line: lineno, Text: line, Err: err}
		}
		if hasClock {
			if prevClock >= 0 && prevClock-clock > 12*time.Hour {
				dayOffset++
				occurred = occurred.AddDate(0, 0, 1)
			}
			prevClock = clock
		}

		x, err := strconv.Atoi(m[6])
		if err != nil {
			return nil, &ParseError{Line: lineno, Text: line, Err: fmt.Errorf("x coordinate: %w", err)}
		}
		height, err := strconv.Atoi(m[7])
		if err != nil {
			return nil, &ParseError{Line: lineno, Text: line, Err: fmt.Errorf("y coordinate: %w", err)}
		}
		y, err := strconv.Atoi(m[8])
		if err != nil {
			return nil, &ParseError{Line: lineno, Text: line, Err: fmt.Errorf("z coordinate: %w", err)}
		}

		events = append(events, model.Event{
			Kind:       kinds[m[4]],
			Username:   m[3],
			SnitchName: m[5],
			Group:      m[2],
			X:          x,
			Y:          y,
			Z:          height,
			OccurredAt: occurred,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("snitchlog: read: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	normalize(events)
	return events, nil
}

// parseEventTime parses the bracketed timestamp. For bare clock times
// it also returns the clock value so the caller can detect midnight
// rollovers.
func parseEventTime(s string, anchor time.Time, dayOffset int) (at time.Time, clock time.Duration, hasClock bool, err error) {
	if t, perr := time.ParseInLocation(clockLayout, s, time.UTC); perr == nil {
		clock = time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second
		return anchor.AddDate(0, 0, dayOffset).Add(clock), clock, true, nil
	}
	if t, perr := time.ParseInLocation(datetimeLayout, s, time.UTC); perr == nil {
		return t, 0, false, nil
	}
	return time.Time{}, 0, false, fmt.Errorf("unrecognized timestamp %q", s)
}

// normalize sorts events chronologically and rebases T to milliseconds
// since the earliest event.
func normalize(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	start := events[0].OccurredAt
	for i := range events {
		events[i].T = events[i].OccurredAt.Sub(start).Milliseconds()
	}
}
