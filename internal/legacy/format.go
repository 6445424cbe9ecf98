package legacy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Files of the legacy on-disk layout.
const (
	UserListFile  = "userlist.txt"
	FollowersFile = "followers.txt"
	TimelineFile  = "timeline.txt"
)

// TimeLayout is the legacy "%d-%m-%Y %H-%M-%S" timestamp format.
const TimeLayout = "02-01-2006 15-04-05"

var ErrMalformedLine = errors.New("legacy: malformed timeline line")

// Line is one timeline.txt record.
type Line struct {
	Author string
	Body   string
	Time   time.Time
}

// FormatLine renders l as author|body|time| with | \ and newlines escaped.
func FormatLine(l Line, loc *time.Location) string {
	return Join([]string{l.Author, l.Body, l.Time.In(loc).Format(TimeLayout)}, '|', '\n')
}

// ParseLine parses a single record produced by FormatLine. Times are read in loc.
func ParseLine(s string, loc *time.Location) (Line, error) {
	fields := Split(s, '|')
	// The writer terminates every field, so a well-formed line ends in an
	// empty trailing field.
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	if len(fields) != 3 {
		return Line{}, fmt.Errorf("%w: %d fields", ErrMalformedLine, len(fields))
	}
	ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(fields[2]), loc)
	if err != nil {
		return Line{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	return Line{Author: fields[0], Body: fields[1], Time: ts}, nil
}

// splitLines splits file content into records, honouring escaped newlines
// and dropping blank lines.
func splitLines(content string) []string {
	var out []string
	for _, l := range splitRaw(content, '\n') {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// splitRaw cuts at unescaped delim but keeps escapes in place, so each piece
// can be parsed again.
func splitRaw(s string, delim byte) []string {
	var out []string
	start := 0
	escaped := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case escaped:
			escaped = false
		case c == escapeChar:
			escaped = true
		case c == delim:
			out = append(out, strings.TrimSuffix(s[start:i], "\r"))
			start = i + 1
		}
	}
	return append(out, strings.TrimSuffix(s[start:], "\r"))
}
