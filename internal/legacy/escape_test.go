package legacy

import (
	"reflect"
	"testing"
	"time"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a|b|c|", []string{"a", "b", "c", ""}},
		{"a\\|b|c", []string{"a|b", "c"}},
		{"a\\\\|b", []string{"a\\", "b"}},
		{"", []string{""}},
		{"|", []string{"", ""}},
		{"no delim", []string{"no delim"}},
	}
	for _, c := range cases {
		if got := Split(c.in, '|'); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("Split(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEscapeUnescape(t *testing.T) {
	for _, s := range []string{"", "plain", "a|b", "back\\slash", "\\|\\", "multi\nline"} {
		esc := Escape(s, '|', '\n')
		if got := Unescape(esc); got != s {
			t.Fatalf("Unescape(Escape(%q)) = %q", s, got)
		}
	}
	if got := Escape("a|b\\", '|'); got != "a\\|b\\\\" {
		t.Fatalf("Escape = %q", got)
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	fields := []string{"al|ice", "body with \\ and |", "01-02-2024 10-11-12"}
	got := Split(Join(fields, '|'), '|')
	if !reflect.DeepEqual(got[:3], fields) || got[3] != "" {
		t.Fatalf("round trip = %q", got)
	}
}

func TestLineRoundTrip(t *testing.T) {
	loc := time.UTC
	in := Line{Author: "bob", Body: "pipes | and\nnewlines \\ survive", Time: time.Date(2018, 3, 14, 9, 26, 53, 0, loc)}
	s := FormatLine(in, loc)
	recs := splitLines(s + "\n")
	if len(recs) != 1 {
		t.Fatalf("records = %q", recs)
	}
	out, err := ParseLine(recs[0], loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.Author != in.Author || out.Body != in.Body || !out.Time.Equal(in.Time) {
		t.Fatalf("got %+v want %+v", out, in)
	}
}

func TestParseLineOriginalFormat(t *testing.T) {
	out, err := ParseLine("alice|hello world|14-03-2018 09-26-53|", time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.Time.Day() != 14 || out.Time.Month() != time.March || out.Time.Second() != 53 {
		t.Fatalf("time = %v", out.Time)
	}
	if _, err := ParseLine("only|two|", time.UTC); err == nil {
		t.Fatalf("expected malformed line error")
	}
	if _, err := ParseLine("a|b|yesterday|", time.UTC); err == nil {
		t.Fatalf("expected bad time error")
	}
}
