package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2026-08-28T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2026, 8, 28, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2026, 8, 28, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("14", 0); got != 14 {
		t.Fatalf("got %d want 14", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("got %d want default 7", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("got %d want default 7", got)
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2026, 8, 28, 10, 7, 30, 0, time.UTC)
	to := time.Date(2026, 8, 28, 11, 3, 5, 0, time.UTC)

	af, at := AlignFromTo(from, to, "5m")
	if af.Minute() != 5 || af.Second() != 0 {
		t.Fatalf("from not on 5m grid: %v", af)
	}
	if at.Minute() != 0 || at.Second() != 0 {
		t.Fatalf("to not on 5m grid: %v", at)
	}

	af, at = AlignFromTo(from, to, "60m")
	if af.Minute() != 0 || af.Hour() != 10 {
		t.Fatalf("from not on hour grid: %v", af)
	}
	if at.Hour() != 11 || at.Minute() != 0 {
		t.Fatalf("to not on hour grid: %v", at)
	}

	// Unknown token falls back to whole minutes.
	af, _ = AlignFromTo(from, to, "1D")
	if af.Minute() != 7 || af.Second() != 0 {
		t.Fatalf("fallback not minute-aligned: %v", af)
	}
}
