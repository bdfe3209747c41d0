package series

import "testing"

func TestParseTimestampDayMonthYear(t *testing.T) {
	got := ParseTimestamp("30-Jan-2026")
	if got != 1769731200 {
		t.Fatalf("unexpected epoch %d", got)
	}
}

func TestParseTimestampISO(t *testing.T) {
	got := ParseTimestamp("2026-01-30T00:00:00Z")
	if got != 1769731200 {
		t.Fatalf("unexpected epoch %d", got)
	}
}

func TestParseTimestampRoundTrip(t *testing.T) {
	a := ParseTimestamp("30-Jan-2026")
	b := ParseTimestamp("2026-01-30T00:00:00Z")
	if a == 0 || a != b {
		t.Fatalf("formats disagree: %d vs %d", a, b)
	}
}

func TestParseTimestampSpaceSeparated(t *testing.T) {
	a := ParseTimestamp("30 Jan 2026")
	if a != 1769731200 {
		t.Fatalf("unexpected epoch %d", a)
	}
}

func TestParseTimestampWithTime(t *testing.T) {
	// Quote metadata format: date plus clock time, four tokens, so it
	// falls through to the layout table.
	got := ParseTimestamp("30-Jan-2026 16:00:00")
	want := int64(1769731200 + 16*3600)
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	cases := []string{"", "garbage", "30-Foo-2026", "xx-Jan-yyyy"}
	for _, c := range cases {
		if got := ParseTimestamp(c); got != 0 {
			t.Fatalf("expected 0 for %q, got %d", c, got)
		}
	}
}

func TestParseTimestampLowercaseMonthFallback(t *testing.T) {
	// Misses the case-sensitive month table but the generic layouts are
	// lenient about month casing, so it still resolves.
	if got := ParseTimestamp("30-jan-2026"); got != 1769731200 {
		t.Fatalf("got %d want 1769731200", got)
	}
}
