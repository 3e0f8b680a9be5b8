package humandate

import (
	"errors"
	"testing"
	"time"
)

// Tuesday morning.
var testNow = time.Date(2014, 7, 8, 9, 10, 11, 0, time.UTC)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		phrase string
		want   time.Time
	}{
		{"tomorrow", time.Date(2014, 7, 9, 9, 30, 0, 0, time.UTC)},
		{"day after tomorrow", time.Date(2014, 7, 10, 9, 30, 0, 0, time.UTC)},
		{"next week", time.Date(2014, 7, 14, 9, 30, 0, 0, time.UTC)},
		{"tomorrow at 1800", time.Date(2014, 7, 9, 18, 0, 0, 0, time.UTC)},
		{"tomorrow at 18:00", time.Date(2014, 7, 9, 18, 0, 0, 0, time.UTC)},
		{"in 1 week", time.Date(2014, 7, 15, 9, 30, 0, 0, time.UTC)},
		{"in 1 week at 10:00", time.Date(2014, 7, 15, 10, 0, 0, 0, time.UTC)},
		{"in a few hours", time.Date(2014, 7, 8, 12, 10, 11, 0, time.UTC)},
		{"in a couple of minutes", time.Date(2014, 7, 8, 9, 12, 11, 0, time.UTC)},
		{"in half an hour", time.Date(2014, 7, 8, 9, 40, 11, 0, time.UTC)},
		{"in 30 s", time.Date(2014, 7, 8, 9, 10, 41, 0, time.UTC)},
		{"in 2 days", time.Date(2014, 7, 10, 9, 10, 11, 0, time.UTC)},
		{"in 3 days", time.Date(2014, 7, 11, 9, 30, 0, 0, time.UTC)},
		{"wed", time.Date(2014, 7, 9, 9, 30, 0, 0, time.UTC)},
		{"on wednesday", time.Date(2014, 7, 9, 9, 30, 0, 0, time.UTC)},
		{"on monday", time.Date(2014, 7, 14, 9, 30, 0, 0, time.UTC)},
		{"on 2017-12-04", time.Date(2017, 12, 4, 9, 30, 0, 0, time.UTC)},
		{"on 2017-12-04 at 10:00", time.Date(2017, 12, 4, 10, 0, 0, 0, time.UTC)},
		{"fri at 7pm", time.Date(2014, 7, 11, 19, 30, 0, 0, time.UTC)},
		{"tomorrow at 8:00", time.Date(2014, 7, 9, 8, 0, 0, 0, time.UTC)},
		// 08:00 today is already past, so the at-clause rolls a day forward.
		{"tue at 8:00", time.Date(2014, 7, 9, 8, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := Parse(tc.phrase, testNow)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tc.phrase, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("Parse(%q) = %v, want %v", tc.phrase, got, tc.want)
		}
	}
}

func TestParseFailures(t *testing.T) {
	t.Parallel()

	phrases := []string{
		"",
		"whenever",
		"tomorrow at 9900",
		"in 1 week at 25:00",
		"in 10000001 seconds",
		"on 2017-02-30",
		"on 2017-13-01",
	}

	for _, phrase := range phrases {
		if _, err := Parse(phrase, testNow); !errors.Is(err, ErrParseFailure) {
			t.Errorf("Parse(%q) = %v, want ErrParseFailure", phrase, err)
		}
	}
}

func TestParseZeroRelative(t *testing.T) {
	t.Parallel()

	got, err := Parse("in 0 seconds", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(testNow) {
		t.Fatalf("Parse(\"in 0 seconds\") = %v, want %v", got, testNow)
	}
}

func TestParseMonthsAndYears(t *testing.T) {
	t.Parallel()

	got, err := Parse("in 1 month", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 30-day jump, day of month pinned back to now's, morning snap.
	want := time.Date(2014, 8, 8, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Parse(\"in 1 month\") = %v, want %v", got, want)
	}

	got, err = Parse("in 2 years", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = time.Date(2016, 7, 8, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Parse(\"in 2 years\") = %v, want %v", got, want)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	t.Parallel()

	for i := 0; i < 3; i++ {
		a, errA := Parse("in a few hours", testNow)
		b, errB := Parse("in a few hours", testNow)
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors: %v, %v", errA, errB)
		}
		if !a.Equal(b) {
			t.Fatalf("parse is not deterministic: %v vs %v", a, b)
		}
	}
}

func TestParseNeverReturnsLocalTime(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	got, err := Parse("tomorrow", testNow.In(loc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC result, got %v", got.Location())
	}
}

func TestParseLargestAllowedCount(t *testing.T) {
	t.Parallel()

	// At the count cap every unit must still land in the future; the hour and
	// larger units in particular go past what fits in a time.Duration of
	// nanoseconds.
	for _, unit := range []string{"seconds", "minutes", "hours", "days", "weeks"} {
		got, err := Parse("in 10000000 "+unit, testNow)
		if err != nil {
			t.Fatalf("Parse(\"in 10000000 %s\"): %v", unit, err)
		}
		if !got.After(testNow) {
			t.Errorf("Parse(\"in 10000000 %s\") = %v, before reference %v", unit, got, testNow)
		}
	}

	got, err := Parse("in 10000000 hours", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := time.Unix(testNow.Unix()+10_000_000*3600, 0).UTC()
	want := time.Date(base.Year(), base.Month(), base.Day(), 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Parse(\"in 10000000 hours\") = %v, want %v", got, want)
	}
}
