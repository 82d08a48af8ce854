package calendar

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekdaysIn lists Mon-Fri dates across [start, end].
func weekdaysIn(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

func TestParseFrequency(t *testing.T) {
	cases := map[string]Frequency{
		"daily":     Daily,
		"weekly":    Weekly,
		"monthly":   Monthly,
		"quarterly": Quarterly,
		"yearly":    Yearly,
		"fortnight": Quarterly, // unknown falls back
		"":          Quarterly,
	}
	for in, want := range cases {
		if got := ParseFrequency(in); got != want {
			t.Errorf("ParseFrequency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRebalanceDatesDaily(t *testing.T) {
	days := weekdaysIn(day(2024, 1, 1), day(2024, 1, 31))

	got := RebalanceDates(days, Daily, day(2024, 1, 8), day(2024, 1, 12))
	if len(got) != 5 {
		t.Fatalf("daily schedule returned %d dates, want 5", len(got))
	}
	for i, d := range got {
		want := day(2024, 1, 8).AddDate(0, 0, i)
		if !d.Equal(want) {
			t.Errorf("date[%d] = %v, want %v", i, d, want)
		}
	}
}

func TestRebalanceDatesQuarterly(t *testing.T) {
	days := weekdaysIn(day(2023, 1, 1), day(2023, 12, 31))

	got := RebalanceDates(days, Quarterly, day(2023, 1, 1), day(2023, 12, 31))
	if len(got) != 4 {
		t.Fatalf("quarterly schedule returned %d dates, want 4", len(got))
	}

	// Each date must be the last trading day of its quarter.
	want := []time.Time{
		day(2023, 3, 31),  // Friday
		day(2023, 6, 30),  // Friday
		day(2023, 9, 29),  // Sep 30 is a Saturday
		day(2023, 12, 29), // Dec 31 is a Sunday
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("quarter %d rebalance = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRebalanceDatesWeekly(t *testing.T) {
	days := weekdaysIn(day(2024, 1, 1), day(2024, 1, 31))

	got := RebalanceDates(days, Weekly, day(2024, 1, 1), day(2024, 1, 31))
	// ISO weeks 1-5 of 2024 all have a Friday (or last weekday) in January.
	if len(got) != 5 {
		t.Fatalf("weekly schedule returned %d dates, want 5: %v", len(got), got)
	}
	for _, d := range got {
		if wd := d.Weekday(); wd != time.Friday && !d.Equal(day(2024, 1, 31)) {
			t.Errorf("weekly rebalance on %v (%v), want Friday or month end", d, wd)
		}
	}
}

func TestRebalanceDatesMonthlyAndYearly(t *testing.T) {
	days := weekdaysIn(day(2023, 11, 1), day(2024, 2, 29))

	monthly := RebalanceDates(days, Monthly, day(2023, 11, 1), day(2024, 2, 29))
	if len(monthly) != 4 {
		t.Fatalf("monthly schedule returned %d dates, want 4: %v", len(monthly), monthly)
	}
	if !monthly[1].Equal(day(2023, 12, 29)) {
		t.Errorf("December rebalance = %v, want 2023-12-29", monthly[1])
	}

	yearly := RebalanceDates(days, Yearly, day(2023, 11, 1), day(2024, 2, 29))
	if len(yearly) != 2 {
		t.Fatalf("yearly schedule returned %d dates, want 2: %v", len(yearly), yearly)
	}
	if !yearly[0].Equal(day(2023, 12, 29)) || !yearly[1].Equal(day(2024, 2, 29)) {
		t.Errorf("yearly schedule = %v", yearly)
	}
}

func TestRebalanceDatesEmptyRange(t *testing.T) {
	days := weekdaysIn(day(2024, 1, 1), day(2024, 1, 31))

	got := RebalanceDates(days, Quarterly, day(2025, 1, 1), day(2025, 12, 31))
	if len(got) != 0 {
		t.Errorf("out-of-range schedule = %v, want empty", got)
	}

	got = RebalanceDates(nil, Daily, day(2024, 1, 1), day(2024, 1, 31))
	if len(got) != 0 {
		t.Errorf("empty calendar schedule = %v, want empty", got)
	}
}

func TestRebalanceDatesDedupsUnsortedInput(t *testing.T) {
	days := []time.Time{
		day(2024, 1, 3),
		day(2024, 1, 2),
		day(2024, 1, 3), // duplicate
		day(2024, 1, 4),
	}
	got := RebalanceDates(days, Daily, day(2024, 1, 1), day(2024, 1, 31))
	if len(got) != 3 {
		t.Fatalf("got %d dates, want 3: %v", len(got), got)
	}
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Errorf("dates not strictly ascending: %v", got)
		}
	}
}

func TestFilingAlignedDates(t *testing.T) {
	days := weekdaysIn(day(2024, 1, 1), day(2024, 12, 31))

	ends := []time.Time{
		day(2024, 3, 31), // Sunday → align to Friday 3/29
		day(2024, 6, 30), // Sunday → align to Friday 6/28
		day(2024, 6, 28), // same aligned date, deduplicated
	}
	got := FilingAlignedDates(days, ends)
	if len(got) != 2 {
		t.Fatalf("aligned dates = %v, want 2 entries", got)
	}
	if !got[0].Equal(day(2024, 3, 29)) || !got[1].Equal(day(2024, 6, 28)) {
		t.Errorf("aligned dates = %v", got)
	}
}

func TestFilingAlignedDatesFallback(t *testing.T) {
	days := weekdaysIn(day(2024, 6, 3), day(2024, 6, 28))

	// Period end before any trading day falls back to the earliest day.
	got := FilingAlignedDates(days, []time.Time{day(2024, 1, 31)})
	if len(got) != 1 || !got[0].Equal(day(2024, 6, 3)) {
		t.Errorf("fallback aligned dates = %v, want [2024-06-03]", got)
	}
}
