package model

import (
	"errors"
	"testing"
	"time"
)

func TestRecurrenceDailyInterval(t *testing.T) {
	p := RecurrencePattern{Frequency: FrequencyDaily, Interval: 3}
	anchor := MustParseDate("2024-02-27")

	// 2024 is a leap year, so Feb 29 sits between the anchor and Mar 1.
	for _, tc := range []struct {
		date string
		want bool
	}{
		{"2024-02-26", false},
		{"2024-02-27", true},
		{"2024-02-28", false},
		{"2024-02-29", false},
		{"2024-03-01", true},
		{"2024-03-02", false},
		{"2024-03-04", true},
	} {
		if got := p.Matches(anchor, MustParseDate(tc.date)); got != tc.want {
			t.Fatalf("daily/3 on %s: got %v want %v", tc.date, got, tc.want)
		}
	}
}

func TestRecurrenceWeeklyWithoutWeekdays(t *testing.T) {
	p := RecurrencePattern{Frequency: FrequencyWeekly, Interval: 2}
	anchor := MustParseDate("2024-01-03")

	if !p.Matches(anchor, MustParseDate("2024-01-03")) {
		t.Fatal("expected anchor to match")
	}
	if p.Matches(anchor, MustParseDate("2024-01-10")) {
		t.Fatal("expected odd week to be skipped")
	}
	if !p.Matches(anchor, MustParseDate("2024-01-17")) {
		t.Fatal("expected second week to match")
	}
}

func TestRecurrenceWeeklyWeekdaySet(t *testing.T) {
	p := RecurrencePattern{
		Frequency:  FrequencyWeekly,
		Interval:   1,
		DaysOfWeek: []time.Weekday{time.Wednesday, time.Friday},
	}
	anchor := MustParseDate("2024-01-01") // Monday

	day := anchor
	for i := 0; i < 60; i++ {
		want := day.Weekday() == time.Wednesday || day.Weekday() == time.Friday
		if got := p.Matches(anchor, day); got != want {
			t.Fatalf("%s (%s): got %v want %v", day, day.Weekday(), got, want)
		}
		day = day.AddDays(1)
	}
	if p.Matches(anchor, anchor) {
		t.Fatal("anchor outside the weekday set must not match")
	}
}

func TestRecurrenceMonthlySkipsShortMonths(t *testing.T) {
	p := RecurrencePattern{Frequency: FrequencyMonthly, Interval: 1}
	anchor := MustParseDate("2024-03-31")

	day := MustParseDate("2024-04-01")
	for day.Month == time.April {
		if p.Matches(anchor, day) {
			t.Fatalf("unexpected match in April: %s", day)
		}
		day = day.AddDays(1)
	}
	if !p.Matches(anchor, MustParseDate("2024-05-31")) {
		t.Fatal("expected match on 2024-05-31")
	}
}

func TestRecurrenceMonthlyInterval(t *testing.T) {
	p := RecurrencePattern{Frequency: FrequencyMonthly, Interval: 3}
	anchor := MustParseDate("2023-11-15")

	if !p.Matches(anchor, MustParseDate("2024-02-15")) {
		t.Fatal("expected match across year boundary")
	}
	if p.Matches(anchor, MustParseDate("2024-01-15")) {
		t.Fatal("expected two-month distance to be skipped")
	}
}

func TestRecurrenceYearly(t *testing.T) {
	p := RecurrencePattern{Frequency: FrequencyYearly, Interval: 1}
	anchor := MustParseDate("2020-02-29")

	if p.Matches(anchor, MustParseDate("2021-02-28")) {
		t.Fatal("leap-day anchor must not clamp to Feb 28")
	}
	if !p.Matches(anchor, MustParseDate("2024-02-29")) {
		t.Fatal("expected match on next leap day")
	}

	biennial := RecurrencePattern{Frequency: FrequencyYearly, Interval: 2}
	bday := MustParseDate("2020-06-10")
	if biennial.Matches(bday, MustParseDate("2021-06-10")) {
		t.Fatal("expected odd year to be skipped")
	}
	if !biennial.Matches(bday, MustParseDate("2022-06-10")) {
		t.Fatal("expected even year distance to match")
	}
}

func TestRecurrenceEndDateInclusive(t *testing.T) {
	p := RecurrencePattern{Frequency: FrequencyDaily, Interval: 1, EndDate: MustParseDate("2024-01-10")}
	anchor := MustParseDate("2024-01-01")

	if !p.Matches(anchor, MustParseDate("2024-01-10")) {
		t.Fatal("expected end date to match")
	}
	if p.Matches(anchor, MustParseDate("2024-01-11")) {
		t.Fatal("expected no match after end date")
	}
}

func TestRecurrenceMalformedNeverMatches(t *testing.T) {
	anchor := MustParseDate("2024-01-01")
	cases := []RecurrencePattern{
		{Frequency: Frequency("hourly"), Interval: 1},
		{Frequency: FrequencyDaily, Interval: -1},
		{Frequency: FrequencyWeekly, Interval: 1, DaysOfWeek: []time.Weekday{}},
		{Frequency: FrequencyWeekly, Interval: 1, DaysOfWeek: []time.Weekday{7}},
		{Frequency: FrequencyDaily, Interval: 1, Malformed: true},
	}
	for _, p := range cases {
		if p.Matches(anchor, anchor) {
			t.Fatalf("malformed pattern matched: %+v", p)
		}
	}
	if (RecurrencePattern{Frequency: FrequencyDaily}).Matches(Date{}, anchor) {
		t.Fatal("missing anchor must never match")
	}
}

func TestRecurrenceWeekdaysOnlyCheckedForWeekly(t *testing.T) {
	anchor := MustParseDate("2024-01-01") // Monday

	dup := RecurrencePattern{Frequency: FrequencyWeekly, DaysOfWeek: []time.Weekday{time.Monday, time.Monday, time.Wednesday}}
	if err := dup.Validate(); err != nil {
		t.Fatalf("duplicate weekdays should be tolerated, got %v", err)
	}
	if !dup.Matches(anchor, MustParseDate("2024-01-03")) {
		t.Fatal("expected Wednesday match with duplicated Monday")
	}

	daily := RecurrencePattern{Frequency: FrequencyDaily, DaysOfWeek: []time.Weekday{}}
	if err := daily.Validate(); err != nil {
		t.Fatalf("weekday set on a daily pattern should be ignored, got %v", err)
	}
	if !daily.Matches(anchor, MustParseDate("2024-01-06")) {
		t.Fatal("expected daily pattern to ignore its weekday set")
	}
	monthly := RecurrencePattern{Frequency: FrequencyMonthly, DaysOfWeek: []time.Weekday{42}}
	if !monthly.Matches(anchor, MustParseDate("2024-02-01")) {
		t.Fatal("expected monthly pattern to ignore its weekday set")
	}
}

func TestRecurrenceValidate(t *testing.T) {
	err := RecurrencePattern{Frequency: Frequency("bad")}.Validate()
	if !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	err = RecurrencePattern{Frequency: FrequencyWeekly, DaysOfWeek: []time.Weekday{time.Monday, 9}}.Validate()
	if !errors.Is(err, ErrInvalidWeekdays) {
		t.Fatalf("expected ErrInvalidWeekdays, got %v", err)
	}
	err = RecurrencePattern{Frequency: FrequencyDaily, EndDate: MustParseDate("2024-02-01"), Malformed: true}.Validate()
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	if err := (RecurrencePattern{Frequency: FrequencyMonthly}).Validate(); err != nil {
		t.Fatalf("expected zero interval to be valid, got %v", err)
	}
}
