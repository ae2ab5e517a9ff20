package cim_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tony23/pywbem/cim"
)

func TestParseDateTime_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{
		"20140924141559.123456+060",
		"20140924141559.123456-300",
		"00000005123045.123456:000",
	}

	for _, wire := range cases {
		t.Run(wire, func(t *testing.T) {
			t.Parallel()

			dt, err := cim.ParseDateTime(wire)
			if err != nil {
				t.Fatalf("ParseDateTime(%q) error = %v", wire, err)
			}
			if got := dt.Render(); got != wire {
				t.Errorf("Render() = %q, want %q", got, wire)
			}
		})
	}
}

func TestParseDateTime_IntervalFields(t *testing.T) {
	t.Parallel()

	got, err := cim.ParseDateTime("00000005123045.123456:000")
	if err != nil {
		t.Fatalf("ParseDateTime error = %v", err)
	}
	want := cim.DateTime{
		IsInterval:   true,
		Days:         5,
		IHour:        12,
		IMinute:      30,
		ISecond:      45,
		IMicrosecond: 123456,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDateTime() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDateTime_AbsoluteFields(t *testing.T) {
	t.Parallel()

	got, err := cim.ParseDateTime("20140924141559.123456+060")
	if err != nil {
		t.Fatalf("ParseDateTime error = %v", err)
	}
	want := cim.DateTime{
		Year: 2014, Month: 9, Day: 24,
		Hour: 14, Minute: 15, Second: 59,
		Microsecond:      123456,
		UTCOffsetMinutes: 60,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDateTime() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDateTime_Malformed(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"20140924141559123456+060",
		"2014092414155X.123456+060",
	}

	for _, wire := range cases {
		t.Run(wire, func(t *testing.T) {
			t.Parallel()

			if _, err := cim.ParseDateTime(wire); err == nil {
				t.Errorf("ParseDateTime(%q) error = nil, want error", wire)
			}
		})
	}
}
