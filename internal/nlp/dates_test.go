package nlp

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	jan8 := time.Date(1995, time.January, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "ordinal day first", input: "8th January 1995", want: jan8},
		{name: "ordinal day after month", input: "January 8th 1995", want: jan8},
		{name: "iso date", input: "1995-01-08", want: jan8},
		{name: "month day comma year", input: "January 8, 1995", want: jan8},
		{name: "day month year", input: "8 January 1995", want: jan8},
		{name: "surrounding whitespace", input: "  8th January 1995  ", want: jan8},
		{name: "first ordinal", input: "1st March 2001", want: time.Date(2001, time.March, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.input)
			if err != nil {
				t.Fatalf("NormalizeDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NormalizeDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDateRoundTrip(t *testing.T) {
	// Both phrasings of the same birthday must resolve identically.
	a, err := NormalizeDate("8th January 1995")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NormalizeDate("1995-01-08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("normalized dates differ: %v vs %v", a, b)
	}
}

func TestNormalizeDateFailure(t *testing.T) {
	for _, input := range []string{"Blorptag", "", "born on nothing", "the day before payday"} {
		t.Run(input, func(t *testing.T) {
			if _, err := NormalizeDate(input); err == nil {
				t.Errorf("NormalizeDate(%q) succeeded, want error", input)
			}
		})
	}
}
