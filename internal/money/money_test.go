package money

import (
	"errors"
	"testing"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name   string
		prices []string
		want   string
	}{
		{"empty", nil, "0.00"},
		{"single", []string{"10.00"}, "10.00"},
		{"pizza and soda", []string{"10.00", "2.50"}, "12.50"},
		{"no float drift", []string{"0.1", "0.2"}, "0.30"},
		{"integers", []string{"3", "4"}, "7.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(tt.prices...)
			if err != nil {
				t.Fatalf("Sum() unexpected error = %v", err)
			}
			if Format(got) != tt.want {
				t.Errorf("Sum() = %s, want %s", Format(got), tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "-1.00", "1,50"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestWholeUnits(t *testing.T) {
	tests := map[string]int64{
		"42.50": 42,
		"42.99": 42,
		"0.99":  0,
		"12":    12,
	}

	for in, want := range tests {
		d, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if got := WholeUnits(d); got != want {
			t.Errorf("WholeUnits(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(" 9.5 ")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != "9.50" {
		t.Errorf("Normalize() = %s, want 9.50", got)
	}
}
