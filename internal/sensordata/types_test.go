package sensordata

import (
	"errors"
	"testing"
	"time"
)

const testCubeID = "550e8400-e29b-41d4-a716-446655440000"

func TestParseTimeBound(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{"empty is unbounded", "", 0, nil},
		{"whitespace is unbounded", "  ", 0, nil},
		{"unix seconds", "1700000000", 1700000000, nil},
		{"rfc3339", "2023-11-14T22:13:20Z", 1700000000, nil},
		{"rfc1123", "Tue, 14 Nov 2023 22:13:20 UTC", 1700000000, nil},
		{"date only", "2023-11-14", time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC).Unix(), nil},
		{"garbage", "yesterday", 0, ErrInvalidTimestamp},
		{"negative unix", "-5", 0, ErrInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeBound(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeBound(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeBound(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := Filter{CubeID: testCubeID, Start: 100, End: 200}
		if err := f.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("empty cube matches all", func(t *testing.T) {
		if err := (Filter{}).Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("inverted window", func(t *testing.T) {
		f := Filter{Start: 200, End: 100}
		if err := f.Validate(); !errors.Is(err, ErrInvalidTimeRange) {
			t.Errorf("Validate() error = %v, want ErrInvalidTimeRange", err)
		}
	})

	t.Run("unbounded sides skip order check", func(t *testing.T) {
		if err := (Filter{Start: 200}).Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
		if err := (Filter{End: 100}).Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	// A malformed ID is a validation failure, distinct from a
	// well-formed ID that simply is not registered.
	t.Run("bad cube id", func(t *testing.T) {
		f := Filter{CubeID: "nope"}
		if err := f.Validate(); !errors.Is(err, ErrInvalidCubeID) {
			t.Errorf("Validate() error = %v, want ErrInvalidCubeID", err)
		}
		if errors.Is(f.Validate(), ErrUnknownCube) {
			t.Error("Validate() error matches ErrUnknownCube, want a validation sentinel")
		}
	})
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(testCubeID, "1700000000", "1700000100")
	if err != nil {
		t.Fatalf("ParseFilter() error = %v", err)
	}
	if f.Start != 1700000000 || f.End != 1700000100 {
		t.Errorf("filter = %+v", f)
	}

	if _, err := ParseFilter("", "1700000100", "1700000000"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("ParseFilter() inverted error = %v, want ErrInvalidTimeRange", err)
	}
	if _, err := ParseFilter("", "bogus", ""); !errors.Is(err, ErrInvalidTimestamp) {
		t.Errorf("ParseFilter() bogus error = %v, want ErrInvalidTimestamp", err)
	}
}
