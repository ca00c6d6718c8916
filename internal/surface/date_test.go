package surface

import (
	"errors"
	"testing"

	apperrors "github.com/karnek/ivhist/internal/errors"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-03-15" {
		t.Errorf("got %q", d)
	}

	for _, bad := range []string{"", "2024-3-15", "2024-13-01", "20240315", "2024-02-30"} {
		if _, err := ParseDate(bad); !errors.Is(err, apperrors.ErrInvalidDate) {
			t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestDateOrdering(t *testing.T) {
	a := MustDate("2024-01-31")
	b := MustDate("2024-02-01")
	if !(a < b) {
		t.Errorf("%s should sort before %s", a, b)
	}
}

func TestDateFromName(t *testing.T) {
	tests := []struct {
		name string
		want Date
		ok   bool
	}{
		{"surfaces_2024-03-15.zip", "2024-03-15", true},
		{"/data/zips/2023-12-29_full.zip", "2023-12-29", true},
		{"2024-03-15", "2024-03-15", true},
		{"surfaces_latest.zip", "", false},
		{"20240315.zip", "", false},
	}
	for _, tt := range tests {
		got, err := DateFromName(tt.name)
		if tt.ok {
			if err != nil {
				t.Errorf("DateFromName(%q): %v", tt.name, err)
			} else if got != tt.want {
				t.Errorf("DateFromName(%q) = %q, want %q", tt.name, got, tt.want)
			}
			continue
		}
		if !errors.Is(err, apperrors.ErrNoDateKey) {
			t.Errorf("DateFromName(%q) = %v, want ErrNoDateKey", tt.name, err)
		}
	}
}
