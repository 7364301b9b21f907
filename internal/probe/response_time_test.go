package probe

import (
	"testing"
	"time"
)

func TestParseResponseTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"", 0, false},
		{"120", 120 * time.Millisecond, true},
		{"12.5", 12500 * time.Microsecond, true},
		{"120ms", 120 * time.Millisecond, true},
		{" 1.5s ", 1500 * time.Millisecond, true},
		{"-3", 0, false},
		{"fast", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseResponseTime(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseResponseTime(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
