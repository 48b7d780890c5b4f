package slug_test

import (
	"testing"

	"veopm/internal/slug"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Detective Marlow", "detective_marlow"},
		{"  Café   Exterior ", "cafe_exterior"},
		{"Señor López", "senor_lopez"},
		{"night-market", "night-market"},
		{"a/b.c", "a_b_c"},
		{"___", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := slug.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
