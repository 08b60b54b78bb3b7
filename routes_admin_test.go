package main

import (
	"testing"

	"bitbucket.org/mmdatafocus/billing_portal/config"
)

func TestPageLimit(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"within cap", "5", 5, false},
		{"at cap", "10", config.SearchLimit, false},
		{"above cap is clamped", "500", config.SearchLimit, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"not a number", "abc", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pageLimit(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("pageLimit(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}
