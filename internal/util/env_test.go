package util

import (
	"testing"
	"time"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{name: "true literal", value: "true", def: false, want: true},
		{name: "numeric false", value: "0", def: true, want: false},
		{name: "yes", value: "YES", def: false, want: true},
		{name: "garbage keeps default", value: "maybe", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MB_TEST_BOOL", tt.value)
			if got := GetEnvBool("MB_TEST_BOOL", tt.def); got != tt.want {
				t.Fatalf("GetEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "bare seconds", value: "45", want: 45 * time.Second},
		{name: "go duration", value: "2m", want: 2 * time.Minute},
		{name: "invalid falls back", value: "soon", want: time.Minute},
		{name: "negative falls back", value: "-3s", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MB_TEST_DURATION", tt.value)
			if got := GetEnvDuration("MB_TEST_DURATION", time.Minute); got != tt.want {
				t.Fatalf("GetEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvStringDefaultsOnBlank(t *testing.T) {
	t.Setenv("MB_TEST_STRING", "   ")
	if got := GetEnvString("MB_TEST_STRING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("MB_TEST_STRING", " value ")
	if got := GetEnvString("MB_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}
