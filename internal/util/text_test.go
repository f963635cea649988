package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keeps valid text unchanged",
			input: "MARKET: Cloud\nRELATIONSHIP: Globex OPERATES_IN Cloud",
			want:  "MARKET: Cloud\nRELATIONSHIP: Globex OPERATES_IN Cloud",
		},
		{
			name:  "removes invalid utf8 bytes",
			input: string([]byte{'A', 0xe2, '.', '.', 'B'}),
			want:  "A..B",
		},
		{
			name:  "removes null bytes",
			input: "prefix\x00suffix",
			want:  "prefixsuffix",
		},
		{
			name:  "normalizes carriage returns",
			input: "a\r\nb\rc",
			want:  "a\nb\nc",
		},
		{
			name:  "drops escape sequences",
			input: "\x1b[1mbold",
			want:  "[1mbold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeText(tt.input)

			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}

			if !utf8.ValidString(got) {
				t.Fatalf("sanitized value must be valid utf-8: %q", got)
			}

			if strings.Contains(got, "\x00") {
				t.Fatalf("sanitized value must not contain null bytes: %q", got)
			}
		})
	}
}
