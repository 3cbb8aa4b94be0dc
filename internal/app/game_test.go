package app

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateCutsOnRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"ascii cut", "hello world", 5, "hello"},
		{"two-byte rune not split", "привет", 3, "п"},
		{"emoji not split", "ok🧁done", 4, "ok"},
		{"cut lands on boundary", "привет", 4, "пр"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", tt.in, tt.n, got)
			}
			if len(got) > tt.n {
				t.Errorf("truncate(%q, %d) exceeded limit: %d bytes", tt.in, tt.n, len(got))
			}
		})
	}
}

func TestTruncateLongReplyStaysValid(t *testing.T) {
	reply := strings.Repeat("муффин ", 100)
	got := truncate(reply, maxAnswerPreviewLen)
	if len(got) > maxAnswerPreviewLen {
		t.Fatalf("expected at most %d bytes, got %d", maxAnswerPreviewLen, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncated reply is not valid UTF-8")
	}
}
