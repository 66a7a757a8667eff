package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hbeck/ledgersync/internal/usecase"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"shorter than max", "checking", 24, "checking"},
		{"exactly max", "abcd", 4, "abcd"},
		{"longer than max", "a very long account name", 10, "a very ..."},
		{"tiny max", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestConfirmReset(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exact word", "RESET\n", true},
		{"surrounding whitespace", "  RESET  \n", true},
		{"wrong case", "reset\n", false},
		{"anything else", "yes\n", false},
		{"empty input", "", false},
		{"no trailing newline", "RESET", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := confirmReset(strings.NewReader(tt.input)); got != tt.want {
				t.Errorf("confirmReset(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPrintImportResult(t *testing.T) {
	var buf bytes.Buffer

	printImportResult(&buf, &usecase.ImportResult{
		Created:   12,
		Duplicate: 3,
		Skipped:   1,
		Malformed: 2,
	})

	out := buf.String()
	for _, want := range []string{"Created:   12", "Duplicate: 3", "Skipped:   1", "Malformed: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
