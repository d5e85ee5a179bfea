package main

import (
	"context"
	"strings"
	"testing"

	"github.com/bft-labs/chronicler/internal/domain"
)

func TestDetectSeverity(t *testing.T) {
	tests := []struct {
		line string
		want domain.Severity
	}{
		{"ERROR database unreachable", domain.SeverityError},
		{"[warn] disk at 91%", domain.SeverityWarning},
		{"WARNING: retrying", domain.SeverityWarning},
		{"fatal: out of memory", domain.SeverityFatal},
		{"  INFO started", domain.SeverityInfo},
		{"plain line", domain.SeverityWarning},
		{"errors are fine here", domain.SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := detectSeverity(tt.line, domain.SeverityWarning); got != tt.want {
				t.Errorf("detectSeverity(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestScanLines(t *testing.T) {
	var got []string
	err := scanLines(context.Background(), strings.NewReader("one\ntwo\n\nthree"), func(s string) {
		got = append(got, s)
	})
	if err != nil {
		t.Fatalf("scanLines() error = %v", err)
	}
	want := []string{"one", "two", "", "three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestScanLines_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var n int
	if err := scanLines(ctx, strings.NewReader("a\nb\n"), func(string) { n++ }); err != nil {
		t.Fatalf("scanLines() error = %v", err)
	}
	if n != 0 {
		t.Errorf("emitted %d lines after cancel", n)
	}
}
