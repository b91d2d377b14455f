package tui

import (
	"strings"
	"testing"
	"time"
)

func TestComputeDimensions_LargeTerminal(t *testing.T) {
	dims := computeDimensions(120, 40)

	if dims.statusW < 40 || dims.statusW > 60 {
		t.Errorf("statusW = %d, want ~48", dims.statusW)
	}
	if dims.statusW+dims.recentW != 120 {
		t.Errorf("statusW(%d) + recentW(%d) != 120", dims.statusW, dims.recentW)
	}
	if dims.statusH != dims.recentH {
		t.Errorf("statusH = %d, recentH = %d, want equal", dims.statusH, dims.recentH)
	}

	totalH := dims.headerH + dims.statusH + dims.activityH + dims.footerH
	if totalH != 40 {
		t.Errorf("headerH(%d) + statusH(%d) + activityH(%d) + footerH(%d) = %d, want 40",
			dims.headerH, dims.statusH, dims.activityH, dims.footerH, totalH)
	}
}

func TestComputeDimensions_MinimumTerminal(t *testing.T) {
	dims := computeDimensions(20, 8)

	if dims.statusW <= 0 || dims.recentW <= 0 {
		t.Errorf("widths = %d/%d, want > 0", dims.statusW, dims.recentW)
	}
	if dims.activityH < 3 {
		t.Errorf("activityH = %d, want >= 3", dims.activityH)
	}
}

func TestStripAnsi(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"with colors", "\x1b[31mred\x1b[0m text", "red text"},
		{"bold", "\x1b[1mbold\x1b[0m", "bold"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripAnsi(tt.input)
			if got != tt.want {
				t.Errorf("stripAnsi(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"School Closing", 20, "School Closing"},
		{"School Delay - 2 Hours", 10, "School ..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
		{"👤👤👤👤", 3, "👤👤👤"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestWrapLines(t *testing.T) {
	got := wrapLines("Schools will dismiss 3 hours early today", 12)
	for _, line := range got {
		if len(line) > 12 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if strings.Join(got, " ") != "Schools will dismiss 3 hours early today" {
		t.Errorf("wrapped text lost words: %q", got)
	}
}

func TestRenderBorderedPanel_ClampsContent(t *testing.T) {
	content := strings.Repeat("line\n", 20)
	panel := renderBorderedPanel(content, 30, 6)

	lines := strings.Split(panel, "\n")
	if len(lines) != 6 {
		t.Errorf("panel has %d lines, want 6", len(lines))
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "-"},
		{30, "30s"},
		{60, "1m"},
		{90, "90s"},
		{300, "5m"},
	}
	for _, tt := range tests {
		if got := formatInterval(time.Duration(tt.secs) * time.Second); got != tt.want {
			t.Errorf("formatInterval(%ds) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
