package cli

import (
	"bytes"
	"strings"
	"testing"
)

func runGridLayout(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewGridLayoutCommand(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestGridLayout_Counts(t *testing.T) {
	out, err := runGridLayout(t, "0", "3", "10", "100")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	want := "0: 1x1\n3: 2x2\n10: 4x3\n100: 10x9\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestGridLayout_MaxFlag(t *testing.T) {
	out, err := runGridLayout(t, "--max", "9", "9")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if out != "9: 3x3\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestGridLayout_TableFlagsUnderfilled(t *testing.T) {
	out, err := runGridLayout(t, "--from", "82", "--to", "84")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %q", out)
	}
	if strings.Contains(lines[1], "under-filled") {
		t.Errorf("82 flagged as under-filled: %q", lines[1])
	}
	for _, line := range lines[2:] {
		if !strings.Contains(line, "under-filled") {
			t.Errorf("row not flagged: %q", line)
		}
	}
}

func TestGridLayout_Errors(t *testing.T) {
	tests := [][]string{
		{},
		{"abc"},
		{"-1"},
		{"--max", "0", "5"},
		{"--from", "10", "--to", "5"},
		{"--to", "5", "3"},
	}
	for _, args := range tests {
		if _, err := runGridLayout(t, args...); err == nil {
			t.Errorf("args %q: expected error", args)
		}
	}
}
