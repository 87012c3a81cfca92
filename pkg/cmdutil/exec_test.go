package cmdutil

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	result, err := Run(context.Background(), Options{}, []string{"echo", "hello"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.OK() {
		t.Errorf("Expected exit code 0, got %d", result.ExitCode)
	}
	if strings.TrimSpace(string(result.Output)) != "hello" {
		t.Errorf("Unexpected output: %q", result.Output)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	result, err := Run(context.Background(), Options{}, []string{"false"})
	if err == nil {
		t.Fatal("Expected error for non-zero exit")
	}
	if result == nil || result.OK() {
		t.Error("Result must carry the failing exit code")
	}
}

func TestRun_CommandNotFound(t *testing.T) {
	result, err := Run(context.Background(), Options{}, []string{"definitely-not-a-command-xyz"})
	if err == nil {
		t.Fatal("Expected error for missing command")
	}
	if result.ExitCode != -1 {
		t.Errorf("Expected exit code -1 for a command that never ran, got %d", result.ExitCode)
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	if _, err := Run(context.Background(), Options{}, nil); err == nil {
		t.Fatal("Expected error for empty command")
	}
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), Options{Dir: dir}, []string{"pwd"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(string(result.Output)) != dir {
		t.Errorf("Expected working directory %s, got %q", dir, result.Output)
	}
}

func TestRun_Timeout(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), Options{Timeout: 50 * time.Millisecond}, []string{"sleep", "5"})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Command was not killed at the timeout")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"systemctl restart api", []string{"systemctl", "restart", "api"}},
		{`systemctl restart "faf api"`, []string{"systemctl", "restart", "faf api"}},
		{`echo 'single quoted arg'`, []string{"echo", "single quoted arg"}},
	}

	for _, tt := range tests {
		got, err := Split(tt.input)
		if err != nil {
			t.Errorf("Split(%q) failed: %v", tt.input, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("Split(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Split(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSplit_Errors(t *testing.T) {
	if _, err := Split(""); err == nil {
		t.Error("Expected error for empty command string")
	}
	if _, err := Split(`echo "unterminated`); err == nil {
		t.Error("Expected error for unterminated quote")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		argv []string
		want string
	}{
		{[]string{"git", "fetch", "origin"}, "git fetch origin"},
		{[]string{"echo", "two words"}, "echo 'two words'"},
		{nil, "<empty command>"},
	}

	for _, tt := range tests {
		if got := Format(tt.argv); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.argv, got, tt.want)
		}
	}
}
