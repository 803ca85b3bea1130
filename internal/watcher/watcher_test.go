package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collectLines(t *testing.T, f *Follower, n int) []string {
	t.Helper()
	var lines []string
	timeout := time.After(5 * time.Second)
	for len(lines) < n {
		select {
		case line := <-f.Lines():
			lines = append(lines, line)
		case err := <-f.Errors():
			t.Fatalf("follower error: %v", err)
		case <-timeout:
			t.Fatalf("timed out with %d of %d lines", len(lines), n)
		}
	}
	return lines
}

func TestFollowerReadsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.csv")
	if err := os.WriteFile(path, []byte("1,10\n2,10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	lines := collectLines(t, f, 2)
	if lines[0] != "1,10" || lines[1] != "2,10" {
		t.Errorf("lines = %v, want [1,10 2,10]", lines)
	}
}

func TestFollowerSeesAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.csv")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	file.WriteString("3,10\n")
	file.WriteString("4,10\n")
	file.Close()

	lines := collectLines(t, f, 2)
	if lines[0] != "3,10" || lines[1] != "4,10" {
		t.Errorf("lines = %v, want [3,10 4,10]", lines)
	}
}

func TestFollowerBuffersPartialLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.csv")
	if err := os.WriteFile(path, []byte("5,1"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	// No newline yet, so nothing should arrive.
	select {
	case line := <-f.Lines():
		t.Fatalf("got premature line %q", line)
	case <-time.After(200 * time.Millisecond):
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	file.WriteString("0\n")
	file.Close()

	lines := collectLines(t, f, 1)
	if lines[0] != "5,10" {
		t.Errorf("line = %q, want 5,10", lines[0])
	}
}

func TestFollowerHandlesTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.csv")
	if err := os.WriteFile(path, []byte("1,10\n2,10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	collectLines(t, f, 2)

	// Replace the file with shorter content.
	if err := os.WriteFile(path, []byte("9,10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	lines := collectLines(t, f, 1)
	if lines[0] != "9,10" {
		t.Errorf("line after truncation = %q, want 9,10", lines[0])
	}
}

func TestFollowerMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ranks.csv")

	f, err := New(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	// File appears after the follower starts.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("7,10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	lines := collectLines(t, f, 1)
	if lines[0] != "7,10" {
		t.Errorf("line = %q, want 7,10", lines[0])
	}
}
