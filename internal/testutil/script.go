package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FakeAgent writes an executable shell script named name into a temporary
// directory and returns its path. The script body runs under /bin/sh; it can
// read the prompt from stdin and the arguments from "$@". Tests are skipped on
// platforms without a POSIX shell.
func FakeAgent(t testing.TB, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake agent scripts require /bin/sh")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil { //nolint:gosec // test executable
		t.Fatalf("write fake agent: %v", err)
	}
	return path
}

// RecordArgs returns a script fragment that writes each argument on its own
// line to file.
func RecordArgs(file string) string {
	return `for a in "$@"; do printf '%s\n' "$a" >> '` + file + `'; done`
}

// ReadLines reads file and splits it into lines, dropping the trailing newline.
func ReadLines(t testing.TB, file string) []string {
	t.Helper()
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read %s: %v", file, err)
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}
