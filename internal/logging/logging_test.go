package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestPruneLogsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for day := 1; day <= 10; day++ {
		name := fmt.Sprintf("cratedig-202608%02d.log", day)
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "library.db"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	pruneLogs(dir)

	left, err := filepath.Glob(filepath.Join(dir, "cratedig-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != keepLogs {
		t.Fatalf("kept %d logs, want %d", len(left), keepLogs)
	}
	if _, err := os.Stat(filepath.Join(dir, "cratedig-20260801.log")); !os.IsNotExist(err) {
		t.Error("oldest log should be pruned")
	}
	if _, err := os.Stat(filepath.Join(dir, "cratedig-20260810.log")); err != nil {
		t.Error("newest log should survive")
	}
	if _, err := os.Stat(filepath.Join(dir, "library.db")); err != nil {
		t.Error("non-log files must not be touched")
	}
}

func TestPruneLogsUnderLimit(t *testing.T) {
	dir := t.TempDir()
	for day := 1; day <= 3; day++ {
		name := fmt.Sprintf("cratedig-202608%02d.log", day)
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	pruneLogs(dir)

	left, err := filepath.Glob(filepath.Join(dir, "cratedig-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 3 {
		t.Fatalf("kept %d logs, want 3", len(left))
	}
}
