package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// keepLogs is how many dated log files survive a prune.
const keepLogs = 7

// Setup creates a slog.Logger that writes to a dated log file in the user
// state directory at the given level, pruning logs from older days. The
// caller is responsible for closing the file.
func Setup(level slog.Level) (*slog.Logger, *os.File, error) {
	stateDir, err := StateDir()
	if err != nil {
		return nil, nil, fmt.Errorf("state dir: %w", err)
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	path := filepath.Join(stateDir, fmt.Sprintf("cratedig-%s.log", time.Now().Format("20060102")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	pruneLogs(stateDir)
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(handler), f, nil
}

// pruneLogs removes all but the newest keepLogs dated log files. The date in
// the filename sorts lexically, so plain string order is chronological.
func pruneLogs(dir string) {
	matches, err := filepath.Glob(filepath.Join(dir, "cratedig-*.log"))
	if err != nil || len(matches) <= keepLogs {
		return
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-keepLogs] {
		os.Remove(old)
	}
}

// StateDir returns the path to the cratedig state directory (~/.config/cratedig/state)
func StateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cratedig", "state"), nil
}
