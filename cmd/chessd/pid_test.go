package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessd.pid")

	pf, err := acquirePIDFile(path, true)
	if err != nil {
		t.Fatalf("acquirePIDFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("PID file contains %q, want %d", got, os.Getpid())
	}

	// our own process is alive, so a second locked acquire must fail
	if _, err := acquirePIDFile(path, true); err == nil {
		t.Error("second acquirePIDFile() succeeded")
	}

	pf.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("PID file still present after Release: %v", err)
	}
}

func TestPIDFileStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessd.pid")
	// PIDs are far below this on Linux
	if err := os.WriteFile(path, []byte("999999999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pf, err := acquirePIDFile(path, true)
	if err != nil {
		t.Fatalf("acquirePIDFile() over stale file error = %v", err)
	}
	pf.Release()
}

func TestPIDFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessd.pid")
	if err := os.WriteFile(path, []byte("not a pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := acquirePIDFile(path, true); err == nil {
		t.Error("acquirePIDFile() accepted a corrupt PID file")
	}
}
