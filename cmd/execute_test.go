package cmd

import (
	"os"
	"testing"
)

func TestExecuteUnknownCommand(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"blog-backend", "frobnicate"}
	if err := Execute(); err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestExecuteVersion(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"blog-backend", "version"}
	if err := Execute(); err != nil {
		t.Errorf("version command failed: %v", err)
	}
}

func TestInitLoggerDebugLevel(t *testing.T) {
	t.Setenv("DEBUG", "1")
	logger := initLogger()
	if logger == nil {
		t.Fatal("initLogger returned nil")
	}
	if !logger.Enabled(t.Context(), -4) {
		t.Error("DEBUG env should enable debug-level logging")
	}
}
