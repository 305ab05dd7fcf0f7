package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger usable from background goroutines that may
// outlive the test body.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}
