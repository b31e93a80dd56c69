package testutil

import (
	"path/filepath"
	"testing"

	"github.com/nbwatchdog/nbwatchdog/internal/store"
)

// NewStore opens a store in a temporary directory, that closed when the test finished.
func NewStore(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "watchdog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %s", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}
