package store

import (
	"path/filepath"
	"testing"
)

// createTestSession creates a SQLite session in a temp directory.
func createTestSession(t *testing.T) *Session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSession(Config{Dialect: "sqlite", Path: path}, nil)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	t.Cleanup(func() { s.Disconnect() })
	return s
}
