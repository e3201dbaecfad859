package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapOpener replaces the opener for driver until the test ends. A nil open
// unregisters it.
func swapOpener(t *testing.T, driver Driver, open Opener) {
	t.Helper()
	openersMu.Lock()
	saved, had := openers[driver]
	if open == nil {
		delete(openers, driver)
	} else {
		openers[driver] = open
	}
	openersMu.Unlock()

	t.Cleanup(func() {
		openersMu.Lock()
		defer openersMu.Unlock()
		if had {
			openers[driver] = saved
		} else {
			delete(openers, driver)
		}
	})
}

func TestNewConnection_DetectsDriver(t *testing.T) {
	var got Config
	swapOpener(t, DriverSQLite, func(_ context.Context, cfg Config) (Connection, error) {
		got = cfg
		return nil, nil
	})

	_, err := NewConnection(context.Background(), Config{URL: "plan.db"})
	require.NoError(t, err)
	assert.Equal(t, "plan.db", got.URL)
}

func TestNewConnection_Errors(t *testing.T) {
	swapOpener(t, DriverPostgres, nil)

	_, err := NewConnection(context.Background(), Config{URL: "postgres://localhost/eventline"})
	assert.ErrorContains(t, err, "postgres driver not registered")

	_, err = NewConnection(context.Background(), Config{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestEnsureDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "eventline.db")
	require.NoError(t, EnsureDirectory(path))
	assert.DirExists(t, filepath.Dir(path))
}

func TestDefaultSQLitePath(t *testing.T) {
	assert.Equal(t, "eventline.db", filepath.Base(DefaultSQLitePath()))
}
