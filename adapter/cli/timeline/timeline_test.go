package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	internalApp "github.com/felixgeelhaar/eventline/internal/app"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/eventline/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weddingFixture = "../../../internal/planning/infrastructure/persistence/testdata/wedding.yaml"

// setupLocalModeTestApp installs a CLI app backed by a fresh SQLite file.
func setupLocalModeTestApp(t *testing.T) {
	t.Helper()
	cfg := &config.Config{
		AppEnv:     "test",
		LogLevel:   "error",
		SQLitePath: filepath.Join(t.TempDir(), "eventline.db"),
	}
	cfg.Normalize()

	container, err := internalApp.NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cli.SetApp(cli.NewApp(container))
	t.Cleanup(func() { cli.SetApp(nil) })
}

func resetFlags() {
	today = ""
	distribution = "frontload"
	respectLocks = true
	outputJSON = false
	fixturePath = ""
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(io.Discard)
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func importWedding(t *testing.T) uuid.UUID {
	t.Helper()
	out, err := run(t, "import", weddingFixture, "--json")
	require.NoError(t, err)

	var imported struct {
		TimelineID uuid.UUID `json:"timeline_id"`
		Blocks     int       `json:"blocks"`
		Tasks      int       `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, 4, imported.Blocks)
	assert.Equal(t, 6, imported.Tasks)
	return imported.TimelineID
}

func TestRecalc(t *testing.T) {
	setupLocalModeTestApp(t)
	id := importWedding(t)

	out, err := run(t, "recalc", id.String(), "--today", "2026-01-02", "--distribution", "even", "--json")
	require.NoError(t, err)

	var res domain.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Persisted)
	assert.Equal(t, domain.DistributionEven, res.Distribution)
	assert.Len(t, res.Blocks, 3)
	assert.Equal(t, 1, domain.CountDiagnostics(res.Diagnostics, domain.DiagnosticBlockSkipped))

	out, err = run(t, "show", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Distribution: even")
	assert.Contains(t, out, "as of 2026-01-02")
}

func TestRecalc_TextOutput(t *testing.T) {
	setupLocalModeTestApp(t)
	id := importWedding(t)

	out, err := run(t, "recalc", id.String(), "--today", "2026-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "(saved)")
	assert.Contains(t, out, "frontload, locks respected")
	assert.Contains(t, out, "[block_skipped]")
}

func TestRecalc_Errors(t *testing.T) {
	setupLocalModeTestApp(t)

	_, err := run(t, "recalc", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid timeline id")

	_, err = run(t, "recalc", uuid.NewString(), "--today", "02/01/2026")
	assert.ErrorContains(t, err, "--today")

	_, err = run(t, "recalc", uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))

	_, err = run(t, "recalc", uuid.NewString(), "--distribution", "backload")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindInvalid, domain.KindOf(err))

	_, err = run(t, "show", uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNoRecalculation)
}

func TestPreview_Fixture(t *testing.T) {
	cli.SetApp(nil)

	out, err := run(t, "preview", "--fixture", weddingFixture, "--today", "2026-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "preview, not saved")
	assert.Contains(t, out, "Blocks (3):")
	assert.Contains(t, out, "Tasks (5):")
}

func TestPreview_RequiresTimeline(t *testing.T) {
	_, err := run(t, "preview")
	assert.Error(t, err)
}

func TestPreview_DoesNotSave(t *testing.T) {
	setupLocalModeTestApp(t)
	id := importWedding(t)

	out, err := run(t, "preview", id.String(), "--today", "2026-01-02", "--json")
	require.NoError(t, err)
	var res domain.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Persisted)

	_, err = run(t, "show", id.String())
	assert.ErrorIs(t, err, domain.ErrNoRecalculation)
}

func TestSweep(t *testing.T) {
	setupLocalModeTestApp(t)
	importWedding(t)

	out, err := run(t, "sweep", "--today", "2026-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "Recalculated 1 timelines")

	out, err = run(t, "sweep", "--today", "2026-08-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Recalculated 0 timelines")
}
