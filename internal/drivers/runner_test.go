package drivers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"smtdump/internal/config"
	"smtdump/internal/scene"
	"smtdump/internal/sink"
)

func newRunner(t *testing.T, dir string) (*Runner, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	var roots []*scene.Node
	for _, doc := range []string{blackboardScene, achievementsScene, npcScene, skillsScene, uiScene} {
		roots = append(roots, rootsOf(mustParse(t, doc))...)
	}
	cfg := config.DefaultConfig()
	return &Runner{
		Host:   scene.New(roots...),
		Sink:   &sink.Sink{Logger: logger, Dir: dir, Tag: cfg.ToolTag, ChunkSize: 80},
		Config: cfg,
		Logger: logger,
		Now:    func() time.Time { return testTime },
	}, logs
}

// chunksByReport re-joins the info entries of each report id.
func chunksByReport(logs *observer.ObservedLogs) map[string]string {
	out := make(map[string]string)
	for _, e := range logs.FilterLevelExact(zapcore.InfoLevel).All() {
		id, _ := e.ContextMap()["report"].(string)
		out[id] += e.Message
	}
	return out
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	r, logs := newRunner(t, dir)

	out, err := r.Run("achievements")
	require.NoError(t, err)
	assert.Equal(t, "achievements", out.Name)
	assert.NotEmpty(t, out.ID)
	assert.Contains(t, out.Text, "  1 → employee_B [false] <EMP>\n")
	assert.Equal(t, filepath.Join(dir, "SMTQoL_dump.txt"), out.DumpPath)
	assert.Greater(t, out.Chunks, 1)

	assert.Equal(t, out.Text, chunksByReport(logs)[out.ID])

	data, err := os.ReadFile(out.DumpPath)
	require.NoError(t, err)
	assert.Equal(t, out.Text+"\n", string(data))
}

func TestRunner_UnknownReport(t *testing.T) {
	r, _ := newRunner(t, t.TempDir())
	_, err := r.Run("inventory")
	assert.ErrorContains(t, err, `unknown report "inventory"`)
}

func TestRunner_RunAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	r, logs := newRunner(t, dir)

	outs, err := r.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, outs, len(Names()))

	ids := make(map[string]bool)
	var dump strings.Builder
	joined := chunksByReport(logs)
	for i, out := range outs {
		assert.Equal(t, Names()[i], out.Name)
		assert.False(t, ids[out.ID], "duplicate id %s", out.ID)
		ids[out.ID] = true
		assert.Equal(t, out.Text, joined[out.ID])
		dump.WriteString(out.Text + "\n")

		single, err := r.Run(out.Name)
		require.NoError(t, err)
		assert.Equal(t, single.Text, out.Text)
	}

	// Emission is serial: every report's entries are contiguous.
	var order []string
	for _, e := range logs.FilterLevelExact(zapcore.InfoLevel).All() {
		id := e.ContextMap()["report"].(string)
		if len(order) == 0 || order[len(order)-1] != id {
			order = append(order, id)
		}
	}
	require.Len(t, order, 2*len(outs))
	for i, out := range outs {
		assert.Equal(t, out.ID, order[i])
	}

	data, err := os.ReadFile(filepath.Join(dir, "SMTQoL_dump.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), dump.String()))
}

func TestRunner_RunAllCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, logs := newRunner(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outs, err := r.RunAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, outs)
	assert.Zero(t, logs.FilterLevelExact(zapcore.InfoLevel).Len())
}

func TestRunner_DumpFailureKeepsChunks(t *testing.T) {
	notDir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o644))

	r, logs := newRunner(t, notDir)
	out, err := r.Run("ui")
	require.NoError(t, err)

	assert.Error(t, out.DumpErr)
	assert.Empty(t, out.DumpPath)
	assert.Equal(t, out.Text, chunksByReport(logs)[out.ID])
	assert.Equal(t, 1, logs.FilterMessage("failed to write dump file").Len())
}

func TestRunner_NilSink(t *testing.T) {
	r := &Runner{Host: scene.New()}
	out, err := r.Run("ui")
	require.NoError(t, err)
	assert.Contains(t, out.Text, "Buttons_Bar not found.")
	assert.Empty(t, out.DumpPath)
}

func TestRunner_ConcurrentRunsDoNotInterleave(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, logs := newRunner(t, t.TempDir())
	names := Names()
	outs := make([]Output, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			out, err := r.Run(name)
			outs[i] = out
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]bool)
	var last string
	for _, e := range logs.FilterLevelExact(zapcore.InfoLevel).All() {
		id := e.ContextMap()["report"].(string)
		if id != last {
			assert.False(t, seen[id], "entries of %s are split", id)
			seen[id] = true
			last = id
		}
	}
	assert.Len(t, seen, len(names))
}
