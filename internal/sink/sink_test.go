package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestChunk_Concatenation(t *testing.T) {
	texts := []string{
		"",
		"a",
		strings.Repeat("x", 800),
		strings.Repeat("x", 801),
		strings.Repeat("line\n", 500),
		strings.Repeat("0 → employee_B [true] ", 90),
		"日本語のテキスト" + strings.Repeat("é", 1000),
	}
	for _, text := range texts {
		for _, size := range []int{1, 3, 7, 800, 5000} {
			chunks := Chunk(text, size)
			assert.Equal(t, text, strings.Join(chunks, ""), "size %d", size)
			for _, c := range chunks {
				assert.True(t, utf8.ValidString(c))
				assert.LessOrEqual(t, utf8.RuneCountInString(c), size)
				assert.NotEmpty(t, c)
			}
		}
	}
}

func TestChunk_Sizes(t *testing.T) {
	chunks := Chunk(strings.Repeat("ab", 801), 800)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 2)

	assert.Equal(t, []string{"whole"}, Chunk("whole", 0))
	assert.Nil(t, Chunk("", 800))
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestEmit_ChunksAndDump(t *testing.T) {
	logger, logs := observed()
	dir := t.TempDir()
	s := &Sink{Logger: logger, Dir: dir, Tag: "SMTQoL", ChunkSize: 10}

	text := "[SMTQoL] ===== Dump =====\nTime: now\n"
	res := s.Emit("r-1", text)
	require.NoError(t, res.DumpErr)
	assert.Equal(t, filepath.Join(dir, "SMTQoL_dump.txt"), res.DumpPath)
	assert.Equal(t, len(Chunk(text, 10)), res.Chunks)

	var joined strings.Builder
	for _, e := range logs.FilterMessageSnippet("").FilterField(zap.String("report", "r-1")).All() {
		if e.Level != zapcore.InfoLevel {
			continue
		}
		joined.WriteString(e.Message)
		assert.EqualValues(t, res.Chunks, e.ContextMap()["chunks"])
	}
	assert.Equal(t, text, joined.String())

	s.Emit("r-2", "second\n")
	data, err := os.ReadFile(res.DumpPath)
	require.NoError(t, err)
	assert.Equal(t, text+"\n"+"second\n\n", string(data))
}

func TestEmit_MissingDirSkipsDump(t *testing.T) {
	logger, logs := observed()
	s := &Sink{Logger: logger, Dir: filepath.Join(t.TempDir(), "absent"), Tag: "SMTQoL"}

	res := s.Emit("r", "hello")
	assert.NoError(t, res.DumpErr)
	assert.Empty(t, res.DumpPath)
	assert.Equal(t, 1, res.Chunks)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestEmit_DumpFailureKeepsChunks(t *testing.T) {
	logger, logs := observed()

	// A regular file where the diagnostics directory should be.
	notDir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o644))

	text := strings.Repeat("z", 2500)
	s := &Sink{Logger: logger, Dir: notDir, Tag: "SMTQoL", ChunkSize: 800}
	res := s.Emit("r", text)

	require.Error(t, res.DumpErr)
	assert.Empty(t, res.DumpPath)
	assert.Equal(t, 4, res.Chunks)

	infos := logs.FilterLevelExact(zapcore.InfoLevel).All()
	require.Len(t, infos, 4)
	var joined strings.Builder
	for _, e := range infos {
		joined.WriteString(e.Message)
	}
	assert.Equal(t, text, joined.String())

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "failed to write dump file", warns[0].Message)
}

func TestEmit_ZeroValue(t *testing.T) {
	var s Sink
	res := s.Emit("r", "text")
	assert.Equal(t, 1, res.Chunks)
	assert.Empty(t, s.DumpPath())
}
