// Package sink ships finished reports: chunked entries on the primary log
// channel, then a best-effort append to the cumulative dump file.
package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultChunkSize is the longest log entry, in characters.
const DefaultChunkSize = 800

// Chunk splits s into consecutive pieces of at most size characters without
// cutting a multi-byte character. Joining the pieces gives back s. A size of
// zero or less yields s as a single piece.
func Chunk(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 {
		return []string{s}
	}
	chunks := make([]string, 0, utf8.RuneCountInString(s)/size+1)
	start, n := 0, 0
	for i := range s {
		if n == size {
			chunks = append(chunks, s[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(chunks, s[start:])
}

// Sink emits reports. The zero value logs nothing and writes no file.
type Sink struct {
	Logger    *zap.Logger
	Dir       string // diagnostics root; empty disables the dump file
	Tag       string // tool tag, names the dump file
	ChunkSize int
}

// Result describes one emission.
type Result struct {
	Chunks   int
	DumpPath string // empty when nothing was written
	DumpErr  error
}

// DumpPath is <Dir>/<Tag>_dump.txt.
func (s *Sink) DumpPath() string {
	if s.Dir == "" {
		return ""
	}
	return filepath.Join(s.Dir, s.Tag+"_dump.txt")
}

func (s *Sink) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Emit logs text as ordered chunks tagged with the report id, then appends
// it to the dump file. Dump failures are logged as warnings and reported in
// the Result; they never affect the chunks already logged.
func (s *Sink) Emit(id, text string) Result {
	log := s.logger()
	size := s.ChunkSize
	if size == 0 {
		size = DefaultChunkSize
	}

	chunks := Chunk(text, size)
	for i, c := range chunks {
		log.Info(c,
			zap.String("report", id),
			zap.Int("chunk", i+1),
			zap.Int("chunks", len(chunks)),
		)
	}

	res := Result{Chunks: len(chunks)}
	path, err := s.appendDump(text)
	switch {
	case err != nil:
		res.DumpErr = err
		log.Warn("failed to write dump file", zap.String("report", id), zap.Error(err))
	case path != "":
		res.DumpPath = path
		log.Debug("dump appended", zap.String("report", id), zap.String("path", path))
	}
	return res
}

// errNoDir means the diagnostics root is unset or absent; nothing is written.
var errNoDir = errors.New("diagnostics directory not available")

func (s *Sink) appendDump(text string) (string, error) {
	path := s.DumpPath()
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(s.Dir); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", errNoDir, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open dump file: %w", err)
	}
	// Exactly one blank line separates consecutive reports.
	sep := "\n\n"
	if strings.HasSuffix(text, "\n") {
		sep = "\n"
	}
	if _, err := f.WriteString(text + sep); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to append dump file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close dump file: %w", err)
	}
	return path, nil
}
