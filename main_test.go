package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// syncCounter records how often the logger was flushed.
type syncCounter struct {
	zapcore.Core
	syncs int
}

func (c *syncCounter) Sync() error {
	c.syncs++
	return c.Core.Sync()
}

func TestFinish_SyncsLoggerOnError(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	core := &syncCounter{Core: obs}

	code := finish(zap.New(core), errors.New("listen tcp: address in use"))

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, core.syncs)
	entries := logs.FilterMessage("smtdump failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "listen tcp: address in use", entries[0].ContextMap()["error"])
}

func TestFinish_SyncsLoggerOnSuccess(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	core := &syncCounter{Core: obs}

	assert.Equal(t, 0, finish(zap.New(core), nil))
	assert.Equal(t, 1, core.syncs)
	assert.Zero(t, logs.Len())
}
