package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerWithWriter(&buf, "workflow").With("run_id", "r1")
	l.Infof("stage %s done", "analyze")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "workflow", entry["component"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "stage analyze done", entry["message"])
}

func TestNopLoggerWith(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() { l.With("k", "v").Infof("x") })
}
