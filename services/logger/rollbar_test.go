package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/elimu/core"
)

func newObservedLogger() (*RollbarLogger, *observer.ObservedLogs) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	l := NewRollbarLogger(zap.New(obsCore).Sugar(), &core.Config{Env: "TEST"})
	return l, logs
}

func Test_parseArgs(t *testing.T) {
	boom := errors.New("boom")
	ident := core.Identity{ID: "creator-1", Roles: []string{core.RoleCreator}}

	tests := []struct {
		name       string
		args       []interface{}
		wantKVs    []interface{}
		wantErr    error
		wantIdent  bool
		wantExtras map[string]interface{}
	}{
		{
			name:       "pairs",
			args:       []interface{}{"courseId", "c1", "step", 2},
			wantKVs:    []interface{}{"courseId", "c1", "step", 2},
			wantExtras: map[string]interface{}{"courseId": "c1", "step": 2},
		},
		{
			name:       "lone error and identity",
			args:       []interface{}{boom, ident, "quizId", "q1"},
			wantKVs:    []interface{}{"error", boom, "identity", "creator-1", "quizId", "q1"},
			wantErr:    boom,
			wantIdent:  true,
			wantExtras: map[string]interface{}{"quizId": "q1"},
		},
		{
			name:       "unpaired trailing value",
			args:       []interface{}{"courseId"},
			wantKVs:    []interface{}{"arg0", "courseId"},
			wantExtras: map[string]interface{}{"arg0": "courseId"},
		},
		{
			name:       "non string key",
			args:       []interface{}{42, "x"},
			wantKVs:    []interface{}{"arg0", 42, "arg1", "x"},
			wantExtras: map[string]interface{}{"arg0": 42, "arg1": "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseArgs(tt.args)
			assert.Equal(t, tt.wantKVs, e.kvs)
			assert.Equal(t, tt.wantErr, e.err)
			assert.Equal(t, tt.wantIdent, e.ident != nil)
			assert.Equal(t, tt.wantExtras, e.extras)
		})
	}
}

func TestRollbarLogger_levels(t *testing.T) {
	l, logs := newObservedLogger()
	require.False(t, l.enabled, "rollbar must stay disabled without a token")

	l.Debug("debugging", "k", "v")
	l.Info("cascade step done", "courseId", "c1")
	l.Warn("compensation failed", errors.New("undo"))
	l.Error("request failed", "status", 500)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "c1", entries[1].ContextMap()["courseId"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "undo", entries[2].ContextMap()["error"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.EqualValues(t, 500, entries[3].ContextMap()["status"])
}

func TestRollbarLogger_Named(t *testing.T) {
	l, logs := newObservedLogger()
	l.Named("reconcile").Info("run finished")

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "reconcile", entries[0].LoggerName)
}
