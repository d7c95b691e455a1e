package logsvc

import (
	"fmt"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/elimu/core"
)

// RollbarLogger writes structured logs through zap and reports warnings and above to Rollbar.
type RollbarLogger struct {
	sugar   *zap.SugaredLogger
	enabled bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewZap builds the base zap logger: JSON output in PROD, console output otherwise.
func NewZap(env string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToUpper(env) {
	case "PROD", "QA":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return zl.Sugar(), nil
}

func NewRollbarLogger(sugar *zap.SugaredLogger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	l := &RollbarLogger{sugar: sugar}
	l.Enable(conf.RollbarToken != "" && !conf.Debug)
	return l
}

// Enable toggles Rollbar reporting; local logs are always written.
func (l *RollbarLogger) Enable(enabled bool) {
	l.enabled = enabled
	rollbar.SetEnabled(enabled)
}

// Named returns a logger whose entries carry name, sharing the Rollbar settings.
func (l *RollbarLogger) Named(name string) *RollbarLogger {
	return &RollbarLogger{sugar: l.sugar.Named(name), enabled: l.enabled}
}

func (l *RollbarLogger) Sync() {
	_ = l.sugar.Sync()
}

type entry struct {
	kvs    []interface{}
	err    error
	extras map[string]interface{}
	ident  *core.Identity
}

// parseArgs splits args into zap key/value pairs and the Rollbar payload.
// expected fmt: key, value, ... ; an error, a map[string]interface{} or a core.Identity may stand alone
func parseArgs(args []interface{}) entry {
	e := entry{extras: make(map[string]interface{})}
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case error:
			if e.err == nil {
				e.err = a
			}
			e.kvs = append(e.kvs, "error", a)
			continue
		case map[string]interface{}:
			for k, v := range a {
				e.extras[k] = v
				e.kvs = append(e.kvs, k, v)
			}
			continue
		case core.Identity:
			if e.ident == nil {
				e.ident = &a
			}
			e.kvs = append(e.kvs, "identity", a.ID)
			continue
		}

		key, ok := args[i].(string)
		if !ok || i == len(args)-1 {
			// unpaired value
			key = fmt.Sprintf("arg%d", i)
			e.kvs = append(e.kvs, key, args[i])
			e.extras[key] = args[i]
			continue
		}
		e.kvs = append(e.kvs, key, args[i+1])
		e.extras[key] = args[i+1]
		i++
	}
	return e
}

func (l *RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) []interface{} {
	e := parseArgs(args)
	if !l.enabled {
		return e.kvs
	}
	if e.ident != nil {
		rollbar.SetPerson(e.ident.ID, e.ident.ID, "")
	} else {
		rollbar.ClearPerson()
	}
	payload := []interface{}{msg, e.extras}
	if e.err != nil {
		payload = append(payload, e.err)
	}
	send(payload...)
	return e.kvs
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, parseArgs(args).kvs...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, parseArgs(args).kvs...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, l.report(rollbar.Warning, msg, args)...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, l.report(rollbar.Error, msg, args)...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	kvs := l.report(rollbar.Critical, msg, args)
	rollbar.Wait()
	l.sugar.Fatalw(msg, kvs...)
}
