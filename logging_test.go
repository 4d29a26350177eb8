package reactor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	debugs, infos, warns []string
	errs                 []error
}

func (r *recordingLogger) Debugf(format string, args ...any) { r.debugs = append(r.debugs, format) }
func (r *recordingLogger) Infof(format string, args ...any)  { r.infos = append(r.infos, format) }
func (r *recordingLogger) Warnf(format string, args ...any)  { r.warns = append(r.warns, format) }
func (r *recordingLogger) Errorf(err error, format string, args ...any) {
	r.errs = append(r.errs, err)
}

func TestSetLogger_OverridesGlobalDefault(t *testing.T) {
	defer SetLogger(nil)

	rec := &recordingLogger{}
	SetLogger(rec)

	getLogger().Errorf(errors.New("boom"), "something failed")
	assert.Len(t, rec.errs, 1)
}

func TestGetLogger_DefaultsToNoop(t *testing.T) {
	SetLogger(nil)
	l := getLogger()
	assert.NotPanics(t, func() {
		l.Debugf("x")
		l.Infof("x")
		l.Warnf("x")
		l.Errorf(errors.New("x"), "x")
	})
}

func TestNewDefaultLogger_DoesNotPanicOnUse(t *testing.T) {
	l := NewDefaultLogger()
	assert.NotPanics(t, func() {
		l.Infof("reactor starting: %d transports", 3)
		l.Errorf(errors.New("boom"), "hook failed")
	})
}
