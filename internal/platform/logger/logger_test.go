package logger

import (
	"errors"
	"io"
	"testing"

	lc "github.com/redhatinsights/platform-go-middlewares/logging/cloudwatch"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	return &logrus.Logger{
		Out:       io.Discard,
		Level:     logrus.FatalLevel,
		Formatter: &logrus.TextFormatter{},
		Hooks:     make(logrus.LevelHooks),
	}
}

func TestAttachCloudwatchHookSkipsHookOnCreationFailure(t *testing.T) {

	cloudwatchHook = nil
	log := newTestLogger()

	attachCloudwatchHook(log, nil, errors.New("invalid credentials"))

	if cloudwatchHook != nil {
		t.Error("expected no cloudwatch hook to be retained after a creation failure")
	}

	for level, hooks := range log.Hooks {
		if len(hooks) != 0 {
			t.Errorf("expected no hooks registered at level %s, got %d", level, len(hooks))
		}
	}
}

func TestAttachCloudwatchHookRegistersHookOnSuccess(t *testing.T) {

	cloudwatchHook = nil
	log := newTestLogger()
	hook := &lc.Hook{}

	attachCloudwatchHook(log, hook, nil)

	if cloudwatchHook != hook {
		t.Error("expected the cloudwatch hook to be retained for flushing")
	}
}
