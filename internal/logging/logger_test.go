package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func resetLogrus(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})
}

func TestGetLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		" warn ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"":        logrus.InfoLevel,
		"loud":    logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, GetLevel(in), "level %q", in)
	}
}

func TestSetupStderr(t *testing.T) {
	resetLogrus(t)

	closer := Setup(SetupParams{LogLevel: "debug"})
	require.NoError(t, closer.Close())
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.Equal(t, os.Stderr, logrus.StandardLogger().Out)
}

func TestSetupFileJSON(t *testing.T) {
	resetLogrus(t)
	base := filepath.Join(t.TempDir(), "gymlog")

	closer := Setup(SetupParams{LogFileName: base, LogLevel: "info", LogFormatJSON: true})
	logrus.WithField("session_id", 7).Info("finished")
	logrus.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(base + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":7`)
	assert.Contains(t, string(data), `"msg":"finished"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestSetupFileTeeToStderr(t *testing.T) {
	resetLogrus(t)
	base := filepath.Join(t.TempDir(), "gymlog.log")

	closer := Setup(SetupParams{LogFileName: base, LogToStderr: true})
	cw, ok := logrus.StandardLogger().Out.(*CombinedWriter)
	require.True(t, ok, "output should fan out to stderr as well")
	require.Len(t, cw.Writers, 2)
	assert.Equal(t, os.Stderr, cw.Writers[0])

	logrus.Info("teed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Contains(t, string(data), "teed")
}

func TestSetupFileOnly(t *testing.T) {
	resetLogrus(t)
	base := filepath.Join(t.TempDir(), "gymlog")

	closer := Setup(SetupParams{LogFileName: base})
	defer closer.Close()

	_, isFile := logrus.StandardLogger().Out.(*lumberjack.Logger)
	assert.True(t, isFile)
}
