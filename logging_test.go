package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLogger_SetDebug(t *testing.T) {
	log, err := NewDefaultLogger("test", LoggingConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, log.DebugEnabled())

	log.SetDebug(true)
	assert.True(t, log.DebugEnabled())

	log.SetDebug(false)
	assert.False(t, log.DebugEnabled())
	assert.False(t, log.level.Enabled(zapcore.InfoLevel), "info stays off at warn")
}

func TestDefaultLogger_BadLevelFallsBackToInfo(t *testing.T) {
	log, err := NewDefaultLogger("", LoggingConfig{Level: "loud", Format: "json"})
	require.NoError(t, err)
	assert.False(t, log.DebugEnabled())
	log.Infof("hello %s", "world")
}

func TestApp_LoggerFallsBackToNop(t *testing.T) {
	var nilApp *App
	assert.NotNil(t, nilApp.Logger())

	app := NewApp()
	assert.NotNil(t, app.Logger())

	app.UseModules(LoggingModule{Prefix: "crowd", Config: LoggingConfig{Level: "debug"}})
	_, isDefault := app.Logger().(*DefaultLogger)
	assert.True(t, isDefault)
	assert.True(t, app.Logger().DebugEnabled())
}
