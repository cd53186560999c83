package crowd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestTimeSystem_MeasuresWallClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	tm := newTime(TimeConfig{}, clock.Now)

	clock.now = clock.now.Add(16 * time.Millisecond)
	timeSystem(tm)
	assert.Equal(t, 16*time.Millisecond, tm.Dt)
	assert.InDelta(t, 0.016, tm.DeltaSeconds(), 1e-6)
}

func TestTimeSystem_FixedDelta(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	tm := newTime(TimeConfig{FixedDelta: 10 * time.Millisecond}, clock.Now)

	clock.now = clock.now.Add(time.Second)
	timeSystem(tm)
	assert.Equal(t, 10*time.Millisecond, tm.Dt)
}

func TestTimeSystem_ClampsDelta(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	tm := newTime(TimeConfig{MaxDelta: 100 * time.Millisecond}, clock.Now)

	clock.now = clock.now.Add(3 * time.Second)
	timeSystem(tm)
	assert.Equal(t, 100*time.Millisecond, tm.Dt)

	// a clock stepping backwards yields a zero delta, never a negative one
	clock.now = clock.now.Add(-time.Second)
	timeSystem(tm)
	assert.Equal(t, time.Duration(0), tm.Dt)
}

func TestTimeModule_RunsInPrelude(t *testing.T) {
	app := NewApp()
	app.UseModules(TimeModule{Config: TimeConfig{FixedDelta: 5 * time.Millisecond}})

	var seen time.Duration
	app.UseSystem(System(func(tm *Time) { seen = tm.Dt }))
	assert.NoError(t, app.Step())
	assert.Equal(t, 5*time.Millisecond, seen)
}
