package crowd

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration

	fixed time.Duration
	max   time.Duration
	now   func() time.Time
}

// DeltaSeconds is the frame delta in seconds, the unit playback lengths are authored in.
func (t *Time) DeltaSeconds() float32 {
	return float32(t.Dt.Seconds())
}

type TimeModule struct {
	Config TimeConfig
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(newTime(mod.Config, time.Now))
	cmd.UseSystem(System(timeSystem).InStage(Prelude))
}

func newTime(cfg TimeConfig, now func() time.Time) *Time {
	return &Time{
		Time:  now(),
		Dt:    0,
		fixed: cfg.FixedDelta,
		max:   cfg.MaxDelta,
		now:   now,
	}
}

func timeSystem(timeResource *Time) {
	now := timeResource.now()

	switch {
	case timeResource.fixed > 0:
		timeResource.Dt = timeResource.fixed
	default:
		timeResource.Dt = now.Sub(timeResource.Time)
	}
	if timeResource.Dt < 0 {
		// wall clock stepped backwards
		timeResource.Dt = 0
	}
	if timeResource.max > 0 && timeResource.Dt > timeResource.max {
		timeResource.Dt = timeResource.max
	}
	timeResource.Time = now
}
