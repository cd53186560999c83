package main

import (
	"fmt"
	"time"

	"github.com/gekko3d/crowd"
	"github.com/gekko3d/crowd/gpu"
)

// reportModule logs frame statistics and shows the frame rate in the window title.
type reportModule struct {
	Interval time.Duration
}

type frameReport struct {
	interval time.Duration
	elapsed  time.Duration
	frames   int
	reallocs int
}

func (mod reportModule) Install(app *crowd.App, cmd *crowd.Commands) {
	cmd.AddResources(&frameReport{interval: mod.Interval})
	app.UseSystem(crowd.System(reportSystem).InStage(crowd.Finale))
}

func reportSystem(t *crowd.Time, stats *crowd.FrameStats, report *frameReport, win *gpu.Window, cmd *crowd.Commands) {
	report.elapsed += t.Dt
	report.frames++
	report.reallocs += stats.Reallocations
	if report.elapsed < report.interval {
		return
	}

	fps := float64(report.frames) / report.elapsed.Seconds()
	cmd.Logger().Infof("%.1f fps, %d instances, buckets %v, %d draws, %d reallocations",
		fps, stats.Instances, stats.BucketSizes, stats.Draws, report.reallocs)
	win.SetTitle(fmt.Sprintf("%s (%.0f fps)", win.Title(), fps))

	report.elapsed = 0
	report.frames = 0
	report.reallocs = 0
}
