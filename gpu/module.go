package gpu

import (
	"github.com/gekko3d/crowd"
)

// Module publishes an already created window and backend to the app: the backend
// becomes the DeviceResource, and the frame is bracketed by BeginFrame in PreRender
// and EndFrame in PostRender so every Render-stage draw lands in one pass.
type Module struct {
	Window  *Window
	Backend *Backend
	Camera  OrbitCamera
}

func (mod Module) Install(app *crowd.App, cmd *crowd.Commands) {
	camera := mod.Camera
	cmd.AddResources(
		mod.Window,
		mod.Backend,
		&crowd.DeviceResource{Device: mod.Backend},
		&camera,
	)

	app.UseSystem(crowd.System(windowEventsSystem).InStage(crowd.PreUpdate))
	app.UseSystem(crowd.System(cameraSystem).InStage(crowd.PreRender))
	app.UseSystem(crowd.System(beginFrameSystem).InStage(crowd.PreRender))
	app.UseSystem(crowd.System(endFrameSystem).InStage(crowd.PostRender))
}

func windowEventsSystem(win *Window, cmd *crowd.Commands) {
	if !win.Poll() {
		cmd.Exit()
	}
}

func cameraSystem(t *crowd.Time, camera *OrbitCamera, backend *Backend) error {
	camera.Advance(t.DeltaSeconds())
	return backend.SetCamera(camera.ViewProjection(backend.Aspect()), camera.Eye())
}

func beginFrameSystem(backend *Backend) error {
	return backend.BeginFrame()
}

func endFrameSystem(backend *Backend) error {
	return backend.EndFrame()
}
