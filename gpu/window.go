package gpu

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/crowd"
)

// Window is the GLFW window the surface presents to. GLFW must be driven from the
// thread that created it, so NewWindow locks the calling goroutine to its OS thread.
type Window struct {
	glfw   *glfw.Window
	title  string
	width  int
	height int
}

func NewWindow(cfg crowd.WindowConfig) (*Window, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // surface comes from wgpu, not OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	return &Window{
		glfw:   win,
		title:  cfg.Title,
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}

// Poll processes pending window events and reports whether the window should stay
// open. Escape closes it.
func (w *Window) Poll() bool {
	glfw.PollEvents()
	if w.glfw.GetKey(glfw.KeyEscape) == glfw.Press {
		w.glfw.SetShouldClose(true)
	}
	return !w.glfw.ShouldClose()
}

// FramebufferSize is the drawable size in pixels.
func (w *Window) FramebufferSize() (int, int) {
	return w.glfw.GetFramebufferSize()
}

func (w *Window) SetTitle(title string) {
	w.glfw.SetTitle(title)
}

func (w *Window) Title() string {
	return w.title
}

func (w *Window) Destroy() {
	w.glfw.Destroy()
	glfw.Terminate()
}
