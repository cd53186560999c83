package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/crowd"
)

var (
	ErrNoFrame       = errors.New("no frame in progress")
	ErrForeignBuffer = errors.New("buffer was not created by this backend")
)

// cameraUniformSize is view_proj (64) + eye (16).
const cameraUniformSize = 80

// Backend owns the wgpu device and the swapchain and implements crowd.Device. All
// calls happen on the frame goroutine; only the crowd worker pool runs elsewhere and
// it never touches the device.
type Backend struct {
	window *Window
	log    crowd.Logger

	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig wgpu.SurfaceConfiguration

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	cameraBuffer *wgpu.Buffer
	// cameraLayout is shared by every material pipeline for group 0.
	cameraLayout    *wgpu.BindGroupLayout
	cameraBindGroup *wgpu.BindGroup

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	live int // buffers created and not yet released
}

// buffer is the crowd.DeviceBuffer handed out by Backend.CreateBuffer.
type buffer struct {
	buf   *wgpu.Buffer
	size  uint64
	label string
}

func (b *buffer) Size() uint64 {
	return b.size
}

func NewBackend(window *Window, vsync bool, log crowd.Logger) (*Backend, error) {
	if log == nil {
		log = crowd.NewNopLogger()
	}

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window.glfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Crowd Device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	presentMode := wgpu.PresentModeImmediate
	if vsync {
		presentMode = wgpu.PresentModeFifo
	}
	width, height := window.FramebufferSize()

	b := &Backend{
		window:  window,
		log:     log,
		surface: surface,
		adapter: adapter,
		device:  device,
		queue:   device.GetQueue(),
		surfaceConfig: wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      caps.Formats[0],
			Width:       uint32(width),
			Height:      uint32(height),
			PresentMode: presentMode,
			AlphaMode:   caps.AlphaModes[0],
		},
	}
	if err := b.configure(width, height); err != nil {
		return nil, err
	}
	if err := b.initCamera(); err != nil {
		return nil, err
	}

	log.Infof("wgpu backend ready: %dx%d, format %v, present mode %v", width, height, b.surfaceConfig.Format, presentMode)
	return b, nil
}

// configure (re)configures the swapchain and the depth attachment for the given
// framebuffer size.
func (b *Backend) configure(width, height int) error {
	b.surfaceConfig.Width = uint32(width)
	b.surfaceConfig.Height = uint32(height)
	b.surface.Configure(b.adapter, b.device, &b.surfaceConfig)

	if b.depthView != nil {
		b.depthView.Release()
		b.depthTexture.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return fmt.Errorf("create depth view: %w", err)
	}
	b.depthTexture = depthTexture
	b.depthView = depthView
	return nil
}

func (b *Backend) initCamera() error {
	var err error
	b.cameraBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform",
		Size:  cameraUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create camera buffer: %w", err)
	}

	b.cameraLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cameraUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create camera layout: %w", err)
	}

	b.cameraBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Camera Bind Group",
		Layout: b.cameraLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.cameraBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create camera bind group: %w", err)
	}
	return nil
}

// Aspect is the current framebuffer aspect ratio.
func (b *Backend) Aspect() float32 {
	if b.surfaceConfig.Height == 0 {
		return 1
	}
	return float32(b.surfaceConfig.Width) / float32(b.surfaceConfig.Height)
}

// SetCamera uploads the view-projection matrix used by every material.
func (b *Backend) SetCamera(viewProj mgl32.Mat4, eye mgl32.Vec3) error {
	data := make([]float32, 0, cameraUniformSize/4)
	data = append(data, viewProj[:]...)
	data = append(data, eye.X(), eye.Y(), eye.Z(), 1)
	return b.queue.WriteBuffer(b.cameraBuffer, 0, wgpu.ToBytes(data))
}

// BeginFrame acquires the next swapchain image and opens the frame's render pass.
// Draws issued through DrawIndirect land in this pass until EndFrame.
func (b *Backend) BeginFrame() error {
	if b.framePass != nil {
		return errors.New("frame already in progress")
	}

	if w, h := b.window.FramebufferSize(); w > 0 && h > 0 &&
		(uint32(w) != b.surfaceConfig.Width || uint32(h) != b.surfaceConfig.Height) {
		if err := b.configure(w, h); err != nil {
			return err
		}
		b.log.Debugf("surface resized to %dx%d", w, h)
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("create surface view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("create command encoder: %w", err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.1, G: 0.1, B: 0.12, A: 1.0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	pass.SetBindGroup(0, b.cameraBindGroup, nil)

	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameEncoder = encoder
	b.framePass = pass
	return nil
}

// EndFrame closes the render pass, submits it and presents the image.
func (b *Backend) EndFrame() error {
	if b.framePass == nil {
		return ErrNoFrame
	}
	defer b.releaseFrame()

	if err := b.framePass.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}
	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	b.surface.Present()
	return nil
}

func (b *Backend) releaseFrame() {
	b.framePass = nil
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func toWgpuUsage(usage crowd.BufferUsage) wgpu.BufferUsage {
	u := wgpu.BufferUsageCopyDst
	if usage&crowd.BufferUsageStorage != 0 {
		u |= wgpu.BufferUsageStorage
	}
	if usage&crowd.BufferUsageIndirect != 0 {
		u |= wgpu.BufferUsageIndirect
	}
	return u
}

func (b *Backend) CreateBuffer(label string, size uint64, usage crowd.BufferUsage) (crowd.DeviceBuffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: toWgpuUsage(usage),
	})
	if err != nil {
		return nil, err
	}
	b.live++
	return &buffer{buf: buf, size: size, label: label}, nil
}

func (b *Backend) ReleaseBuffer(buf crowd.DeviceBuffer) {
	wb, ok := buf.(*buffer)
	if !ok || wb.buf == nil {
		return
	}
	wb.buf.Release()
	wb.buf = nil
	b.live--
}

func (b *Backend) WriteBuffer(buf crowd.DeviceBuffer, data []byte) error {
	wb, ok := buf.(*buffer)
	if !ok || wb.buf == nil {
		return ErrForeignBuffer
	}
	if uint64(len(data)) > wb.size {
		return fmt.Errorf("write of %d bytes into %q (%d bytes)", len(data), wb.label, wb.size)
	}
	return b.queue.WriteBuffer(wb.buf, 0, data)
}

func (b *Backend) DrawIndirect(draw crowd.IndirectDraw) error {
	if b.framePass == nil {
		return ErrNoFrame
	}
	mesh, ok := draw.Mesh.(*Mesh)
	if !ok {
		return fmt.Errorf("mesh %T was not created by this backend", draw.Mesh)
	}
	material, ok := draw.Material.(*Material)
	if !ok {
		return fmt.Errorf("material %T was not created by this backend", draw.Material)
	}
	args, ok := draw.Args.(*buffer)
	if !ok || args.buf == nil {
		return ErrForeignBuffer
	}

	bindGroup, err := material.bindGroup()
	if err != nil {
		return err
	}

	// Bounds only matter to culling and this pass does none.
	b.framePass.SetPipeline(material.pipeline)
	b.framePass.SetBindGroup(1, bindGroup, nil)
	b.framePass.SetVertexBuffer(0, mesh.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(mesh.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexedIndirect(args.buf, 0)
	return nil
}

// LiveBuffers is the number of buffers created through CreateBuffer and not released.
func (b *Backend) LiveBuffers() int {
	return b.live
}

// Release tears the device down. Meshes and materials must be released first.
func (b *Backend) Release() {
	b.releaseFrame()
	if b.live != 0 {
		b.log.Warnf("releasing backend with %d live buffers", b.live)
	}
	if b.cameraBindGroup != nil {
		b.cameraBindGroup.Release()
	}
	if b.cameraLayout != nil {
		b.cameraLayout.Release()
	}
	if b.cameraBuffer != nil {
		b.cameraBuffer.Release()
	}
	if b.depthView != nil {
		b.depthView.Release()
		b.depthTexture.Release()
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
}
