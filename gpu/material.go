package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/crowd"
	"github.com/gekko3d/crowd/gpu/shaders"
)

// paramsUniformSize is length, amplitude, two pad floats and a vec4 tint.
const paramsUniformSize = 32

// Material is a crowd.Material: one render pipeline plus the group 1 bindings (the
// per-instance play data and the material params). The bind group follows the
// _PlayDataBuffer slot and is rebuilt on the next draw after the slot changes.
type Material struct {
	name       string
	backend    *Backend
	properties map[string]float32

	pipeline *wgpu.RenderPipeline
	layout   *wgpu.BindGroupLayout
	params   *wgpu.Buffer

	playData *buffer
	group    *wgpu.BindGroup
	dirty    bool
}

func (m *Material) Float(name string) (float32, bool) {
	v, ok := m.properties[name]
	return v, ok
}

// SetBuffer binds buf to a named slot. Only _PlayDataBuffer exists; other names are
// ignored.
func (m *Material) SetBuffer(name string, buf crowd.DeviceBuffer) {
	if name != crowd.PropertyPlayDataBuffer {
		m.backend.log.Warnf("material %s: unknown buffer slot %s", m.name, name)
		return
	}
	wb, _ := buf.(*buffer)
	if wb == m.playData {
		return
	}
	m.playData = wb
	m.dirty = true
}

func (m *Material) bindGroup() (*wgpu.BindGroup, error) {
	if m.playData == nil || m.playData.buf == nil {
		return nil, fmt.Errorf("material %s: %s is not bound", m.name, crowd.PropertyPlayDataBuffer)
	}
	if !m.dirty && m.group != nil {
		return m.group, nil
	}

	group, err := m.backend.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  m.name + " Bind Group",
		Layout: m.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.playData.buf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: m.params, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("material %s: create bind group: %w", m.name, err)
	}
	if m.group != nil {
		m.group.Release()
	}
	m.group = group
	m.dirty = false
	return group, nil
}

// CreateMaterial compiles the material's shader (the built-in crowd shader when the
// asset carries no listing) and uploads its params.
func (b *Backend) CreateMaterial(asset crowd.MaterialAsset) (*Material, error) {
	listing := asset.ShaderListing
	if listing == "" {
		listing = shaders.CrowdWGSL
	}

	m := &Material{
		name:       asset.Name,
		backend:    b,
		properties: asset.Properties,
	}

	var err error
	m.layout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: asset.Name + " Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: crowd.SendRecordSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: paramsUniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("material %s: create layout: %w", asset.Name, err)
	}

	if err := m.createPipeline(listing); err != nil {
		m.Release()
		return nil, err
	}
	if err := m.createParams(); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (m *Material) createPipeline(listing string) error {
	b := m.backend
	shader, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          m.name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: listing},
	})
	if err != nil {
		return fmt.Errorf("material %s: compile shader: %w", m.name, err)
	}
	defer shader.Release()

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            m.name + " Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.cameraLayout, m.layout},
	})
	if err != nil {
		return fmt.Errorf("material %s: create pipeline layout: %w", m.name, err)
	}
	defer pipelineLayout.Release()

	m.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  m.name + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.surfaceConfig.Format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("material %s: create pipeline: %w", m.name, err)
	}
	return nil
}

func (m *Material) createParams() error {
	length, _ := m.Float(crowd.PropertyAnimationLength)
	params := []float32{
		length,
		m.floatOr(crowd.PropertyAmplitude, 0.25),
		0, 0,
		m.floatOr(crowd.PropertyTintR, 0.8),
		m.floatOr(crowd.PropertyTintG, 0.8),
		m.floatOr(crowd.PropertyTintB, 0.8),
		1,
	}

	var err error
	m.params, err = m.backend.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    m.name + " Params",
		Contents: wgpu.ToBytes(params),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("material %s: create params: %w", m.name, err)
	}
	return nil
}

func (m *Material) floatOr(name string, fallback float32) float32 {
	if v, ok := m.properties[name]; ok {
		return v
	}
	return fallback
}

// Release frees the pipeline and bindings. The play data buffer belongs to the
// caller and is left alone.
func (m *Material) Release() {
	if m.group != nil {
		m.group.Release()
		m.group = nil
	}
	if m.params != nil {
		m.params.Release()
		m.params = nil
	}
	if m.pipeline != nil {
		m.pipeline.Release()
		m.pipeline = nil
	}
	if m.layout != nil {
		m.layout.Release()
		m.layout = nil
	}
	m.playData = nil
}
