package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/crowd"
)

// vertexStride is the size of crowd.Vertex: position and normal, 3 floats each.
const vertexStride = 24

var vertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: vertexStride,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{ShaderLocation: 0, Offset: 0, Format: wgpu.VertexFormatFloat32x3},
		{ShaderLocation: 1, Offset: 12, Format: wgpu.VertexFormatFloat32x3},
	},
}

// Mesh is a crowd.Mesh uploaded to vertex and index buffers.
type Mesh struct {
	name         string
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   uint32
	indexStart   uint32
	baseVertex   int32
}

func (m *Mesh) IndexCount() uint32 { return m.indexCount }
func (m *Mesh) IndexStart() uint32 { return m.indexStart }
func (m *Mesh) BaseVertex() int32  { return m.baseVertex }

// CreateMesh uploads a mesh asset.
func (b *Backend) CreateMesh(asset crowd.MeshAsset) (*Mesh, error) {
	if len(asset.Vertices) == 0 || len(asset.Indices) == 0 {
		return nil, fmt.Errorf("mesh %s is empty", asset.Name)
	}

	vertexBuffer, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    asset.Name + " Vertices",
		Contents: wgpu.ToBytes(asset.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer for %s: %w", asset.Name, err)
	}
	indexBuffer, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    asset.Name + " Indices",
		Contents: wgpu.ToBytes(asset.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuffer.Release()
		return nil, fmt.Errorf("create index buffer for %s: %w", asset.Name, err)
	}

	return &Mesh{
		name:         asset.Name,
		vertexBuffer: vertexBuffer,
		indexBuffer:  indexBuffer,
		indexCount:   uint32(len(asset.Indices)) - asset.IndexStart,
		indexStart:   asset.IndexStart,
		baseVertex:   asset.BaseVertex,
	}, nil
}

func (m *Mesh) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}
