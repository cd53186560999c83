package crowd

// BufferUsage says how a device buffer is bound.
type BufferUsage uint32

const (
	BufferUsageStorage BufferUsage = 1 << iota
	BufferUsageIndirect
)

// DeviceBuffer is an opaque device allocation. It is not reclaimed automatically;
// every buffer must go back through Device.ReleaseBuffer.
type DeviceBuffer interface {
	Size() uint64
}

// Mesh is queried once per draw.
type Mesh interface {
	IndexCount() uint32
	IndexStart() uint32
	BaseVertex() int32
}

// Material is the shading program of one animation type. It exposes float properties
// (the playback length) and named buffer slots (the per-instance records).
type Material interface {
	Float(name string) (float32, bool)
	SetBuffer(name string, buf DeviceBuffer)
}

// IndirectDraw is one instanced draw whose instance count and index range come from
// Args.
type IndirectDraw struct {
	Mesh     Mesh
	Material Material
	Bounds   Bounds
	Args     DeviceBuffer
}

type Device interface {
	CreateBuffer(label string, size uint64, usage BufferUsage) (DeviceBuffer, error)
	ReleaseBuffer(buf DeviceBuffer)
	// WriteBuffer replaces the buffer contents starting at offset 0.
	WriteBuffer(buf DeviceBuffer, data []byte) error
	DrawIndirect(draw IndirectDraw) error
}

// DeviceResource carries the Device through the app's resource table.
type DeviceResource struct {
	Device Device
}

// Shader property names shared with the crowd shaders.
const (
	PropertyAnimationLength = "_Length"
	PropertyPlayDataBuffer  = "_PlayDataBuffer"

	PropertyAmplitude = "_Amplitude"
	PropertyTintR     = "_TintR"
	PropertyTintG     = "_TintG"
	PropertyTintB     = "_TintB"
)
