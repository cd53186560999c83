package crowd

import (
	"errors"
	"fmt"
)

type fakeBuffer struct {
	id       int
	label    string
	size     uint64
	usage    BufferUsage
	data     []byte
	released bool
}

func (b *fakeBuffer) Size() uint64 { return b.size }

type fakeMesh struct {
	indexCount uint32
	indexStart uint32
	baseVertex int32
}

func (m fakeMesh) IndexCount() uint32 { return m.indexCount }
func (m fakeMesh) IndexStart() uint32 { return m.indexStart }
func (m fakeMesh) BaseVertex() int32  { return m.baseVertex }

type fakeMaterial struct {
	floats  map[string]float32
	buffers map[string]DeviceBuffer
}

func newFakeMaterial(length float32) *fakeMaterial {
	return &fakeMaterial{
		floats:  map[string]float32{PropertyAnimationLength: length},
		buffers: map[string]DeviceBuffer{},
	}
}

func (m *fakeMaterial) Float(name string) (float32, bool) {
	v, ok := m.floats[name]
	return v, ok
}

func (m *fakeMaterial) SetBuffer(name string, buf DeviceBuffer) {
	m.buffers[name] = buf
}

type drawCall struct {
	mesh      Mesh
	material  Material
	bounds    Bounds
	args      *fakeBuffer
	argsBytes []byte
}

var errFakeOutOfMemory = errors.New("out of device memory")

// fakeDevice records every call. failCreateAt makes the n-th CreateBuffer call
// (1-based) fail.
type fakeDevice struct {
	nextID       int
	creates      int
	failCreateAt int
	failWrites   bool

	buffers  []*fakeBuffer
	released []*fakeBuffer
	draws    []drawCall
}

func (d *fakeDevice) CreateBuffer(label string, size uint64, usage BufferUsage) (DeviceBuffer, error) {
	d.creates++
	if d.failCreateAt == d.creates {
		return nil, errFakeOutOfMemory
	}
	d.nextID++
	buf := &fakeBuffer{id: d.nextID, label: label, size: size, usage: usage}
	d.buffers = append(d.buffers, buf)
	return buf, nil
}

func (d *fakeDevice) ReleaseBuffer(buf DeviceBuffer) {
	fb := buf.(*fakeBuffer)
	if fb.released {
		panic(fmt.Sprintf("buffer %d (%s) released twice", fb.id, fb.label))
	}
	fb.released = true
	d.released = append(d.released, fb)
}

func (d *fakeDevice) WriteBuffer(buf DeviceBuffer, data []byte) error {
	if d.failWrites {
		return errors.New("queue lost")
	}
	fb := buf.(*fakeBuffer)
	if fb.released {
		return fmt.Errorf("write to released buffer %d", fb.id)
	}
	if uint64(len(data)) > fb.size {
		return fmt.Errorf("write of %d bytes into %d byte buffer", len(data), fb.size)
	}
	fb.data = append(fb.data[:0], data...)
	return nil
}

func (d *fakeDevice) DrawIndirect(draw IndirectDraw) error {
	args := draw.Args.(*fakeBuffer)
	d.draws = append(d.draws, drawCall{
		mesh:      draw.Mesh,
		material:  draw.Material,
		bounds:    draw.Bounds,
		args:      args,
		argsBytes: append([]byte(nil), args.data...),
	})
	return nil
}

// live is the number of buffers not yet released.
func (d *fakeDevice) live() int {
	return len(d.buffers) - len(d.released)
}

func fakeAnimations(lengths ...float32) []AnimationMesh {
	out := make([]AnimationMesh, len(lengths))
	for k, l := range lengths {
		out[k] = AnimationMesh{
			Name:     fmt.Sprintf("anim%d", k),
			Mesh:     fakeMesh{indexCount: uint32(36 + k), indexStart: uint32(k), baseVertex: int32(k * 2)},
			Material: newFakeMaterial(l),
		}
	}
	return out
}
