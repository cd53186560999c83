package crowd

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SendRecord is what the shader sees per instance. The animation type is not part of
// it: it is the identity of the bucket the record is uploaded with.
type SendRecord struct {
	CurrentKeyFrame float32
	LocalToWorld    mgl32.Mat4
}

// SendRecordSize is the std430 stride of
//
//	struct PlayData { key_frame: f32, local_to_world: mat4x4<f32> }
//
// key_frame at offset 0, matrix aligned to 16 at offset 16.
const SendRecordSize = 80

// IndirectArgsSize is the size of DrawIndexedIndirect arguments (5 x u32).
const IndirectArgsSize = 20

// AppendSendRecords marshals records into dst (reusing its capacity) and returns the
// extended slice.
func AppendSendRecords(dst []byte, records []SendRecord) []byte {
	need := len(dst) + len(records)*SendRecordSize
	if cap(dst) < need {
		grown := make([]byte, len(dst), need)
		copy(grown, dst)
		dst = grown
	}
	for _, r := range records {
		off := len(dst)
		dst = dst[:off+SendRecordSize]
		buf := dst[off:]
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(r.CurrentKeyFrame))
		clear(buf[4:16])
		for i, v := range r.LocalToWorld {
			binary.LittleEndian.PutUint32(buf[16+i*4:20+i*4], math.Float32bits(v))
		}
	}
	return dst
}

// IndirectArgs is the GPU layout of DrawIndexedIndirect arguments.
type IndirectArgs struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

func (a IndirectArgs) Marshal() []byte {
	buf := make([]byte, IndirectArgsSize)
	binary.LittleEndian.PutUint32(buf[0:4], a.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], a.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], a.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(a.BaseVertex))
	binary.LittleEndian.PutUint32(buf[16:20], a.FirstInstance)
	return buf
}

// Bounds is an axis-aligned box given by centre and full size.
type Bounds struct {
	Center mgl32.Vec3
	Size   mgl32.Vec3
}

// LargeBounds covers the whole scene; culling is off for instanced buckets.
var LargeBounds = Bounds{Size: mgl32.Vec3{1000000, 1000000, 1000000}}
