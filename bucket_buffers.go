package crowd

import (
	"fmt"
)

// AnimationMesh is the mesh/material pair drawn for one animation type.
type AnimationMesh struct {
	Name     string
	Mesh     Mesh
	Material Material
}

type bucketState int

const (
	bucketUninitialized bucketState = iota
	bucketSized
)

func (s bucketState) String() string {
	switch s {
	case bucketUninitialized:
		return "uninitialized"
	case bucketSized:
		return "sized"
	default:
		return fmt.Sprintf("bucketState(%d)", int(s))
	}
}

// bucketBuffers are the device buffers of one animation type. In the sized state both
// buffers are live and data holds exactly instances records.
type bucketBuffers struct {
	state     bucketState
	instances int
	data      DeviceBuffer
	args      DeviceBuffer
}

// SubmitStats summarizes one Submit.
type SubmitStats struct {
	Draws         int
	Reallocations int
	Releases      int
}

// BucketBufferManager owns the per-type device buffers and issues one indirect draw per
// non-empty bucket. Buffers are replaced, never grown in place, whenever a bucket's
// instance count differs from the previous frame.
type BucketBufferManager struct {
	device     Device
	animations []AnimationMesh
	buckets    []bucketBuffers
	scratch    []byte
	log        Logger
}

func NewBucketBufferManager(device Device, animations []AnimationMesh, log Logger) *BucketBufferManager {
	if log == nil {
		log = NewNopLogger()
	}
	return &BucketBufferManager{
		device:     device,
		animations: animations,
		buckets:    make([]bucketBuffers, len(animations)),
		log:        log,
	}
}

// InstanceCount is the record capacity of type k's data buffer, or -1 while the bucket
// has no buffers.
func (m *BucketBufferManager) InstanceCount(k AnimationType) int {
	b := m.buckets[k]
	if b.state != bucketSized {
		return -1
	}
	return b.instances
}

// Buffers returns type k's current data and args buffers (nil while uninitialized).
func (m *BucketBufferManager) Buffers(k AnimationType) (data, args DeviceBuffer) {
	b := m.buckets[k]
	return b.data, b.args
}

// Submit uploads every bucket and draws it, in ascending type order. It must only run
// after all insertions into buckets have finished. On error the remaining types are
// skipped; draws already issued stand.
func (m *BucketBufferManager) Submit(buckets *BucketMap) (SubmitStats, error) {
	var stats SubmitStats
	if buckets.Types() != len(m.buckets) {
		return stats, fmt.Errorf("bucket map has %d types, buffer manager has %d", buckets.Types(), len(m.buckets))
	}

	for k := range m.buckets {
		animType := AnimationType(k)
		records := buckets.Bucket(animType)
		if len(records) == 0 {
			if m.buckets[k].state == bucketSized {
				m.release(animType)
				stats.Releases++
			}
			continue
		}

		resized, err := m.ensure(animType, len(records))
		if resized {
			stats.Reallocations++
		}
		if err != nil {
			return stats, err
		}

		if err := m.draw(animType, records); err != nil {
			return stats, err
		}
		stats.Draws++
	}
	return stats, nil
}

// ensure moves bucket k to Sized(n). A size change releases the old pair before the
// new pair is allocated. Reports whether a reallocation was attempted.
func (m *BucketBufferManager) ensure(k AnimationType, n int) (bool, error) {
	b := &m.buckets[k]
	if b.state == bucketSized && b.instances == n {
		return false, nil
	}

	prev := m.InstanceCount(k)
	m.release(k)

	name := m.animations[k].Name
	data, err := m.device.CreateBuffer(fmt.Sprintf("%s PlayData", name), uint64(n)*SendRecordSize, BufferUsageStorage)
	if err != nil {
		return true, fmt.Errorf("allocate play data for type %d (%d instances): %w", k, n, err)
	}
	args, err := m.device.CreateBuffer(fmt.Sprintf("%s IndirectArgs", name), IndirectArgsSize, BufferUsageIndirect)
	if err != nil {
		m.device.ReleaseBuffer(data)
		return true, fmt.Errorf("allocate indirect args for type %d: %w", k, err)
	}

	m.log.Debugf("bucket %d (%s): %d -> %d instances", k, name, prev, n)
	*b = bucketBuffers{
		state:     bucketSized,
		instances: n,
		data:      data,
		args:      args,
	}
	return true, nil
}

func (m *BucketBufferManager) draw(k AnimationType, records []SendRecord) error {
	b := &m.buckets[k]
	anim := m.animations[k]

	m.scratch = AppendSendRecords(m.scratch[:0], records)
	if err := m.device.WriteBuffer(b.data, m.scratch); err != nil {
		return fmt.Errorf("upload play data for type %d: %w", k, err)
	}
	anim.Material.SetBuffer(PropertyPlayDataBuffer, b.data)

	args := IndirectArgs{
		IndexCount:    anim.Mesh.IndexCount(),
		InstanceCount: uint32(len(records)),
		FirstIndex:    anim.Mesh.IndexStart(),
		BaseVertex:    anim.Mesh.BaseVertex(),
	}
	if err := m.device.WriteBuffer(b.args, args.Marshal()); err != nil {
		return fmt.Errorf("upload indirect args for type %d: %w", k, err)
	}

	if err := m.device.DrawIndirect(IndirectDraw{
		Mesh:     anim.Mesh,
		Material: anim.Material,
		Bounds:   LargeBounds,
		Args:     b.args,
	}); err != nil {
		return fmt.Errorf("draw type %d: %w", k, err)
	}
	return nil
}

func (m *BucketBufferManager) release(k AnimationType) {
	b := &m.buckets[k]
	if b.data != nil {
		m.device.ReleaseBuffer(b.data)
	}
	if b.args != nil {
		m.device.ReleaseBuffer(b.args)
	}
	*b = bucketBuffers{}
}

// Release frees every bucket's buffers.
func (m *BucketBufferManager) Release() {
	for k := range m.buckets {
		m.release(AnimationType(k))
	}
}
