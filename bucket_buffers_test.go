package crowd

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// filledBuckets builds a bucket map holding counts[k] records of type k.
func filledBuckets(counts ...int) *BucketMap {
	total := 0
	for _, c := range counts {
		total += c
	}
	m := NewBucketMap(len(counts))
	m.Reset(total)
	for k, c := range counts {
		for i := 0; i < c; i++ {
			m.Add(AnimationType(k), SendRecord{
				CurrentKeyFrame: float32(i),
				LocalToWorld:    mgl32.Translate3D(float32(k), float32(i), 0),
			})
		}
	}
	return m
}

func TestBucketBufferManager_AllocatesExactSizes(t *testing.T) {
	device := &fakeDevice{}
	m := NewBucketBufferManager(device, fakeAnimations(1, 1, 1), nil)

	stats, err := m.Submit(filledBuckets(50, 0, 7))
	require.NoError(t, err)

	assert.Equal(t, SubmitStats{Draws: 2, Reallocations: 2}, stats)
	assert.Equal(t, 50, m.InstanceCount(0))
	assert.Equal(t, -1, m.InstanceCount(1))
	assert.Equal(t, 7, m.InstanceCount(2))

	data, args := m.Buffers(0)
	assert.Equal(t, uint64(50*SendRecordSize), data.Size())
	assert.Equal(t, uint64(IndirectArgsSize), args.Size())
	assert.Equal(t, BufferUsageStorage, data.(*fakeBuffer).usage)
	assert.Equal(t, BufferUsageIndirect, args.(*fakeBuffer).usage)
	assert.Equal(t, 4, device.live())
}

func TestBucketBufferManager_SameCountReusesBuffers(t *testing.T) {
	device := &fakeDevice{}
	m := NewBucketBufferManager(device, fakeAnimations(1), nil)

	_, err := m.Submit(filledBuckets(50))
	require.NoError(t, err)
	data1, args1 := m.Buffers(0)

	stats, err := m.Submit(filledBuckets(50))
	require.NoError(t, err)
	data2, args2 := m.Buffers(0)

	assert.Same(t, data1, data2)
	assert.Same(t, args1, args2)
	assert.Equal(t, 0, stats.Reallocations)
	assert.Equal(t, 2, device.creates)
	assert.Empty(t, device.released)
}

func TestBucketBufferManager_CountChangeReallocates(t *testing.T) {
	device := &fakeDevice{}
	m := NewBucketBufferManager(device, fakeAnimations(1), nil)

	_, err := m.Submit(filledBuckets(50))
	require.NoError(t, err)
	oldData, oldArgs := m.Buffers(0)

	stats, err := m.Submit(filledBuckets(51))
	require.NoError(t, err)
	newData, _ := m.Buffers(0)

	assert.Equal(t, 1, stats.Reallocations)
	assert.True(t, oldData.(*fakeBuffer).released)
	assert.True(t, oldArgs.(*fakeBuffer).released)
	assert.Equal(t, uint64(51*SendRecordSize), newData.Size())
	assert.Equal(t, 51, m.InstanceCount(0))
	assert.Equal(t, 2, device.live())

	// shrinking also replaces; buffers are never reused at a different size
	_, err = m.Submit(filledBuckets(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(10*SendRecordSize), m.buckets[0].data.Size())
	assert.Equal(t, 2, device.live())
}

func TestBucketBufferManager_EmptyAfterNonEmptyReleases(t *testing.T) {
	device := &fakeDevice{}
	m := NewBucketBufferManager(device, fakeAnimations(1, 1), nil)

	_, err := m.Submit(filledBuckets(5, 5))
	require.NoError(t, err)
	device.draws = nil

	stats, err := m.Submit(filledBuckets(0, 5))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Releases)
	assert.Equal(t, 1, stats.Draws)
	assert.Equal(t, -1, m.InstanceCount(0))
	data, args := m.Buffers(0)
	assert.Nil(t, data)
	assert.Nil(t, args)
	assert.Equal(t, 2, device.live())
	require.Len(t, device.draws, 1)
	assert.Equal(t, m.animations[1].Material, device.draws[0].material)

	// staying empty is a no-op
	stats, err = m.Submit(filledBuckets(0, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Releases)
}

func TestBucketBufferManager_EmptyFrameDrawsNothing(t *testing.T) {
	device := &fakeDevice{}
	m := NewBucketBufferManager(device, fakeAnimations(1, 2, 3), nil)

	stats, err := m.Submit(filledBuckets(0, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, SubmitStats{}, stats)
	assert.Zero(t, device.creates)
	assert.Empty(t, device.draws)
}

func TestBucketBufferManager_DrawOrderAndArgs(t *testing.T) {
	device := &fakeDevice{}
	anims := fakeAnimations(1, 1, 1)
	m := NewBucketBufferManager(device, anims, nil)

	_, err := m.Submit(filledBuckets(3, 4, 5))
	require.NoError(t, err)
	require.Len(t, device.draws, 3)

	for k, draw := range device.draws {
		mesh := anims[k].Mesh
		assert.Equal(t, mesh, draw.mesh)
		assert.Equal(t, anims[k].Material, draw.material)
		assert.Equal(t, LargeBounds, draw.bounds)

		want := IndirectArgs{
			IndexCount:    mesh.IndexCount(),
			InstanceCount: uint32(3 + k),
			FirstIndex:    mesh.IndexStart(),
			BaseVertex:    mesh.BaseVertex(),
		}
		assert.Equal(t, want.Marshal(), draw.argsBytes)
		assert.Equal(t, uint32(3+k), binary.LittleEndian.Uint32(draw.argsBytes[4:8]))
	}
}

func TestBucketBufferManager_UploadsRecordsAndBindsMaterial(t *testing.T) {
	device := &fakeDevice{}
	anims := fakeAnimations(1)
	m := NewBucketBufferManager(device, anims, nil)

	buckets := filledBuckets(4)
	_, err := m.Submit(buckets)
	require.NoError(t, err)

	data, _ := m.Buffers(0)
	assert.Equal(t, AppendSendRecords(nil, buckets.Bucket(0)), data.(*fakeBuffer).data)

	material := anims[0].Material.(*fakeMaterial)
	assert.Same(t, data, material.buffers[PropertyPlayDataBuffer])
}

func TestBucketBufferManager_AllocationFailure(t *testing.T) {
	device := &fakeDevice{failCreateAt: 2} // args buffer of type 0
	m := NewBucketBufferManager(device, fakeAnimations(1, 1), nil)

	stats, err := m.Submit(filledBuckets(5, 5))
	require.ErrorIs(t, err, errFakeOutOfMemory)
	assert.Contains(t, err.Error(), "type 0")

	// the half-made pair is not leaked and the rest of the frame is abandoned
	assert.Equal(t, 0, device.live())
	assert.Equal(t, -1, m.InstanceCount(0))
	assert.Equal(t, 0, stats.Draws)
	assert.Empty(t, device.draws)

	// the next frame retries from Uninitialized
	stats, err = m.Submit(filledBuckets(5, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Draws)
}

func TestBucketBufferManager_UploadFailure(t *testing.T) {
	device := &fakeDevice{failWrites: true}
	m := NewBucketBufferManager(device, fakeAnimations(1), nil)

	_, err := m.Submit(filledBuckets(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload play data for type 0")
	assert.Empty(t, device.draws)
}

func TestBucketBufferManager_TypeCountMismatch(t *testing.T) {
	m := NewBucketBufferManager(&fakeDevice{}, fakeAnimations(1, 1), nil)

	_, err := m.Submit(filledBuckets(1, 1, 1))
	assert.Error(t, err)
}

func TestBucketBufferManager_Release(t *testing.T) {
	device := &fakeDevice{}
	m := NewBucketBufferManager(device, fakeAnimations(1, 1, 1), nil)

	_, err := m.Submit(filledBuckets(2, 0, 9))
	require.NoError(t, err)
	require.Equal(t, 4, device.live())

	m.Release()
	assert.Equal(t, 0, device.live())
	for k := 0; k < 3; k++ {
		assert.Equal(t, -1, m.InstanceCount(AnimationType(k)))
	}

	// releasing twice is harmless
	m.Release()
	assert.Equal(t, 0, device.live())
}
