package crowd

import (
	"fmt"
)

// FrameStats describes one completed frame.
type FrameStats struct {
	Instances   int
	BucketSizes []int
	SubmitStats
}

// FramePipeline runs the per-frame animation work:
//
//	copy -> barrier -> {bucketing, advance} -> barrier -> buffer upload + draws
//
// Frames are strictly sequential; nothing carries over between frames except the
// live store and the per-type device buffers.
type FramePipeline struct {
	store   *AnimationStore
	lengths AnimationLengthTable
	jobs    *JobPool
	buffers *BucketBufferManager
	log     Logger

	batchSize int
	snapshot  Snapshot
	buckets   *BucketMap
}

func NewFramePipeline(store *AnimationStore, lengths AnimationLengthTable, jobs *JobPool, buffers *BucketBufferManager, log Logger) *FramePipeline {
	if log == nil {
		log = NewNopLogger()
	}
	return &FramePipeline{
		store:     store,
		lengths:   lengths,
		jobs:      jobs,
		buffers:   buffers,
		log:       log,
		batchSize: jobs.BatchSize(),
		buckets:   NewBucketMap(lengths.Types()),
	}
}

// Buckets exposes the last frame's bucket map. Valid until the next RunFrame.
func (p *FramePipeline) Buckets() *BucketMap {
	return p.buckets
}

// RunFrame advances playback by dt seconds and draws the buckets captured before the
// advance. A failure abandons the rest of the frame and is returned as is; the store
// has already advanced by then.
func (p *FramePipeline) RunFrame(dt float32) (FrameStats, error) {
	if dt < 0 {
		return FrameStats{}, fmt.Errorf("%w: %v", ErrNegativeDelta, dt)
	}

	n := p.store.Count()
	stats := FrameStats{Instances: n}

	CopyStage(p.jobs, p.store, &p.snapshot, p.batchSize)
	defer p.snapshot.Clear()

	p.buckets.Reset(n)
	group := p.jobs.Group()
	BucketStage(group, &p.snapshot, p.buckets, p.batchSize)
	AdvanceStage(group, p.store, dt, p.lengths, p.batchSize)
	group.Wait()

	if err := p.buckets.Err(); err != nil {
		return stats, err
	}

	stats.BucketSizes = make([]int, p.buckets.Types())
	for k := range stats.BucketSizes {
		stats.BucketSizes[k] = p.buckets.Len(AnimationType(k))
	}

	submit, err := p.buffers.Submit(p.buckets)
	stats.SubmitStats = submit
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// Release frees the device buffers. The pipeline must not run afterwards.
func (p *FramePipeline) Release() {
	p.buffers.Release()
}
