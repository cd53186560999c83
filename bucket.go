package crowd

import (
	"fmt"
	"sync/atomic"
)

// bucketList is an append-only list with a lock-free write cursor. Writers reserve a
// slot with one atomic add and then own it.
type bucketList struct {
	cursor  atomic.Int64
	records []SendRecord
}

// BucketMap groups SendRecords by animation type. Keys are the dense range [0,K), so a
// bucket is found by indexing instead of hashing. Every list is provisioned for the
// whole render set, the worst case where all instances share one type.
type BucketMap struct {
	lists    []bucketList
	capacity int
	overflow atomic.Int64
}

func NewBucketMap(types int) *BucketMap {
	return &BucketMap{lists: make([]bucketList, types)}
}

func (m *BucketMap) Types() int {
	return len(m.lists)
}

func (m *BucketMap) Capacity() int {
	return m.capacity
}

// Reset empties every bucket and provisions capacity for n insertions per bucket.
// Not safe to call while insertions are running.
func (m *BucketMap) Reset(n int) {
	m.capacity = n
	m.overflow.Store(0)
	for k := range m.lists {
		l := &m.lists[k]
		l.cursor.Store(0)
		if cap(l.records) < n {
			l.records = make([]SendRecord, n)
		} else {
			l.records = l.records[:n]
		}
	}
}

// Add appends rec to the bucket of key. Safe for concurrent use. An insertion past the
// provisioned capacity is dropped and reported by Err.
func (m *BucketMap) Add(key AnimationType, rec SendRecord) {
	if int(key) >= len(m.lists) {
		panic(fmt.Sprintf("animation type %d out of range [0,%d)", key, len(m.lists)))
	}
	l := &m.lists[key]
	slot := l.cursor.Add(1) - 1
	if slot >= int64(len(l.records)) {
		m.overflow.Add(1)
		return
	}
	l.records[slot] = rec
}

// Len is the number of records in bucket k.
func (m *BucketMap) Len(k AnimationType) int {
	return int(min(m.lists[k].cursor.Load(), int64(len(m.lists[k].records))))
}

// Bucket returns the records of bucket k in insertion order, which is not deterministic
// under parallel insertion. The slice aliases internal storage until the next Reset.
func (m *BucketMap) Bucket(k AnimationType) []SendRecord {
	return m.lists[k].records[:m.Len(k)]
}

func (m *BucketMap) Total() int {
	total := 0
	for k := range m.lists {
		total += m.Len(AnimationType(k))
	}
	return total
}

func (m *BucketMap) Err() error {
	if dropped := m.overflow.Load(); dropped > 0 {
		return fmt.Errorf("%w: %d records dropped at capacity %d", ErrCapacityExceeded, dropped, m.capacity)
	}
	return nil
}

// BucketStage inserts one SendRecord per snapshot index, keyed by its pre-advance type.
func BucketStage(group *JobGroup, snap *Snapshot, buckets *BucketMap, batch int) {
	group.Schedule(snap.Len(), batch, func(start, end int) {
		for i := start; i < end; i++ {
			play := snap.Playback[i]
			buckets.Add(play.AnimationType, SendRecord{
				CurrentKeyFrame: play.CurrentKeyFrame,
				LocalToWorld:    snap.Transforms[i],
			})
		}
	})
}
