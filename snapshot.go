package crowd

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Snapshot is the frame-local copy of the render set. Bucketing reads it while the
// advance stage mutates the live store.
type Snapshot struct {
	Transforms []mgl32.Mat4
	Playback   []PlaybackState
}

func (s *Snapshot) Len() int {
	return len(s.Playback)
}

// resize reuses the backing arrays across frames; contents are fully overwritten by
// the copy stage.
func (s *Snapshot) resize(n int) {
	if cap(s.Transforms) < n {
		s.Transforms = make([]mgl32.Mat4, n)
		s.Playback = make([]PlaybackState, n)
		return
	}
	s.Transforms = s.Transforms[:n]
	s.Playback = s.Playback[:n]
}

// Clear drops the frame's contents while keeping capacity.
func (s *Snapshot) Clear() {
	s.Transforms = s.Transforms[:0]
	s.Playback = s.Playback[:0]
}

// CopyStage fills snap from the store, one disjoint index range per task.
// Returns after the barrier.
func CopyStage(jobs *JobPool, store *AnimationStore, snap *Snapshot, batch int) {
	n := store.Count()
	snap.resize(n)

	group := jobs.Group()
	group.Schedule(n, batch, func(start, end int) {
		copy(snap.Transforms[start:end], store.world[start:end])
		copy(snap.Playback[start:end], store.playback[start:end])
	})
	group.Wait()
}
