package crowd

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Handle identifies one instance. The generation makes handles of despawned
// instances fail validation after their slot is reused.
type Handle struct {
	Slot       uint32
	Generation uint32
}

type slotMeta struct {
	dense      int // index into the dense arrays, -1 when free
	generation uint32
}

// AnimationStore keeps the render set as dense parallel arrays: playback state,
// local TRS and the derived local-to-world matrix share an index. Despawn swaps
// the last instance into the hole so indices 0..Count()-1 are always live.
//
// The store is not safe for concurrent mutation; the frame pipeline is its only
// writer while a frame runs.
type AnimationStore struct {
	playback []PlaybackState
	local    []TransformComponent
	world    []mgl32.Mat4
	owners   []uint32 // dense index -> slot

	slots []slotMeta
	free  []uint32
}

func NewAnimationStore(capacity int) *AnimationStore {
	return &AnimationStore{
		playback: make([]PlaybackState, 0, capacity),
		local:    make([]TransformComponent, 0, capacity),
		world:    make([]mgl32.Mat4, 0, capacity),
		owners:   make([]uint32, 0, capacity),
		slots:    make([]slotMeta, 0, capacity),
	}
}

// Count is the size of the render set.
func (s *AnimationStore) Count() int {
	return len(s.playback)
}

func (s *AnimationStore) PlaybackAt(i int) PlaybackState {
	return s.playback[i]
}

func (s *AnimationStore) WorldAt(i int) mgl32.Mat4 {
	return s.world[i]
}

// Spawn adds an instance; its world transform is composed from tr immediately.
func (s *AnimationStore) Spawn(state PlaybackState, tr TransformComponent) Handle {
	dense := len(s.playback)
	s.playback = append(s.playback, state)
	s.local = append(s.local, tr)
	s.world = append(s.world, tr.LocalToWorld())

	var slot uint32
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[slot].dense = dense
	} else {
		slot = uint32(len(s.slots))
		s.slots = append(s.slots, slotMeta{dense: dense})
	}
	s.owners = append(s.owners, slot)

	return Handle{Slot: slot, Generation: s.slots[slot].generation}
}

// HandleAt is the handle of the instance currently at dense index i.
func (s *AnimationStore) HandleAt(i int) Handle {
	slot := s.owners[i]
	return Handle{Slot: slot, Generation: s.slots[slot].generation}
}

func (s *AnimationStore) Valid(h Handle) bool {
	if int(h.Slot) >= len(s.slots) {
		return false
	}
	meta := s.slots[h.Slot]
	return meta.dense >= 0 && meta.generation == h.Generation
}

func (s *AnimationStore) Despawn(h Handle) error {
	if !s.Valid(h) {
		return ErrStaleHandle
	}
	hole := s.slots[h.Slot].dense
	last := len(s.playback) - 1

	if hole != last {
		s.playback[hole] = s.playback[last]
		s.local[hole] = s.local[last]
		s.world[hole] = s.world[last]
		moved := s.owners[last]
		s.owners[hole] = moved
		s.slots[moved].dense = hole
	}
	s.playback = s.playback[:last]
	s.local = s.local[:last]
	s.world = s.world[:last]
	s.owners = s.owners[:last]

	s.slots[h.Slot].dense = -1
	s.slots[h.Slot].generation++
	s.free = append(s.free, h.Slot)
	return nil
}

func (s *AnimationStore) State(h Handle) (PlaybackState, error) {
	if !s.Valid(h) {
		return PlaybackState{}, ErrStaleHandle
	}
	return s.playback[s.slots[h.Slot].dense], nil
}

// SetTransform replaces the local TRS; the world matrix follows on the next
// transform pass.
func (s *AnimationStore) SetTransform(h Handle, tr TransformComponent) error {
	if !s.Valid(h) {
		return ErrStaleHandle
	}
	s.local[s.slots[h.Slot].dense] = tr
	return nil
}
