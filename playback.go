package crowd

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoAnimations     = errors.New("no animation types configured")
	ErrInvalidLength    = errors.New("invalid animation length")
	ErrNegativeDelta    = errors.New("negative frame delta")
	ErrCapacityExceeded = errors.New("bucket capacity exceeded")
	ErrStaleHandle      = errors.New("stale instance handle")
)

// AnimationType indexes the animation length table and the per-type draw resources.
type AnimationType uint32

// Types of the stock crowd manifest.
const (
	AnimationRun AnimationType = iota
	AnimationSlide
	AnimationWait
)

// PlaybackState is the per-instance playback cursor.
type PlaybackState struct {
	CurrentKeyFrame float32
	AnimationType   AnimationType
}

// AnimationLengthTable holds one playback duration (seconds) per animation type.
// It is read-only once built.
type AnimationLengthTable struct {
	lengths []float32
}

func NewAnimationLengthTable(lengths ...float32) (AnimationLengthTable, error) {
	if len(lengths) == 0 {
		return AnimationLengthTable{}, ErrNoAnimations
	}
	for i, l := range lengths {
		if l < 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
			return AnimationLengthTable{}, fmt.Errorf("%w: type %d has length %v", ErrInvalidLength, i, l)
		}
	}
	return AnimationLengthTable{lengths: append([]float32(nil), lengths...)}, nil
}

// Types is K, the number of animation types.
func (t AnimationLengthTable) Types() int {
	return len(t.lengths)
}

// Length panics for a type outside [0, K): such a value can only come from corrupted state.
func (t AnimationLengthTable) Length(animType AnimationType) float32 {
	if int(animType) >= len(t.lengths) {
		panic(fmt.Sprintf("animation type %d out of range [0,%d)", animType, len(t.lengths)))
	}
	return t.lengths[animType]
}

// Next is the round-robin successor of animType.
func (t AnimationLengthTable) Next(animType AnimationType) AnimationType {
	return AnimationType((int(animType) + 1) % len(t.lengths))
}
