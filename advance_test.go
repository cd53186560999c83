package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvancePlayback(t *testing.T) {
	lengths := testLengths(t, 2, 1, 3)

	for _, tc := range []struct {
		name string
		in   PlaybackState
		dt   float32
		want PlaybackState
	}{
		{"mid clip moves forward", PlaybackState{0.5, 0}, 0.25, PlaybackState{0.75, 0}},
		{"overshoot is kept until the next step", PlaybackState{1.5, 0}, 1, PlaybackState{2.5, 0}},
		{"finished clip switches type", PlaybackState{2.5, 0}, 1, PlaybackState{0, 1}},
		{"exact length switches type", PlaybackState{1, 1}, 0.1, PlaybackState{0, 2}},
		{"last type wraps to first", PlaybackState{3, 2}, 0.016, PlaybackState{0, 0}},
		{"zero delta before the end is a no-op", PlaybackState{1.25, 0}, 0, PlaybackState{1.25, 0}},
		{"zero delta at the end still switches", PlaybackState{2, 0}, 0, PlaybackState{0, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AdvancePlayback(tc.in, tc.dt, lengths))
		})
	}
}

func TestAdvancePlayback_ZeroLengthSwitchesEveryFrame(t *testing.T) {
	lengths := testLengths(t, 0, 0)

	s := PlaybackState{}
	s = AdvancePlayback(s, 0.1, lengths)
	assert.Equal(t, PlaybackState{0, 1}, s)
	s = AdvancePlayback(s, 0.1, lengths)
	assert.Equal(t, PlaybackState{0, 0}, s)
}

func TestAdvancePlayback_CyclesThroughAllTypes(t *testing.T) {
	lengths := testLengths(t, 2, 1, 3)

	s := PlaybackState{}
	var visited []AnimationType
	for frame := 0; frame < 20; frame++ {
		next := AdvancePlayback(s, 0.5, lengths)
		if next.AnimationType != s.AnimationType {
			visited = append(visited, next.AnimationType)
			assert.Zero(t, next.CurrentKeyFrame)
		}
		s = next
	}
	require.GreaterOrEqual(t, len(visited), 3)
	assert.Equal(t, []AnimationType{1, 2, 0}, visited[:3])
}

func TestAdvanceStage_UpdatesEveryInstance(t *testing.T) {
	jobs := newTestJobPool(t)
	lengths := testLengths(t, 2, 1, 3)

	store := NewAnimationStore(0)
	for i := 0; i < 1000; i++ {
		store.Spawn(PlaybackState{CurrentKeyFrame: float32(i%4) * 0.5, AnimationType: AnimationType(i % 3)}, IdentityTransform())
	}
	before := append([]PlaybackState(nil), store.playback...)

	group := jobs.Group()
	AdvanceStage(group, store, 0.25, lengths, 16)
	group.Wait()

	for i, s := range before {
		assert.Equal(t, AdvancePlayback(s, 0.25, lengths), store.PlaybackAt(i), "instance %d", i)
	}
}

func TestAdvanceStage_OutOfRangeTypeFaults(t *testing.T) {
	jobs := newTestJobPool(t)
	lengths := testLengths(t, 1, 1)

	store := NewAnimationStore(0)
	store.Spawn(PlaybackState{AnimationType: 5}, IdentityTransform())

	group := jobs.Group()
	AdvanceStage(group, store, 0.1, lengths, 1)
	assert.Panics(t, group.Wait)
}
