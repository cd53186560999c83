package crowd

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translated(x float32) TransformComponent {
	tr := IdentityTransform()
	tr.Position = mgl32.Vec3{x, 0, 0}
	return tr
}

func TestAnimationStore_SpawnComposesWorld(t *testing.T) {
	store := NewAnimationStore(4)
	h := store.Spawn(PlaybackState{CurrentKeyFrame: 0.5, AnimationType: 2}, translated(3))

	require.True(t, store.Valid(h))
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, PlaybackState{0.5, 2}, store.PlaybackAt(0))
	assert.Equal(t, mgl32.Translate3D(3, 0, 0), store.WorldAt(0))

	state, err := store.State(h)
	require.NoError(t, err)
	assert.Equal(t, AnimationType(2), state.AnimationType)
}

func TestAnimationStore_DespawnSwapsLastIntoHole(t *testing.T) {
	store := NewAnimationStore(0)
	a := store.Spawn(PlaybackState{AnimationType: 0}, translated(0))
	b := store.Spawn(PlaybackState{AnimationType: 1}, translated(1))
	c := store.Spawn(PlaybackState{AnimationType: 2}, translated(2))

	require.NoError(t, store.Despawn(a))

	assert.Equal(t, 2, store.Count())
	assert.False(t, store.Valid(a))
	assert.Equal(t, AnimationType(2), store.PlaybackAt(0).AnimationType)
	assert.Equal(t, mgl32.Translate3D(2, 0, 0), store.WorldAt(0))

	// surviving handles still resolve after the move
	sc, err := store.State(c)
	require.NoError(t, err)
	assert.Equal(t, AnimationType(2), sc.AnimationType)
	sb, err := store.State(b)
	require.NoError(t, err)
	assert.Equal(t, AnimationType(1), sb.AnimationType)
}

func TestAnimationStore_StaleHandles(t *testing.T) {
	store := NewAnimationStore(0)
	h := store.Spawn(PlaybackState{}, IdentityTransform())
	require.NoError(t, store.Despawn(h))

	assert.ErrorIs(t, store.Despawn(h), ErrStaleHandle)
	_, err := store.State(h)
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.ErrorIs(t, store.SetTransform(h, IdentityTransform()), ErrStaleHandle)
	assert.False(t, store.Valid(Handle{Slot: 99}))

	// the slot is reused with a new generation
	h2 := store.Spawn(PlaybackState{}, IdentityTransform())
	assert.Equal(t, h.Slot, h2.Slot)
	assert.NotEqual(t, h.Generation, h2.Generation)
	assert.False(t, store.Valid(h))
	assert.True(t, store.Valid(h2))
}

func TestAnimationStore_SetTransformDefersWorld(t *testing.T) {
	store := NewAnimationStore(0)
	h := store.Spawn(PlaybackState{}, translated(1))

	require.NoError(t, store.SetTransform(h, translated(5)))
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), store.WorldAt(0))

	TransformSystem(store, newTestJobPool(t))
	assert.Equal(t, mgl32.Translate3D(5, 0, 0), store.WorldAt(0))
}
