package crowd

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformComponent_LocalToWorld(t *testing.T) {
	tr := TransformComponent{
		Position: mgl32.Vec3{1, 2, 3},
		Rotation: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}),
		Scale:    mgl32.Vec3{2, 2, 2},
	}

	// scale, then rotate +X onto -Z, then translate
	p := tr.LocalToWorld().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec3{1, 2, 1}, 1e-5), "got %v", p)
}

func TestIdentityTransform(t *testing.T) {
	assert.True(t, IdentityTransform().LocalToWorld().ApproxEqual(mgl32.Ident4()))
}

func TestTransformModule_RefreshesWorld(t *testing.T) {
	store := NewAnimationStore(0)
	h := store.Spawn(PlaybackState{}, IdentityTransform())

	app := NewApp()
	app.Commands().AddResources(store, newTestJobPool(t))
	app.UseModules(TransformModule{})

	require.NoError(t, store.SetTransform(h, translated(4)))
	require.NoError(t, app.Step())
	assert.Equal(t, mgl32.Translate3D(4, 0, 0), store.WorldAt(0))
}
