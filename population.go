package crowd

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// SpawnRotation stands instances upright (Euler -90 degrees around X).
var SpawnRotation = mgl32.QuatRotate(mgl32.DegToRad(-90), mgl32.Vec3{1, 0, 0})

// PopulateRandom spawns n instances at uniform random positions inside a cube of
// edge boundSize centred on the origin. Instance i starts type i mod types at
// keyframe 0.
func PopulateRandom(store *AnimationStore, n, types int, boundSize float32, rng *rand.Rand) []Handle {
	handles := make([]Handle, 0, n)
	half := boundSize / 2
	rnd := func() float32 {
		return rng.Float32()*boundSize - half
	}
	for i := 0; i < n; i++ {
		handles = append(handles, store.Spawn(
			PlaybackState{
				CurrentKeyFrame: 0,
				AnimationType:   AnimationType(i % types),
			},
			TransformComponent{
				Position: mgl32.Vec3{rnd(), rnd(), rnd()},
				Rotation: SpawnRotation,
				Scale:    mgl32.Vec3{1, 1, 1},
			},
		))
	}
	return handles
}
