package crowd

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent is an instance's local TRS. With no hierarchy it is also the
// world TRS.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func IdentityTransform() TransformComponent {
	return TransformComponent{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// LocalToWorld composes T * R * S.
func (tr TransformComponent) LocalToWorld() mgl32.Mat4 {
	t := mgl32.Translate3D(tr.Position.X(), tr.Position.Y(), tr.Position.Z())
	r := tr.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(tr.Scale.X(), tr.Scale.Y(), tr.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// TransformModule refreshes world matrices from local TRS each frame, ahead of the
// instancing pass which reads them.
type TransformModule struct{}

func (TransformModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(TransformSystem).
			InStage(PostUpdate),
	)
}

func TransformSystem(store *AnimationStore, jobs *JobPool) {
	group := jobs.Group()
	group.Schedule(store.Count(), jobs.BatchSize(), func(start, end int) {
		for i := start; i < end; i++ {
			store.world[i] = store.local[i].LocalToWorld()
		}
	})
	group.Wait()
}
