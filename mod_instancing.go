package crowd

import (
	"fmt"
)

// AnimationInstancingModule draws the render set as one indirect instanced draw per
// animation type and advances every instance's playback each frame.
//
// It needs a *DeviceResource and a *Time. The *AnimationStore and *JobPool are
// created when missing so a world module can install them first.
type AnimationInstancingModule struct {
	Animations []AnimationMesh
	Jobs       JobsConfig
	Capacity   int // initial store capacity
}

func (mod AnimationInstancingModule) Install(app *App, cmd *Commands) {
	device, ok := Resource[DeviceResource](app)
	if !ok || device.Device == nil {
		panic("AnimationInstancingModule requires a DeviceResource")
	}

	lengths, err := LengthsFromMaterials(mod.Animations)
	if err != nil {
		panic(err)
	}

	store, ok := Resource[AnimationStore](app)
	if !ok {
		store = NewAnimationStore(mod.Capacity)
		cmd.AddResources(store)
	}
	jobs, ok := Resource[JobPool](app)
	if !ok {
		jobs = NewJobPool(mod.Jobs)
		cmd.AddResources(jobs)
	}

	log := app.Logger()
	buffers := NewBucketBufferManager(device.Device, mod.Animations, log)
	cmd.AddResources(
		NewFramePipeline(store, lengths, jobs, buffers, log),
		&FrameStats{},
	)

	for k, anim := range mod.Animations {
		log.Infof("animation type %d: %s (%.2fs)", k, anim.Name, lengths.Length(AnimationType(k)))
	}

	app.UseSystem(
		System(animationInstancingSystem).
			InStage(Render),
	)
}

// LengthsFromMaterials reads each type's playback length from its material's
// _Length property.
func LengthsFromMaterials(animations []AnimationMesh) (AnimationLengthTable, error) {
	if len(animations) == 0 {
		return AnimationLengthTable{}, ErrNoAnimations
	}
	lengths := make([]float32, len(animations))
	for k, anim := range animations {
		if anim.Mesh == nil || anim.Material == nil {
			return AnimationLengthTable{}, fmt.Errorf("animation type %d (%s) has no mesh or material", k, anim.Name)
		}
		l, ok := anim.Material.Float(PropertyAnimationLength)
		if !ok {
			return AnimationLengthTable{}, fmt.Errorf("animation type %d (%s): material has no %s property", k, anim.Name, PropertyAnimationLength)
		}
		lengths[k] = l
	}
	return NewAnimationLengthTable(lengths...)
}

func animationInstancingSystem(t *Time, pipeline *FramePipeline, last *FrameStats) error {
	stats, err := pipeline.RunFrame(t.DeltaSeconds())
	*last = stats
	return err
}
