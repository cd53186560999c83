package crowd

import (
	"math/rand"
	"time"
)

// LifecycleModule recycles the render set: every instance lives for a random
// lifetime and is then replaced by a fresh instance of a random type at a new
// position. Bucket sizes drift from frame to frame as a result.
//
// Needs an *AnimationStore holding the initial population.
type LifecycleModule struct {
	MinLifetime time.Duration
	MaxLifetime time.Duration
	BoundSize   float32
	Types       int
	Seed        int64
}

// Lifetimes tracks the remaining lifetime of every recycled instance.
type Lifetimes struct {
	handles []Handle
	left    []float32

	min, max  float32
	boundSize float32
	types     int
	rng       *rand.Rand

	Recycled int // total replacements so far
}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	store, ok := Resource[AnimationStore](app)
	if !ok {
		panic("LifecycleModule requires an AnimationStore")
	}
	lives := newLifetimes(store, mod)
	cmd.AddResources(lives)
	app.Logger().Infof("recycling %d instances every %v to %v", len(lives.handles), mod.MinLifetime, mod.MaxLifetime)

	app.UseSystem(
		System(lifetimeSystem).
			InStage(Update),
	)
}

func newLifetimes(store *AnimationStore, mod LifecycleModule) *Lifetimes {
	lives := &Lifetimes{
		min:       float32(mod.MinLifetime.Seconds()),
		max:       float32(mod.MaxLifetime.Seconds()),
		boundSize: mod.BoundSize,
		types:     max(mod.Types, 1),
		rng:       rand.New(rand.NewSource(mod.Seed)),
	}
	for i := 0; i < store.Count(); i++ {
		lives.handles = append(lives.handles, store.HandleAt(i))
		lives.left = append(lives.left, lives.lifetime())
	}
	return lives
}

func (l *Lifetimes) lifetime() float32 {
	return l.min + l.rng.Float32()*(l.max-l.min)
}

// Runs before the frame pipeline, so the store is never mutated while the pipeline
// reads it.
func lifetimeSystem(t *Time, store *AnimationStore, lives *Lifetimes) error {
	dt := t.DeltaSeconds()
	if dt <= 0 {
		return nil
	}

	half := lives.boundSize / 2
	for i := range lives.handles {
		lives.left[i] -= dt
		if lives.left[i] > 0 {
			continue
		}
		if err := store.Despawn(lives.handles[i]); err != nil {
			return err
		}
		tr := IdentityTransform()
		tr.Rotation = SpawnRotation
		tr.Position[0] = lives.rng.Float32()*lives.boundSize - half
		tr.Position[1] = lives.rng.Float32()*lives.boundSize - half
		tr.Position[2] = lives.rng.Float32()*lives.boundSize - half
		lives.handles[i] = store.Spawn(PlaybackState{
			AnimationType: AnimationType(lives.rng.Intn(lives.types)),
		}, tr)
		lives.left[i] = lives.lifetime()
		lives.Recycled++
	}
	return nil
}
