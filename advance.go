package crowd

// AdvancePlayback applies one frame of the round-robin rule. The transition test uses
// the type active before the step: a finished animation switches to the next type at
// keyframe 0, otherwise the keyframe moves forward by dt.
func AdvancePlayback(state PlaybackState, dt float32, lengths AnimationLengthTable) PlaybackState {
	if state.CurrentKeyFrame >= lengths.Length(state.AnimationType) {
		return PlaybackState{
			CurrentKeyFrame: 0,
			AnimationType:   lengths.Next(state.AnimationType),
		}
	}
	state.CurrentKeyFrame += dt
	return state
}

// AdvanceStage advances every live instance in place. It writes only the store and
// may run alongside BucketStage, which reads only the snapshot.
func AdvanceStage(group *JobGroup, store *AnimationStore, dt float32, lengths AnimationLengthTable, batch int) {
	group.Schedule(store.Count(), batch, func(start, end int) {
		play := store.playback[start:end]
		for i := range play {
			play[i] = AdvancePlayback(play[i], dt, lengths)
		}
	})
}
