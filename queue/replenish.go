package queue

const (
	// TargetDepth is the number of playlist sourced items Replenish fills the queue up to.
	TargetDepth = 100
	// LowWaterMark is the number of playlist sourced items below which the queue needs to be replenished.
	LowWaterMark = 20
)

func (e *Engine) playlistQueued() int {
	var count int
	for _, item := range e.queue {
		if item.Source == SourcePlaylist {
			count++
		}
	}
	return count
}

func (e *Engine) NeedsReplenish() bool {
	return len(e.playlist) > 0 && e.playlistQueued() < LowWaterMark
}

// MaybeReplenish calls Replenish if the queue fell below the low-water mark.
func (e *Engine) MaybeReplenish() int {
	if !e.NeedsReplenish() {
		return 0
	}
	return e.Replenish()
}

// Replenish appends playlist sourced items following the current position until the queue contains
// TargetDepth playlist sourced items and returns the number of added items. The playlist is only wrapped
// with RepeatAll.
//
// Tracks that are already queued or were played recently are skipped as long as other candidates remain.
// While offline, or on a low-data network with downloads prevented, only cached tracks are queued and the
// queue may stay below the target.
func (e *Engine) Replenish() int {
	need := TargetDepth - e.playlistQueued()
	if need <= 0 || e.length() == 0 {
		return 0
	}

	queued := make(map[string]struct{}, len(e.queue))
	for _, item := range e.queue {
		queued[item.Track.ID] = struct{}{}
	}

	eligible := e.candidates()
	added := 0
	add := func(pos int) {
		item := e.playlistItem(pos)
		e.queue = append(e.queue, item)
		queued[item.Track.ID] = struct{}{}
		added++
	}

	var skipped []int
	for _, pos := range eligible {
		if added == need {
			return added
		}
		id := e.playlist[e.playlistIndex(pos)].ID
		if _, ok := queued[id]; ok || e.env.recentlyPlayed(id) {
			skipped = append(skipped, pos)
			continue
		}
		add(pos)
	}

	if e.repeat == RepeatAll {
		// loop over the playlist, duplicates are acceptable now
		for len(eligible) > 0 && added < need {
			for _, pos := range eligible {
				if added == need {
					break
				}
				add(pos)
			}
		}
		return added
	}

	for _, pos := range skipped {
		if added == need {
			break
		}
		if _, ok := queued[e.playlist[e.playlistIndex(pos)].ID]; ok {
			continue
		}
		add(pos)
	}
	return added
}

// candidates returns the positions following the current one that may be queued, in playback order.
func (e *Engine) candidates() []int {
	n := e.length()
	count := n - 1 - e.position
	if e.repeat == RepeatAll {
		count = n
	}
	cachedOnly := e.env.cachedOnly()
	positions := make([]int, 0, max(count, 0))
	for i := 1; i <= count; i++ {
		pos := (e.position + i) % n
		if cachedOnly && !e.env.cached(e.playlist[e.playlistIndex(pos)].ID) {
			continue
		}
		positions = append(positions, pos)
	}
	return positions
}
