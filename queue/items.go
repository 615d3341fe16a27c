package queue

import "slices"

const historyLimit = 100

// Queue returns a copy of the lookahead queue.
func (e *Engine) Queue() []Item {
	return slices.Clone(e.queue)
}

// AddToQueue queues a track behind all other manually added items and in front of all playlist sourced items.
func (e *Engine) AddToQueue(track Track, playlistID string, index int) {
	item := Item{
		Track:      track,
		PlaylistID: playlistID,
		Index:      index,
		Source:     SourceManual,
	}
	pos := 0
	for i, q := range e.queue {
		if q.Source == SourceManual {
			pos = i + 1
		}
	}
	e.queue = slices.Insert(e.queue, pos, item)
}

// EnqueueFromPlaylist appends a playlist sourced item for the track at index of the current playlist.
// Invalid indices are ignored.
func (e *Engine) EnqueueFromPlaylist(index int) {
	if index < 0 || index >= len(e.playlist) {
		return
	}
	e.queue = append(e.queue, Item{
		Track:      e.playlist[index],
		PlaylistID: e.playlistID,
		Index:      index,
		Source:     SourcePlaylist,
	})
}

func (e *Engine) RemoveFromQueue(i int) {
	if i < 0 || i >= len(e.queue) {
		return
	}
	e.queue = slices.Delete(e.queue, i, i+1)
}

func (e *Engine) MoveQueueItem(from, to int) {
	if from < 0 || from >= len(e.queue) || to < 0 || to >= len(e.queue) || from == to {
		return
	}
	item := e.queue[from]
	e.queue = slices.Delete(e.queue, from, from+1)
	e.queue = slices.Insert(e.queue, to, item)
}

// ClearQueue removes all playlist sourced items. Manually added items are kept.
func (e *Engine) ClearQueue() {
	e.queue = slices.DeleteFunc(e.queue, func(item Item) bool {
		return item.Source == SourcePlaylist
	})
}

func (e *Engine) ClearAllQueue() {
	e.queue = nil
}

// AddToHistory appends item to the history. Only the newest 100 items are kept.
func (e *Engine) AddToHistory(item Item) {
	e.history = append(e.history, item)
	if len(e.history) > historyLimit {
		e.history = slices.Clone(e.history[len(e.history)-historyLimit:])
	}
}

func (e *Engine) ClearHistory() {
	e.history = nil
}

// History returns a copy of the history, oldest item first.
func (e *Engine) History() []Item {
	return slices.Clone(e.history)
}
