// Package queue implements the play queue of a client: sequential and shuffled navigation over a playlist,
// a lookahead queue of manual and playlist sourced items and a bounded play history.
//
// An Engine has exactly one logical caller and does no locking.
package queue

import (
	"math/rand/v2"

	"github.com/juho05/log"
)

type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

type NetworkType string

const (
	NetworkNormal  NetworkType = "normal"
	NetworkLowData NetworkType = "low-data"
	NetworkUnknown NetworkType = "unknown"
)

type Source string

const (
	SourceManual   Source = "manual"
	SourcePlaylist Source = "playlist"
)

type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type Item struct {
	Track      Track  `json:"track"`
	PlaylistID string `json:"playlistId,omitempty"`
	// Index is the position of the track in the playlist it was taken from.
	Index  int    `json:"index"`
	Source Source `json:"source"`
}

// Environment describes the client. Sets may be nil.
type Environment struct {
	CachedTrackIDs           map[string]struct{} `json:"-"`
	RecentlyPlayedIDs        map[string]struct{} `json:"-"`
	Online                   bool                `json:"online"`
	Network                  NetworkType         `json:"network"`
	PreventDownloadOnLowData bool                `json:"preventDownloadOnLowData"`
}

// cachedOnly reports whether only cached tracks may be queued.
func (e Environment) cachedOnly() bool {
	return !e.Online || (e.Network == NetworkLowData && e.PreventDownloadOnLowData)
}

func (e Environment) cached(id string) bool {
	_, ok := e.CachedTrackIDs[id]
	return ok
}

func (e Environment) recentlyPlayed(id string) bool {
	_, ok := e.RecentlyPlayedIDs[id]
	return ok
}

// State is the persistable state of an Engine. CurrentIndex is a position in ShuffleOrder if Shuffle is set
// and ShuffleOrder is not empty, otherwise an index into Playlist.
type State struct {
	PlaylistID   string     `json:"playlistId"`
	Playlist     []Track    `json:"playlist"`
	CurrentIndex int        `json:"currentIndex"`
	Shuffle      bool       `json:"shuffle"`
	ShuffleOrder []int      `json:"shuffleOrder,omitempty"`
	Repeat       RepeatMode `json:"repeat"`
	Queue        []Item     `json:"queue"`
	History      []Item     `json:"history"`
	Environment
}

type Engine struct {
	playlistID string
	playlist   []Track
	// position in shuffleOrder if shuffled, otherwise in playlist
	position     int
	shuffle      bool
	shuffleOrder []int
	repeat       RepeatMode
	queue        []Item
	history      []Item
	env          Environment

	// current is the item returned by the last call to Next or Previous.
	current *Item

	rng *rand.Rand
}

// New creates an engine from state. rng may be nil.
func New(state State, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e := &Engine{
		playlistID:   state.PlaylistID,
		playlist:     append([]Track(nil), state.Playlist...),
		position:     state.CurrentIndex,
		shuffle:      state.Shuffle,
		shuffleOrder: append([]int(nil), state.ShuffleOrder...),
		repeat:       state.Repeat,
		queue:        append([]Item(nil), state.Queue...),
		env:          state.Environment,
		rng:          rng,
	}
	if e.repeat == "" {
		e.repeat = RepeatOff
	}
	if e.shuffle && len(e.shuffleOrder) > 0 && !isPermutation(e.shuffleOrder, len(e.playlist)) {
		log.Warnf("queue: discarding invalid shuffle order of playlist %s", e.playlistID)
		e.shuffleOrder = nil
	}
	for _, item := range state.History {
		e.AddToHistory(item)
	}
	if e.position < 0 || e.position >= e.length() {
		e.position = 0
	}
	return e
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	return State{
		PlaylistID:   e.playlistID,
		Playlist:     append([]Track(nil), e.playlist...),
		CurrentIndex: e.position,
		Shuffle:      e.shuffle,
		ShuffleOrder: append([]int(nil), e.shuffleOrder...),
		Repeat:       e.repeat,
		Queue:        e.Queue(),
		History:      e.History(),
		Environment:  e.env,
	}
}

func (e *Engine) SetEnvironment(env Environment) {
	e.env = env
}

func (e *Engine) SetRepeatMode(mode RepeatMode) {
	e.repeat = mode
}

func (e *Engine) RepeatMode() RepeatMode {
	return e.repeat
}

// SetPlaylist replaces the playlist and starts at index. Playlist sourced queue items of the previous
// playlist are removed.
func (e *Engine) SetPlaylist(id string, tracks []Track, index int) {
	e.playlistID = id
	e.playlist = append([]Track(nil), tracks...)
	e.ClearQueue()
	if index < 0 || index >= len(e.playlist) {
		index = 0
	}
	e.position = index
	e.current = nil
	if e.shuffle {
		e.generateShuffleOrder(index)
	}
	if len(e.playlist) > 0 {
		current := e.playlistItem(e.position)
		e.current = &current
	}
}

// SetShuffle enables or disables shuffle mode. Enabling generates a new shuffle order starting with the
// current track, disabling continues sequentially from the current track.
func (e *Engine) SetShuffle(enabled bool) {
	if enabled == e.shuffle {
		return
	}
	index := e.playlistIndex(e.position)
	e.shuffle = enabled
	if enabled {
		e.generateShuffleOrder(index)
		return
	}
	e.shuffleOrder = nil
	e.position = max(index, 0)
}

func (e *Engine) Shuffle() bool {
	return e.shuffle
}

// ShuffleOrder returns a copy of the current shuffle order.
func (e *Engine) ShuffleOrder() []int {
	return append([]int(nil), e.shuffleOrder...)
}

// generateShuffleOrder creates a random permutation of the playlist indices with current placed first.
func (e *Engine) generateShuffleOrder(current int) {
	n := len(e.playlist)
	e.shuffleOrder = make([]int, n)
	for i := range n {
		e.shuffleOrder[i] = i
	}
	// Fisher-Yates
	for i := n - 1; i > 0; i-- {
		j := e.rng.IntN(i + 1)
		e.shuffleOrder[i], e.shuffleOrder[j] = e.shuffleOrder[j], e.shuffleOrder[i]
	}
	for i, idx := range e.shuffleOrder {
		if idx == current {
			e.shuffleOrder[0], e.shuffleOrder[i] = e.shuffleOrder[i], e.shuffleOrder[0]
			break
		}
	}
	e.position = 0
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

// shuffled reports whether navigation follows the shuffle order. An empty order falls back to the
// playlist order.
func (e *Engine) shuffled() bool {
	return e.shuffle && len(e.shuffleOrder) > 0
}

func (e *Engine) length() int {
	if e.shuffled() {
		return len(e.shuffleOrder)
	}
	return len(e.playlist)
}

// playlistIndex maps a position to an index into playlist. It returns -1 for invalid positions.
func (e *Engine) playlistIndex(position int) int {
	if position < 0 || position >= e.length() {
		return -1
	}
	if e.shuffled() {
		return e.shuffleOrder[position]
	}
	return position
}

// positionOf is the inverse of playlistIndex.
func (e *Engine) positionOf(index int) int {
	if !e.shuffled() {
		if index < 0 || index >= len(e.playlist) {
			return -1
		}
		return index
	}
	for pos, i := range e.shuffleOrder {
		if i == index {
			return pos
		}
	}
	return -1
}

func (e *Engine) playlistItem(position int) Item {
	index := e.playlistIndex(position)
	return Item{
		Track:      e.playlist[index],
		PlaylistID: e.playlistID,
		Index:      index,
		Source:     SourcePlaylist,
	}
}

// Current returns the item returned by the last navigation or the track at the current position.
func (e *Engine) Current() (Item, bool) {
	if e.current != nil {
		return *e.current, true
	}
	if e.playlistIndex(e.position) < 0 {
		return Item{}, false
	}
	return e.playlistItem(e.position), true
}

// setCurrent makes item the current item and moves the position to it if it belongs to the playlist.
func (e *Engine) setCurrent(item Item) {
	e.current = &item
	if item.PlaylistID != e.playlistID || item.Index < 0 || item.Index >= len(e.playlist) || e.playlist[item.Index].ID != item.Track.ID {
		return
	}
	if pos := e.positionOf(item.Index); pos >= 0 {
		e.position = pos
	}
}

// Next advances to and returns the next item. Items in the queue take priority over the playlist.
// RepeatOne never yields a next track.
func (e *Engine) Next() (Item, bool) {
	if len(e.queue) > 0 {
		item := e.queue[0]
		e.queue = e.queue[1:]
		e.setCurrent(item)
		return item, true
	}
	pos, ok := e.nextPosition()
	if !ok {
		return Item{}, false
	}
	e.position = pos
	item := e.playlistItem(pos)
	e.current = &item
	return item, true
}

func (e *Engine) nextPosition() (int, bool) {
	n := e.length()
	if n == 0 || e.repeat == RepeatOne {
		return 0, false
	}
	next := e.position + 1
	if next < n {
		return next, true
	}
	if e.repeat == RepeatAll {
		return 0, true
	}
	return 0, false
}

func (e *Engine) HasNext() bool {
	if len(e.queue) > 0 {
		return true
	}
	_, ok := e.nextPosition()
	return ok
}

// Previous moves back and returns the previous item. In shuffle mode the history is consumed first,
// without history a random track other than the current one is chosen.
func (e *Engine) Previous() (Item, bool) {
	if e.shuffled() {
		if len(e.history) > 0 {
			item := e.history[len(e.history)-1]
			e.history = e.history[:len(e.history)-1]
			e.setCurrent(item)
			return item, true
		}
		n := len(e.playlist)
		if n < 2 {
			return Item{}, false
		}
		current := e.playlistIndex(e.position)
		index := e.rng.IntN(n - 1)
		if index >= current {
			index++
		}
		e.position = e.positionOf(index)
		item := e.playlistItem(e.position)
		e.current = &item
		return item, true
	}

	pos, ok := e.previousPosition()
	if !ok {
		return Item{}, false
	}
	e.position = pos
	item := e.playlistItem(pos)
	e.current = &item
	return item, true
}

func (e *Engine) previousPosition() (int, bool) {
	n := e.length()
	if n == 0 {
		return 0, false
	}
	if e.position > 0 {
		return e.position - 1, true
	}
	if e.repeat != RepeatOff {
		return n - 1, true
	}
	return 0, false
}

func (e *Engine) HasPrevious() bool {
	if e.shuffled() {
		return len(e.history) > 0 || len(e.playlist) > 1
	}
	_, ok := e.previousPosition()
	return ok
}
