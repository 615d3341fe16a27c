package queue

import (
	"fmt"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/juho05/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetSeverity(log.NONE)
	os.Exit(m.Run())
}

func tracks(n int) []Track {
	list := make([]Track, n)
	for i := range list {
		list[i] = Track{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Track %d", i)}
	}
	return list
}

func newEngine(state State) *Engine {
	if state.PlaylistID == "" {
		state.PlaylistID = "pl_test"
	}
	return New(state, rand.New(rand.NewPCG(1, 2)))
}

func indices(items []Item) []int {
	list := make([]int, len(items))
	for i, item := range items {
		list[i] = item.Index
	}
	return list
}

func trackIDs(items []Item) []string {
	list := make([]string, len(items))
	for i, item := range items {
		list[i] = item.Track.ID
	}
	return list
}

func TestNext_sequential(t *testing.T) {
	tests := []struct {
		name    string
		repeat  RepeatMode
		current int
		want    int
		wantOK  bool
	}{
		{"middle", RepeatOff, 2, 3, true},
		{"end without repeat", RepeatOff, 4, 0, false},
		{"end with repeat all", RepeatAll, 4, 0, true},
		{"repeat one", RepeatOne, 2, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(State{Playlist: tracks(5), CurrentIndex: tt.current, Repeat: tt.repeat})
			assert.Equal(t, tt.wantOK, e.HasNext())
			item, ok := e.Next()
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				current, _ := e.Current()
				assert.Equal(t, tt.current, current.Index)
				return
			}
			assert.Equal(t, tt.want, item.Index)
			assert.Equal(t, fmt.Sprintf("t%d", tt.want), item.Track.ID)
			assert.Equal(t, SourcePlaylist, item.Source)
			assert.Equal(t, tt.want, e.State().CurrentIndex)
		})
	}
}

func TestPrevious_sequential(t *testing.T) {
	tests := []struct {
		name    string
		repeat  RepeatMode
		current int
		want    int
		wantOK  bool
	}{
		{"middle", RepeatOff, 3, 2, true},
		{"start without repeat", RepeatOff, 0, 0, false},
		{"start with repeat all", RepeatAll, 0, 4, true},
		{"start with repeat one", RepeatOne, 0, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(State{Playlist: tracks(5), CurrentIndex: tt.current, Repeat: tt.repeat})
			assert.Equal(t, tt.wantOK, e.HasPrevious())
			item, ok := e.Previous()
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, item.Index)
			}
		})
	}
}

func TestNavigation_emptyPlaylist(t *testing.T) {
	e := newEngine(State{Repeat: RepeatAll})
	_, ok := e.Next()
	assert.False(t, ok)
	_, ok = e.Previous()
	assert.False(t, ok)
	_, ok = e.Current()
	assert.False(t, ok)
	assert.False(t, e.HasNext())
	assert.False(t, e.HasPrevious())
	assert.Equal(t, 0, e.Replenish())
	assert.False(t, e.NeedsReplenish())
}

func TestNext_shuffle(t *testing.T) {
	e := newEngine(State{
		Playlist:     tracks(5),
		Shuffle:      true,
		ShuffleOrder: []int{2, 4, 0, 3, 1},
		CurrentIndex: 0,
	})
	item, ok := e.Next()
	require.True(t, ok)
	assert.Equal(t, 4, item.Index)
	assert.Equal(t, 1, e.State().CurrentIndex)

	var got []int
	for e.HasNext() {
		item, _ := e.Next()
		got = append(got, item.Index)
	}
	assert.Equal(t, []int{0, 3, 1}, got)

	e.SetRepeatMode(RepeatAll)
	item, ok = e.Next()
	require.True(t, ok)
	assert.Equal(t, 2, item.Index)
}

func TestNext_invalidShuffleOrderIsSequential(t *testing.T) {
	tests := []struct {
		name  string
		order []int
	}{
		{"empty", nil},
		{"too short", []int{1, 0}},
		{"duplicate", []int{0, 0, 1}},
		{"out of range", []int{0, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(State{Playlist: tracks(3), Shuffle: true, ShuffleOrder: tt.order})
			item, ok := e.Next()
			require.True(t, ok)
			assert.Equal(t, 1, item.Index)
			item, ok = e.Previous()
			require.True(t, ok)
			assert.Equal(t, 0, item.Index)
		})
	}
}

func TestSetShuffle(t *testing.T) {
	e := newEngine(State{Playlist: tracks(10), CurrentIndex: 3, Repeat: RepeatAll})
	e.SetShuffle(true)
	order := e.ShuffleOrder()
	require.True(t, isPermutation(order, 10))
	assert.Equal(t, 3, order[0])
	assert.Equal(t, 0, e.State().CurrentIndex)
	current, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, 3, current.Index)

	item, ok := e.Next()
	require.True(t, ok)
	assert.Equal(t, order[1], item.Index)

	e.SetShuffle(false)
	assert.Empty(t, e.ShuffleOrder())
	assert.Equal(t, order[1], e.State().CurrentIndex)
	item, ok = e.Next()
	require.True(t, ok)
	assert.Equal(t, (order[1]+1)%10, item.Index)
}

func TestShuffleOrder_isPermutationWithCurrentFirst(t *testing.T) {
	for n := 1; n <= 20; n++ {
		for seed := range uint64(5) {
			current := int(seed) % n
			e := New(State{Playlist: tracks(n), CurrentIndex: current}, rand.New(rand.NewPCG(seed, uint64(n))))
			e.SetShuffle(true)
			order := e.ShuffleOrder()
			assert.True(t, isPermutation(order, n), "n=%d seed=%d order=%v", n, seed, order)
			assert.Equal(t, current, order[0])
		}
	}
}

func TestSetPlaylist(t *testing.T) {
	e := newEngine(State{Playlist: tracks(3)})
	e.AddToQueue(Track{ID: "manual"}, "pl_other", 7)
	e.EnqueueFromPlaylist(1)

	e.SetPlaylist("pl_new", tracks(6), 4)
	assert.Equal(t, []string{"manual"}, trackIDs(e.Queue()))
	current, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "pl_new", current.PlaylistID)
	assert.Equal(t, 4, current.Index)

	e.SetShuffle(true)
	e.SetPlaylist("pl_new", tracks(6), 2)
	assert.Equal(t, 2, e.ShuffleOrder()[0])
}

func TestNext_queueTakesPriority(t *testing.T) {
	e := newEngine(State{Playlist: tracks(10), CurrentIndex: 0})
	e.EnqueueFromPlaylist(5)
	e.AddToQueue(Track{ID: "elsewhere"}, "pl_other", 3)

	item, ok := e.Next()
	require.True(t, ok)
	assert.Equal(t, "elsewhere", item.Track.ID)
	assert.Equal(t, SourceManual, item.Source)
	assert.Equal(t, 0, e.State().CurrentIndex)
	current, _ := e.Current()
	assert.Equal(t, "elsewhere", current.Track.ID)

	item, ok = e.Next()
	require.True(t, ok)
	assert.Equal(t, 5, item.Index)
	assert.Equal(t, 5, e.State().CurrentIndex)

	item, ok = e.Next()
	require.True(t, ok)
	assert.Equal(t, 6, item.Index)
}

func TestNext_repeatOneStillConsumesQueue(t *testing.T) {
	e := newEngine(State{Playlist: tracks(3), Repeat: RepeatOne})
	e.AddToQueue(Track{ID: "manual"}, "", 0)
	assert.True(t, e.HasNext())
	item, ok := e.Next()
	require.True(t, ok)
	assert.Equal(t, "manual", item.Track.ID)
	assert.False(t, e.HasNext())
}

func TestPrevious_shuffleHistory(t *testing.T) {
	e := newEngine(State{Playlist: tracks(5), Shuffle: true, ShuffleOrder: []int{2, 4, 0, 3, 1}})
	e.AddToHistory(Item{Track: Track{ID: "t3"}, PlaylistID: "pl_test", Index: 3, Source: SourcePlaylist})
	e.AddToHistory(Item{Track: Track{ID: "other"}, PlaylistID: "pl_other", Index: 1, Source: SourceManual})

	item, ok := e.Previous()
	require.True(t, ok)
	assert.Equal(t, "other", item.Track.ID)
	assert.Len(t, e.History(), 1)
	assert.Equal(t, 0, e.State().CurrentIndex)

	item, ok = e.Previous()
	require.True(t, ok)
	assert.Equal(t, "t3", item.Track.ID)
	assert.Empty(t, e.History())
	assert.Equal(t, 3, e.State().CurrentIndex)

	item, ok = e.Next()
	require.True(t, ok)
	assert.Equal(t, 1, item.Index)
}

func TestPrevious_shuffleWithoutHistory(t *testing.T) {
	for seed := range uint64(50) {
		e := New(State{Playlist: tracks(4), Shuffle: true, ShuffleOrder: []int{2, 0, 3, 1}, CurrentIndex: 2}, rand.New(rand.NewPCG(seed, 7)))
		item, ok := e.Previous()
		require.True(t, ok)
		assert.NotEqual(t, 3, item.Index)
		assert.GreaterOrEqual(t, item.Index, 0)
		assert.Less(t, item.Index, 4)
		current, _ := e.Current()
		assert.Equal(t, item.Index, current.Index)
		assert.Equal(t, item.Index, e.ShuffleOrder()[e.State().CurrentIndex])
	}

	e := newEngine(State{Playlist: tracks(1), Shuffle: true, ShuffleOrder: []int{0}})
	assert.False(t, e.HasPrevious())
	_, ok := e.Previous()
	assert.False(t, ok)
}

func TestHistory(t *testing.T) {
	e := newEngine(State{})
	for i := range 150 {
		e.AddToHistory(Item{Track: Track{ID: fmt.Sprintf("h%d", i)}})
	}
	history := e.History()
	require.Len(t, history, 100)
	assert.Equal(t, "h50", history[0].Track.ID)
	assert.Equal(t, "h149", history[99].Track.ID)

	e.ClearHistory()
	assert.Empty(t, e.History())
}

func TestQueue_manualItemsGoFirst(t *testing.T) {
	e := newEngine(State{Playlist: tracks(5)})
	e.EnqueueFromPlaylist(1)
	e.EnqueueFromPlaylist(2)
	e.AddToQueue(Track{ID: "m1"}, "pl_other", 0)
	assert.Equal(t, []string{"m1", "t1", "t2"}, trackIDs(e.Queue()))

	e.AddToQueue(Track{ID: "m2"}, "pl_other", 1)
	assert.Equal(t, []string{"m1", "m2", "t1", "t2"}, trackIDs(e.Queue()))
}

func TestQueue_removeAndMove(t *testing.T) {
	e := newEngine(State{Playlist: tracks(5)})
	for i := range 4 {
		e.EnqueueFromPlaylist(i)
	}
	e.EnqueueFromPlaylist(-1)
	e.EnqueueFromPlaylist(5)

	e.RemoveFromQueue(-1)
	e.RemoveFromQueue(4)
	e.MoveQueueItem(0, 4)
	e.MoveQueueItem(-1, 0)
	assert.Equal(t, []int{0, 1, 2, 3}, indices(e.Queue()))

	e.MoveQueueItem(0, 2)
	assert.Equal(t, []int{1, 2, 0, 3}, indices(e.Queue()))
	e.MoveQueueItem(3, 0)
	assert.Equal(t, []int{3, 1, 2, 0}, indices(e.Queue()))
	e.RemoveFromQueue(1)
	assert.Equal(t, []int{3, 2, 0}, indices(e.Queue()))
}

func TestQueue_clear(t *testing.T) {
	e := newEngine(State{Playlist: tracks(5)})
	e.EnqueueFromPlaylist(1)
	e.AddToQueue(Track{ID: "m1"}, "", 0)
	e.EnqueueFromPlaylist(2)

	e.ClearQueue()
	assert.Equal(t, []string{"m1"}, trackIDs(e.Queue()))
	e.ClearAllQueue()
	assert.Empty(t, e.Queue())
}

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestReplenish(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		wantLen  int
		wantHead []int
	}{
		{
			name:     "stops at the end without repeat",
			state:    State{Playlist: tracks(10), CurrentIndex: 2, Environment: Environment{Online: true}},
			wantLen:  7,
			wantHead: []int{3, 4, 5, 6, 7, 8, 9},
		},
		{
			name:    "repeat one does not wrap",
			state:   State{Playlist: tracks(10), CurrentIndex: 8, Repeat: RepeatOne, Environment: Environment{Online: true}},
			wantLen: 1,
		},
		{
			name:     "wraps with repeat all",
			state:    State{Playlist: tracks(300), CurrentIndex: 250, Repeat: RepeatAll, Environment: Environment{Online: true}},
			wantLen:  100,
			wantHead: []int{251, 252},
		},
		{
			name:     "small playlist loops with repeat all",
			state:    State{Playlist: tracks(3), Repeat: RepeatAll, Environment: Environment{Online: true}},
			wantLen:  100,
			wantHead: []int{1, 2, 0, 1, 2, 0},
		},
		{
			name: "recently played tracks come last",
			state: State{Playlist: tracks(6), Environment: Environment{
				Online:            true,
				RecentlyPlayedIDs: set("t1", "t2"),
			}},
			wantLen:  5,
			wantHead: []int{3, 4, 5, 1, 2},
		},
		{
			name: "recently played tracks loop with repeat all",
			state: State{Playlist: tracks(4), Repeat: RepeatAll, Environment: Environment{
				Online:            true,
				RecentlyPlayedIDs: set("t0", "t1", "t2", "t3"),
			}},
			wantLen:  100,
			wantHead: []int{1, 2, 3, 0},
		},
		{
			name:     "follows the shuffle order",
			state:    State{Playlist: tracks(5), Shuffle: true, ShuffleOrder: []int{2, 4, 0, 3, 1}, Environment: Environment{Online: true}},
			wantLen:  4,
			wantHead: []int{4, 0, 3, 1},
		},
		{
			name: "offline only queues cached tracks",
			state: State{Playlist: tracks(6), Repeat: RepeatOff, Environment: Environment{
				Online:         false,
				CachedTrackIDs: set("t2", "t5"),
			}},
			wantLen:  2,
			wantHead: []int{2, 5},
		},
		{
			name:  "offline without cached tracks",
			state: State{Playlist: tracks(6), Repeat: RepeatAll},
		},
		{
			name: "low data with prevented downloads",
			state: State{Playlist: tracks(4), Environment: Environment{
				Online:                   true,
				Network:                  NetworkLowData,
				PreventDownloadOnLowData: true,
				CachedTrackIDs:           set("t3"),
			}},
			wantLen:  1,
			wantHead: []int{3},
		},
		{
			name: "low data with allowed downloads",
			state: State{Playlist: tracks(4), Environment: Environment{
				Online:  true,
				Network: NetworkLowData,
			}},
			wantLen:  3,
			wantHead: []int{1, 2, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(tt.state)
			added := e.Replenish()
			queue := e.Queue()
			assert.Equal(t, tt.wantLen, added)
			assert.Len(t, queue, tt.wantLen)
			if len(tt.wantHead) > 0 {
				assert.Equal(t, tt.wantHead, indices(queue[:len(tt.wantHead)]))
			}
			for _, item := range queue {
				assert.Equal(t, SourcePlaylist, item.Source)
				assert.Equal(t, "pl_test", item.PlaylistID)
				if tt.state.Environment.cachedOnly() {
					assert.Contains(t, tt.state.CachedTrackIDs, item.Track.ID)
				}
			}
		})
	}
}

func TestReplenish_offlineRepeatAllOnlyCached(t *testing.T) {
	e := newEngine(State{Playlist: tracks(5), Repeat: RepeatAll, Environment: Environment{
		CachedTrackIDs: set("t1", "t3"),
	}})
	assert.Equal(t, 100, e.Replenish())
	for _, item := range e.Queue() {
		assert.Contains(t, []string{"t1", "t3"}, item.Track.ID)
	}
}

func TestReplenish_skipsQueuedTracks(t *testing.T) {
	e := newEngine(State{Playlist: tracks(6), Environment: Environment{Online: true}})
	e.AddToQueue(Track{ID: "t4"}, "pl_test", 4)
	assert.Equal(t, 4, e.Replenish())
	assert.Equal(t, []string{"t4", "t1", "t2", "t3", "t5"}, trackIDs(e.Queue()))
}

func TestReplenish_neverExceedsTarget(t *testing.T) {
	e := newEngine(State{Playlist: tracks(500), Repeat: RepeatAll, Environment: Environment{Online: true}})
	for i := range 30 {
		e.AddToQueue(Track{ID: fmt.Sprintf("m%d", i)}, "", 0)
	}
	for i := range 90 {
		e.EnqueueFromPlaylist(i + 1)
	}
	assert.Equal(t, 10, e.Replenish())
	assert.Equal(t, 0, e.Replenish())
	assert.Len(t, e.Queue(), 130)
	assert.Equal(t, 100, e.playlistQueued())
}

func TestMaybeReplenish(t *testing.T) {
	e := newEngine(State{Playlist: tracks(200), Environment: Environment{Online: true}})
	assert.True(t, e.NeedsReplenish())
	assert.Equal(t, 100, e.MaybeReplenish())
	assert.False(t, e.NeedsReplenish())
	assert.Equal(t, 0, e.MaybeReplenish())

	for range 81 {
		_, ok := e.Next()
		require.True(t, ok)
	}
	assert.Equal(t, 81, e.State().CurrentIndex)
	assert.True(t, e.NeedsReplenish())
	assert.Equal(t, 81, e.MaybeReplenish())
	queue := e.Queue()
	assert.Equal(t, 82, queue[0].Index)
	assert.Equal(t, 101, queue[19].Index)
	assert.Equal(t, 181, queue[len(queue)-1].Index)
}

func TestState_restore(t *testing.T) {
	e := newEngine(State{Playlist: tracks(8), CurrentIndex: 2, Repeat: RepeatAll, Environment: Environment{Online: true}})
	e.SetShuffle(true)
	_, ok := e.Next()
	require.True(t, ok)
	e.AddToQueue(Track{ID: "m"}, "", 0)
	e.AddToHistory(Item{Track: Track{ID: "t0"}, PlaylistID: "pl_test"})

	state := e.State()
	restored := New(state, nil)
	assert.Equal(t, state, restored.State())
	assert.Equal(t, e.ShuffleOrder(), restored.ShuffleOrder())
	assert.Equal(t, RepeatAll, restored.RepeatMode())
}
