package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juho05/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/audiotags"
	"github.com/juho05/melodeon/cache"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/config"
	"github.com/juho05/melodeon/ffmpeg"
	"github.com/juho05/melodeon/playlists"
	"github.com/juho05/melodeon/util"
)

func TestMain(m *testing.M) {
	log.SetSeverity(log.NONE)
	os.Exit(m.Run())
}

type tagSpy struct {
	mu       sync.Mutex
	reads    atomic.Int64
	metadata map[string]*audiotags.Metadata
	failing  map[string]bool
	panics   map[string]bool
	written  map[string]audiotags.ReplayGain
}

func newTagSpy() *tagSpy {
	return &tagSpy{
		metadata: make(map[string]*audiotags.Metadata),
		failing:  make(map[string]bool),
		panics:   make(map[string]bool),
		written:  make(map[string]audiotags.ReplayGain),
	}
}

func (t *tagSpy) Read(path string) (*audiotags.Metadata, error) {
	t.reads.Add(1)
	t.mu.Lock()
	defer t.mu.Unlock()
	name := filepath.Base(path)
	if t.failing[name] {
		return nil, errors.New("corrupt file")
	}
	if t.panics[name] {
		panic("malformed frame")
	}
	if m, ok := t.metadata[name]; ok {
		copied := *m
		return &copied, nil
	}
	return &audiotags.Metadata{
		Title:      name,
		Artist:     "Artist",
		Album:      "Album",
		Properties: audiotags.AudioProperties{LengthMs: 61_400, BitRate: 320},
	}, nil
}

func (t *tagSpy) ReadReplayGain(path string) (audiotags.ReplayGain, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written[filepath.Base(path)], nil
}

func (t *tagSpy) WriteReplayGain(path string, rg audiotags.ReplayGain) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written[filepath.Base(path)] = rg
	return nil
}

type fakeAnalyzer struct {
	calls    atomic.Int64
	loudness ffmpeg.Loudness
	err      error
	panics   bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, path string) (ffmpeg.Loudness, error) {
	f.calls.Add(1)
	if f.panics {
		panic("analyzer crashed")
	}
	return f.loudness, f.err
}

type memoryStore struct {
	mu       sync.Mutex
	snapshot *cache.Snapshot
	saves    int
}

func (m *memoryStore) Load(ctx context.Context) (*cache.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil, cache.ErrNotFound
	}
	return m.snapshot, nil
}

func (m *memoryStore) Save(ctx context.Context, snapshot *cache.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot
	m.saves++
	return nil
}

type fixture struct {
	root    string
	tags    *tagSpy
	store   *memoryStore
	scanner *Scanner
}

func newFixture(t *testing.T, loudness LoudnessAnalyzer, files ...string) *fixture {
	f := &fixture{
		root:  t.TempDir(),
		tags:  newTagSpy(),
		store: &memoryStore{},
	}
	for _, file := range files {
		f.write(t, file, "audio data")
	}
	var err error
	f.scanner, err = New(Options{
		MusicDir:         f.root,
		Store:            f.store,
		Tags:             f.tags,
		Loudness:         loudness,
		Workers:          4,
		CoverArtPriority: []string{"cover.*", "folder.*", config.CoverArtPriorityEmbedded},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) write(t *testing.T, relPath, content string) string {
	path := filepath.Join(f.root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func titles(songs []*catalog.Song) []string {
	return util.Map(songs, func(s *catalog.Song) string { return s.Title })
}

func TestScan(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "Artist/Album/b.flac", ".hidden.mp3", ".hidden/c.mp3", "notes.txt")
	f.tags.metadata["b.flac"] = &audiotags.Metadata{
		Title:    "B",
		Artist:   "Someone",
		Album:    "Record",
		Track:    2,
		HasImage: true,
		ReplayGain: audiotags.ReplayGain{
			TrackGain: util.ToPtr(-4.5),
		},
	}

	require.NoError(t, f.scanner.Scan(context.Background(), false))

	snapshot := f.scanner.Catalog()
	assert.Equal(t, []string{"B", "a.mp3"}, titles(snapshot.Songs()))
	song, err := snapshot.Song(melodeon.SongID("Artist/Album/b.flac"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.root, "Artist", "Album", "b.flac"), song.Path)
	assert.Equal(t, "audio/flac", song.ContentType)
	assert.Equal(t, int64(len("audio data")), song.Size)
	assert.Equal(t, -4.5, *song.TrackGain)
	assert.True(t, song.HasEmbeddedCover)

	a, ok := snapshot.SongByPath("a.mp3")
	require.True(t, ok)
	assert.Equal(t, 61, a.Duration)
	assert.Equal(t, 320, a.BitRate)

	assert.Equal(t, int64(2), f.tags.reads.Load())
	require.NotNil(t, f.store.snapshot)
	assert.Len(t, f.store.snapshot.Songs, 2)

	status := f.scanner.Status()
	assert.False(t, status.Scanning)
	assert.Equal(t, 2, status.Processed)
	assert.Equal(t, 2, status.Total)
	assert.Nil(t, status.LastError)
	assert.Equal(t, 1.0, status.Fraction())
}

func TestScan_unchangedTreeDoesNotReadTags(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "b/c.mp3", "b/d.flac")
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	require.Equal(t, int64(3), f.tags.reads.Load())
	first := f.scanner.Catalog()

	require.NoError(t, f.scanner.Scan(context.Background(), false))
	assert.Equal(t, int64(3), f.tags.reads.Load())
	second := f.scanner.Catalog()
	assert.Equal(t, first.Songs(), second.Songs())
	assert.Equal(t, first.Albums(), second.Albums())

	// a fresh scanner on the persisted cache behaves the same
	s, err := New(Options{MusicDir: f.root, Store: f.store, Tags: f.tags})
	require.NoError(t, err)
	require.NoError(t, s.Scan(context.Background(), false))
	assert.Equal(t, int64(3), f.tags.reads.Load())
	assert.Equal(t, 3, s.Catalog().SongCount())

	require.NoError(t, f.scanner.Scan(context.Background(), true))
	assert.Equal(t, int64(6), f.tags.reads.Load())
}

func TestScan_changeDetection(t *testing.T) {
	base := time.Now().Truncate(time.Second).Add(-time.Hour)
	tests := []struct {
		name       string
		cachedTime time.Time
		liveTime   time.Time
		cachedSize int64
		wantRead   bool
	}{
		{"same second, sub-second difference", base.Add(200 * time.Millisecond), base.Add(700 * time.Millisecond), 10, false},
		{"cached newer", base.Add(time.Minute), base, 10, false},
		{"live newer", base, base.Add(time.Second), 10, true},
		{"size changed", base, base, 11, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			path := f.write(t, "a.mp3", "0123456789")
			require.NoError(t, os.Chtimes(path, tt.liveTime, tt.liveTime))
			f.store.snapshot = &cache.Snapshot{
				Version: cache.Version,
				Songs: []cache.SongRecord{{
					RelativePath: "a.mp3",
					Size:         tt.cachedSize,
					LastModified: tt.cachedTime,
					Title:        "Cached",
				}},
			}

			require.NoError(t, f.scanner.Scan(context.Background(), false))

			song, ok := f.scanner.Catalog().SongByPath("a.mp3")
			require.True(t, ok)
			if tt.wantRead {
				assert.Equal(t, int64(1), f.tags.reads.Load())
				assert.Equal(t, "a.mp3", song.Title)
			} else {
				assert.Equal(t, int64(0), f.tags.reads.Load())
				assert.Equal(t, "Cached", song.Title)
			}
		})
	}
}

func TestScan_tagReadFailureFallsBackToFileName(t *testing.T) {
	f := newFixture(t, nil, "dir/01 - Broken Song.mp3")
	f.tags.failing["01 - Broken Song.mp3"] = true
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	song, ok := f.scanner.Catalog().SongByPath("dir/01 - Broken Song.mp3")
	require.True(t, ok)
	assert.Equal(t, "01 - Broken Song", song.Title)
	assert.Empty(t, song.Artist)
}

func TestScan_tagReaderPanicFallsBackToFileName(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "dir/Broken.mp3")
	f.tags.panics["Broken.mp3"] = true
	require.NoError(t, f.scanner.Scan(context.Background(), false))

	snapshot := f.scanner.Catalog()
	assert.Equal(t, []string{"Broken", "a.mp3"}, titles(snapshot.Songs()))
	song, ok := snapshot.SongByPath("dir/Broken.mp3")
	require.True(t, ok)
	assert.Empty(t, song.Artist)
	assert.Nil(t, f.scanner.Status().LastError)
	require.NoError(t, f.scanner.WaitForFirstScan(context.Background()))
}

func TestScan_sidecars(t *testing.T) {
	f := newFixture(t, nil, "album/a.mp3", "album/b.mp3", "other/c.mp3")
	f.write(t, "album/folder.png", "png")
	f.write(t, "album/Cover.jpg", "jpg")
	f.write(t, "album/a.lrc", "[00:01.00] la")
	f.tags.metadata["c.mp3"] = &audiotags.Metadata{Title: "C", HasImage: true}
	f.write(t, "other/cover.jpg", "jpg")

	require.NoError(t, f.scanner.Scan(context.Background(), false))
	snapshot := f.scanner.Catalog()
	a, _ := snapshot.SongByPath("album/a.mp3")
	b, _ := snapshot.SongByPath("album/b.mp3")
	c, _ := snapshot.SongByPath("other/c.mp3")
	assert.Equal(t, filepath.Join(f.root, "album", "Cover.jpg"), a.CoverArtPath)
	assert.Equal(t, filepath.Join(f.root, "album", "a.lrc"), a.LyricsPath)
	assert.Empty(t, b.LyricsPath)
	assert.Equal(t, filepath.Join(f.root, "other", "cover.jpg"), c.CoverArtPath)

	// sidecars are probed again for cached songs
	f.write(t, "album/b.txt", "lyrics")
	require.NoError(t, os.Remove(filepath.Join(f.root, "album", "a.lrc")))
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	snapshot = f.scanner.Catalog()
	a, _ = snapshot.SongByPath("album/a.mp3")
	b, _ = snapshot.SongByPath("album/b.mp3")
	assert.Empty(t, a.LyricsPath)
	assert.Equal(t, filepath.Join(f.root, "album", "b.txt"), b.LyricsPath)
	assert.Equal(t, int64(3), f.tags.reads.Load())
}

func TestScan_embeddedCoverPriority(t *testing.T) {
	f := newFixture(t, nil, "a.mp3")
	f.scanner.coverArtPriority = []string{config.CoverArtPriorityEmbedded, "cover.*"}
	f.tags.metadata["a.mp3"] = &audiotags.Metadata{Title: "A", HasImage: true}
	f.write(t, "cover.jpg", "jpg")
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	a, _ := f.scanner.Catalog().SongByPath("a.mp3")
	assert.Empty(t, a.CoverArtPath)
}

func TestScan_missingRoot(t *testing.T) {
	f := newFixture(t, nil, "a.mp3")
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	require.NoError(t, os.RemoveAll(f.root))

	err := f.scanner.Scan(context.Background(), false)
	assert.ErrorIs(t, err, ErrMediaDirNotFound)
	assert.Equal(t, 1, f.scanner.Catalog().SongCount())
	assert.ErrorIs(t, f.scanner.Status().LastError, ErrMediaDirNotFound)
}

func TestScan_firstScanLatch(t *testing.T) {
	s, err := New(Options{MusicDir: filepath.Join(t.TempDir(), "missing"), Store: &memoryStore{}, Tags: newTagSpy()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.WaitForFirstScan(ctx), context.DeadlineExceeded)

	assert.Error(t, s.Scan(context.Background(), false))
	assert.ErrorIs(t, s.WaitForFirstScan(context.Background()), ErrMediaDirNotFound)

	s.SkipFirstScan()
	assert.ErrorIs(t, s.WaitForFirstScan(context.Background()), ErrMediaDirNotFound)
}

func TestScan_busyIsNoop(t *testing.T) {
	f := newFixture(t, nil, "a.mp3")
	f.scanner.lock.Lock()
	err := f.scanner.Scan(context.Background(), false)
	f.scanner.lock.Unlock()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), f.tags.reads.Load())
	assert.Equal(t, 0, f.scanner.Catalog().SongCount())
}

func TestScan_canceled(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "b.mp3")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.scanner.Scan(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.scanner.Catalog().SongCount())
	assert.Nil(t, f.store.snapshot)
}

func TestScan_playlists(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "b.mp3", "sub/c.mp3")
	require.NoError(t, os.Mkdir(filepath.Join(f.root, "lists"), 0755))
	require.NoError(t, playlists.WriteFile(filepath.Join(f.root, "lists", "mix.xspf"), &playlists.File{
		Name: "Mix",
		Entries: []playlists.Entry{
			{Location: "../a.mp3"},
			{Location: "../gone.mp3"},
			{Location: "../../outside.mp3"},
			{Location: "../sub/c.mp3"},
		},
	}))
	f.write(t, "sub/old.m3u", "#EXTM3U\nc.mp3\n../b.mp3\n")

	require.NoError(t, f.scanner.Scan(context.Background(), false))
	snapshot := f.scanner.Catalog()

	mix, err := snapshot.Playlist(melodeon.PlaylistID("lists/mix.xspf"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "c.mp3"}, util.Map(mix.Items, func(i catalog.PlaylistItem) string { return i.Song.Title }))

	old, err := snapshot.Playlist(melodeon.PlaylistID("sub/old.xspf"))
	require.NoError(t, err)
	assert.Equal(t, "old", old.Name)
	assert.Len(t, old.Items, 2)
	assert.FileExists(t, filepath.Join(f.root, "sub", "old.m3u"+playlists.BackupSuffix))

	missing := snapshot.MissingItems()
	require.Len(t, missing, 1)
	assert.Equal(t, "gone.mp3", missing[0].RelativePath)
	assert.Equal(t, "lists/mix.xspf", missing[0].PlaylistPath)

	// the cached playlist is reused and linked against the new song index
	require.NoError(t, os.Remove(filepath.Join(f.root, "a.mp3")))
	f.write(t, "gone.mp3", "audio")
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	snapshot = f.scanner.Catalog()
	mix, err = snapshot.Playlist(melodeon.PlaylistID("lists/mix.xspf"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gone.mp3", "c.mp3"}, util.Map(mix.Items, func(i catalog.PlaylistItem) string { return i.Song.Title }))
	missing = snapshot.MissingItems()
	require.Len(t, missing, 1)
	assert.Equal(t, "a.mp3", missing[0].RelativePath)
}

func TestScan_computesReplayGain(t *testing.T) {
	analyzer := &fakeAnalyzer{loudness: ffmpeg.Loudness{Integrated: -20, TruePeak: -6}}
	f := newFixture(t, analyzer, "a.mp3", "b.mp3")
	f.tags.metadata["b.mp3"] = &audiotags.Metadata{Title: "B", ReplayGain: audiotags.ReplayGain{TrackGain: util.ToPtr(1.0)}}

	require.NoError(t, f.scanner.Scan(context.Background(), false))
	assert.Equal(t, int64(1), analyzer.calls.Load())

	a, _ := f.scanner.Catalog().SongByPath("a.mp3")
	require.NotNil(t, a.TrackGain)
	assert.InDelta(t, 2.0, *a.TrackGain, 1e-9)
	assert.InDelta(t, 0.501187, *a.TrackPeak, 1e-6)
	written := f.tags.written["a.mp3"]
	require.NotNil(t, written.TrackGain)
	assert.InDelta(t, 2.0, *written.TrackGain, 1e-9)

	require.NoError(t, f.scanner.Scan(context.Background(), false))
	assert.Equal(t, int64(1), analyzer.calls.Load())
}

func TestScan_replayGainFailureIsNotFatal(t *testing.T) {
	analyzer := &fakeAnalyzer{err: ffmpeg.ErrNoLoudness}
	f := newFixture(t, analyzer, "a.mp3")
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	a, ok := f.scanner.Catalog().SongByPath("a.mp3")
	require.True(t, ok)
	assert.Nil(t, a.TrackGain)
}

func TestScan_analyzerPanicIsNotFatal(t *testing.T) {
	analyzer := &fakeAnalyzer{panics: true}
	f := newFixture(t, analyzer, "a.mp3", "b.mp3")
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	assert.Equal(t, int64(2), analyzer.calls.Load())
	assert.Equal(t, 2, f.scanner.Catalog().SongCount())
	a, ok := f.scanner.Catalog().SongByPath("a.mp3")
	require.True(t, ok)
	assert.Nil(t, a.TrackGain)
	assert.Nil(t, a.TrackPeak)
	assert.Empty(t, f.tags.written)
}

func TestRecomputeReplayGain(t *testing.T) {
	f := newFixture(t, nil, "a.mp3")
	require.NoError(t, f.scanner.Scan(context.Background(), false))
	id := melodeon.SongID("a.mp3")
	_, err := f.scanner.RecomputeReplayGain(context.Background(), id)
	assert.ErrorIs(t, err, ErrReplayGainDisabled)

	analyzer := &fakeAnalyzer{loudness: ffmpeg.Loudness{Integrated: -15, TruePeak: 0}}
	f.scanner.loudness = analyzer
	_, err = f.scanner.RecomputeReplayGain(context.Background(), "tr_unknown")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	song, err := f.scanner.RecomputeReplayGain(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, -3.0, *song.TrackGain, 1e-9)
	current, err := f.scanner.Catalog().Song(id)
	require.NoError(t, err)
	assert.InDelta(t, -3.0, *current.TrackGain, 1e-9)
	assert.InDelta(t, -3.0, *f.store.snapshot.Songs[0].TrackGain, 1e-9)

	noGain, err := f.scanner.Catalog().Playlist(melodeon.PlaylistIDNoReplayGain)
	require.NoError(t, err)
	assert.Empty(t, noGain.Items)
}

func TestRun_startupScanDisabledLoadsCache(t *testing.T) {
	f := newFixture(t, nil, "a.mp3")
	require.NoError(t, f.scanner.Scan(context.Background(), false))

	s, err := New(Options{MusicDir: f.root, Store: f.store, Tags: f.tags})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx, RunOptions{StartupScan: config.StartupScanDisabled})

	require.NoError(t, s.WaitForFirstScan(context.Background()))
	assert.Equal(t, 1, s.Catalog().SongCount())
	assert.Equal(t, int64(1), f.tags.reads.Load())
}

func TestStatus(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	status := Status{
		Scanning:  true,
		Processed: 25,
		Total:     100,
		Started:   start,
		now:       start.Add(10 * time.Second),
	}
	assert.Equal(t, 0.25, status.Fraction())
	assert.Equal(t, 10*time.Second, status.Elapsed())
	assert.Equal(t, 30*time.Second, status.Remaining())

	status.Processed = 0
	assert.Equal(t, time.Duration(0), status.Remaining())
	assert.Equal(t, 0.0, status.Fraction())

	assert.Equal(t, 1.0, Status{}.Fraction())
}

func playlistTitles(p *catalog.Playlist) []string {
	return util.Map(p.Items, func(i catalog.PlaylistItem) string { return i.Song.Title })
}

func TestPlaylistMutations(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "b.mp3", "c.mp3")
	ctx := context.Background()
	require.NoError(t, f.scanner.Scan(ctx, false))
	a, b, c := melodeon.SongID("a.mp3"), melodeon.SongID("b.mp3"), melodeon.SongID("c.mp3")

	p, err := f.scanner.CreatePlaylist(ctx, " Road Trip ", "summer", []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, melodeon.PlaylistID("Road Trip.xspf"), p.ID)
	assert.Equal(t, "Road Trip", p.Name)
	assert.Equal(t, "summer", p.Comment)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, playlistTitles(p))
	assert.FileExists(t, filepath.Join(f.root, "Road Trip.xspf"))
	require.Len(t, f.store.snapshot.Playlists, 1)

	tests := []struct {
		name    string
		plName  string
		songIDs []string
		want    error
	}{
		{"duplicate name", "road trip", nil, catalog.ErrDuplicateName},
		{"virtual name", "All Songs", nil, catalog.ErrDuplicateName},
		{"empty name", "  ", nil, catalog.ErrInvalidParams},
		{"path separator", "a/b", nil, catalog.ErrInvalidParams},
		{"hidden", ".secret", nil, catalog.ErrInvalidParams},
		{"unknown song", "Other", []string{"tr_unknown"}, catalog.ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.scanner.CreatePlaylist(ctx, tt.plName, "", tt.songIDs)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	p, err = f.scanner.AddSongsToPlaylist(ctx, p.ID, []string{c, a})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "b.mp3", "c.mp3", "a.mp3"}, playlistTitles(p))

	p, err = f.scanner.RemoveSongsFromPlaylist(ctx, p.ID, []int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.mp3", "a.mp3"}, playlistTitles(p))

	_, err = f.scanner.RemoveSongsFromPlaylist(ctx, p.ID, []int{2})
	assert.ErrorIs(t, err, catalog.ErrInvalidParams)

	renamed, err := f.scanner.RenamePlaylist(ctx, p.ID, "Holiday")
	require.NoError(t, err)
	assert.Equal(t, p.ID, renamed.ID)
	assert.Equal(t, "Holiday", renamed.Name)
	assert.Equal(t, "summer", renamed.Comment)
	assert.Equal(t, []string{"b.mp3", "a.mp3"}, playlistTitles(renamed))

	updated, err := f.scanner.UpdatePlaylist(ctx, p.ID, "Holiday", "winter", []string{c})
	require.NoError(t, err)
	assert.Equal(t, "winter", updated.Comment)
	assert.Equal(t, []string{"c.mp3"}, playlistTitles(updated))

	// the file is the source of truth for the next scan
	require.NoError(t, f.scanner.Scan(ctx, true))
	scanned, err := f.scanner.Catalog().Playlist(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Holiday", scanned.Name)
	assert.Equal(t, []string{"c.mp3"}, playlistTitles(scanned))

	_, err = f.scanner.AddSongsToPlaylist(ctx, melodeon.PlaylistIDAllSongs, []string{a})
	assert.ErrorIs(t, err, catalog.ErrVirtualPlaylist)
	assert.ErrorIs(t, f.scanner.DeletePlaylist(ctx, melodeon.PlaylistIDMissingTracks), catalog.ErrVirtualPlaylist)
	_, err = f.scanner.RenamePlaylist(ctx, melodeon.PlaylistID("nope.xspf"), "Nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	require.NoError(t, f.scanner.DeletePlaylist(ctx, p.ID))
	assert.NoFileExists(t, filepath.Join(f.root, "Road Trip.xspf"))
	_, err = f.scanner.Catalog().Playlist(p.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Empty(t, f.store.snapshot.Playlists)
}

func TestRemoveSongsFromPlaylist_keepsMissingEntries(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "b.mp3")
	ctx := context.Background()
	path := filepath.Join(f.root, "list.xspf")
	require.NoError(t, playlists.WriteFile(path, &playlists.File{
		Name: "List",
		Entries: []playlists.Entry{
			{Location: "a.mp3"},
			{Location: "gone.mp3"},
			{Location: "b.mp3"},
		},
	}))
	require.NoError(t, f.scanner.Scan(ctx, false))

	p, err := f.scanner.RemoveSongsFromPlaylist(ctx, melodeon.PlaylistID("list.xspf"), []int{1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3"}, playlistTitles(p))

	file, err := playlists.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "gone.mp3"}, util.Map(file.Entries, func(e playlists.Entry) string { return e.Location }))
	require.Len(t, f.scanner.Catalog().MissingItems(), 1)
}

func TestEditPlaylist(t *testing.T) {
	f := newFixture(t, nil, "a.mp3")
	ctx := context.Background()
	path := filepath.Join(f.root, "list.xspf")
	require.NoError(t, playlists.WriteFile(path, &playlists.File{
		Name:    "List",
		Comment: "old",
		Entries: []playlists.Entry{{Location: "a.mp3"}, {Location: "gone.mp3"}},
	}))
	require.NoError(t, f.scanner.Scan(ctx, false))
	id := melodeon.PlaylistID("list.xspf")

	p, err := f.scanner.EditPlaylist(ctx, id, nil, util.ToPtr("new"))
	require.NoError(t, err)
	assert.Equal(t, "List", p.Name)
	assert.Equal(t, "new", p.Comment)
	file, err := playlists.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, file.Entries, 2)

	_, err = f.scanner.EditPlaylist(ctx, id, util.ToPtr("Missing Tracks"), nil)
	assert.ErrorIs(t, err, catalog.ErrDuplicateName)
	_, err = f.scanner.EditPlaylist(ctx, id, util.ToPtr(".."), nil)
	assert.ErrorIs(t, err, catalog.ErrInvalidParams)

	p, err = f.scanner.EditPlaylist(ctx, id, util.ToPtr("list"), nil)
	require.NoError(t, err)
	assert.Equal(t, "list", p.Name)
	assert.Equal(t, "new", p.Comment)
}

func TestPatchPlaylist_writesNothingOnInvalidInput(t *testing.T) {
	f := newFixture(t, nil, "a.mp3", "b.mp3")
	ctx := context.Background()
	require.NoError(t, f.scanner.Scan(ctx, false))
	a, b := melodeon.SongID("a.mp3"), melodeon.SongID("b.mp3")
	p, err := f.scanner.CreatePlaylist(ctx, "Mix", "", []string{a, b})
	require.NoError(t, err)
	before, err := os.ReadFile(p.Path)
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch PlaylistPatch
		err   error
	}{
		{"unknown song", PlaylistPatch{SongIndicesToRemove: []int{0}, SongIDsToAdd: []string{melodeon.SongID("unknown.mp3")}}, catalog.ErrInvalidParams},
		{"index out of range", PlaylistPatch{Comment: util.ToPtr("c"), SongIndicesToRemove: []int{1, 2}}, catalog.ErrInvalidParams},
		{"negative index", PlaylistPatch{SongIDsToAdd: []string{a}, SongIndicesToRemove: []int{-1}}, catalog.ErrInvalidParams},
		{"duplicate name", PlaylistPatch{Name: util.ToPtr("all songs"), SongIDsToAdd: []string{a}}, catalog.ErrDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.scanner.PatchPlaylist(ctx, p.ID, tt.patch)
			assert.ErrorIs(t, err, tt.err)
			after, err := os.ReadFile(p.Path)
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
		})
	}

	p, err = f.scanner.PatchPlaylist(ctx, p.ID, PlaylistPatch{Name: util.ToPtr("Mix 2"), SongIndicesToRemove: []int{0}, SongIDsToAdd: []string{a}})
	require.NoError(t, err)
	assert.Equal(t, "Mix 2", p.Name)
	require.Len(t, p.Items, 2)
	assert.Equal(t, b, p.Items[0].Song.ID)
	assert.Equal(t, a, p.Items[1].Song.ID)
}
