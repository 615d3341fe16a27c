package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/juho05/log"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/catalog"
	"github.com/juho05/melodeon/playlists"
)

// CreatePlaylist creates a new playlist file named after the playlist in the root of the music directory.
func (s *Scanner) CreatePlaylist(ctx context.Context, name, comment string, songIDs []string) (*catalog.Playlist, error) {
	name = strings.TrimSpace(name)
	err := validatePlaylistName(name)
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := s.Catalog()
	if err = checkDuplicateName(snapshot, name, ""); err != nil {
		return nil, err
	}
	relPaths, err := songPaths(snapshot, songIDs)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.musicDir, name+playlists.Extension)
	if _, err := os.Stat(path); err == nil {
		return nil, catalog.NewError(fmt.Sprintf("file %s already exists", path), catalog.ErrConflict, nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, catalog.NewError("create playlist", catalog.ErrConflict, err)
	}

	err = playlists.Save(s.musicDir, path, name, comment, relPaths, s.now())
	if err != nil {
		return nil, catalog.NewError("create playlist", catalog.ErrConflict, err)
	}
	log.Infof("created playlist %s", path)
	return s.refreshPlaylist(ctx, path)
}

// UpdatePlaylist replaces the name, comment and songs of a playlist.
func (s *Scanner) UpdatePlaylist(ctx context.Context, id, name, comment string, songIDs []string) (*catalog.Playlist, error) {
	name = strings.TrimSpace(name)
	err := validatePlaylistName(name)
	if err != nil {
		return nil, err
	}
	return s.mutatePlaylist(ctx, id, func(snapshot *catalog.Snapshot, p *catalog.Playlist, _ []string) (string, string, []string, error) {
		if err := checkDuplicateName(snapshot, name, p.ID); err != nil {
			return "", "", nil, err
		}
		relPaths, err := songPaths(snapshot, songIDs)
		return name, comment, relPaths, err
	})
}

func (s *Scanner) RenamePlaylist(ctx context.Context, id, name string) (*catalog.Playlist, error) {
	return s.PatchPlaylist(ctx, id, PlaylistPatch{Name: &name})
}

// EditPlaylist changes the name and comment of a playlist. nil values keep the current value.
// The playlist keeps its file and id.
func (s *Scanner) EditPlaylist(ctx context.Context, id string, name, comment *string) (*catalog.Playlist, error) {
	return s.PatchPlaylist(ctx, id, PlaylistPatch{Name: name, Comment: comment})
}

// AddSongsToPlaylist appends songs to the end of a playlist.
func (s *Scanner) AddSongsToPlaylist(ctx context.Context, id string, songIDs []string) (*catalog.Playlist, error) {
	return s.PatchPlaylist(ctx, id, PlaylistPatch{SongIDsToAdd: songIDs})
}

// RemoveSongsFromPlaylist removes the items at the given indices of the playable item list.
// Missing entries of the playlist file are kept.
func (s *Scanner) RemoveSongsFromPlaylist(ctx context.Context, id string, indices []int) (*catalog.Playlist, error) {
	return s.PatchPlaylist(ctx, id, PlaylistPatch{SongIndicesToRemove: indices})
}

// PlaylistPatch describes a partial playlist update. nil and empty fields are left alone.
type PlaylistPatch struct {
	Name    *string
	Comment *string
	// SongIDsToAdd are appended after the removal.
	SongIDsToAdd []string
	// SongIndicesToRemove are indices of the playable items before the update.
	SongIndicesToRemove []int
}

// PatchPlaylist applies all changes of patch with a single write. Nothing is written if any part of
// the patch is invalid.
func (s *Scanner) PatchPlaylist(ctx context.Context, id string, patch PlaylistPatch) (*catalog.Playlist, error) {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if err := validatePlaylistName(trimmed); err != nil {
			return nil, err
		}
		patch.Name = &trimmed
	}
	return s.mutatePlaylist(ctx, id, func(snapshot *catalog.Snapshot, p *catalog.Playlist, entries []string) (string, string, []string, error) {
		name, comment := p.Name, p.Comment
		if patch.Name != nil {
			if err := checkDuplicateName(snapshot, *patch.Name, p.ID); err != nil {
				return "", "", nil, err
			}
			name = *patch.Name
		}
		if patch.Comment != nil {
			comment = *patch.Comment
		}
		kept, err := removeEntries(snapshot, p, entries, patch.SongIndicesToRemove)
		if err != nil {
			return "", "", nil, err
		}
		added, err := songPaths(snapshot, patch.SongIDsToAdd)
		if err != nil {
			return "", "", nil, err
		}
		return name, comment, append(kept, added...), nil
	})
}

// removeEntries removes the entries of the playable items at indices. Missing entries are kept.
func removeEntries(snapshot *catalog.Snapshot, p *catalog.Playlist, entries []string, indices []int) ([]string, error) {
	if len(indices) == 0 {
		return entries, nil
	}
	remove := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(p.Items) {
			return nil, catalog.NewError(fmt.Sprintf("index %d out of range", i), catalog.ErrInvalidParams, nil)
		}
		remove[i] = struct{}{}
	}
	kept := make([]string, 0, len(entries))
	playable := 0
	for _, rel := range entries {
		if _, ok := snapshot.SongByPath(rel); ok {
			_, removed := remove[playable]
			playable++
			if removed {
				continue
			}
		}
		kept = append(kept, rel)
	}
	return kept, nil
}

func (s *Scanner) DeletePlaylist(ctx context.Context, id string) error {
	if melodeon.IsVirtualPlaylistID(id) {
		return catalog.NewError(id, catalog.ErrVirtualPlaylist, nil)
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	p, err := s.Catalog().Playlist(id)
	if err != nil {
		return err
	}
	err = os.Remove(p.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return catalog.NewError("delete playlist", catalog.ErrConflict, err)
	}
	s.snapshot.Store(s.Catalog().WithoutPlaylist(id))
	s.saveRecords(ctx, withoutPlaylistRecord(s.records, p.RelativePath))
	log.Infof("deleted playlist %s", p.Path)
	return nil
}

type playlistMutation func(snapshot *catalog.Snapshot, p *catalog.Playlist, entries []string) (name, comment string, relPaths []string, err error)

// mutatePlaylist rewrites the file of a regular playlist with the values returned by mutate. entries are the
// relative paths of all entries of the file, including missing ones.
func (s *Scanner) mutatePlaylist(ctx context.Context, id string, mutate playlistMutation) (*catalog.Playlist, error) {
	if melodeon.IsVirtualPlaylistID(id) {
		return nil, catalog.NewError(id, catalog.ErrVirtualPlaylist, nil)
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := s.Catalog()
	p, err := snapshot.Playlist(id)
	if err != nil {
		return nil, err
	}
	entries, err := s.playlistEntries(p)
	if err != nil {
		return nil, err
	}
	name, comment, relPaths, err := mutate(snapshot, p, entries)
	if err != nil {
		return nil, err
	}
	err = playlists.Save(s.musicDir, p.Path, name, comment, relPaths, s.now())
	if err != nil {
		return nil, catalog.NewError("update playlist", catalog.ErrConflict, err)
	}
	return s.refreshPlaylist(ctx, p.Path)
}

// playlistEntries returns the relative paths of all entries in the file of p.
func (s *Scanner) playlistEntries(p *catalog.Playlist) ([]string, error) {
	f, err := playlists.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, catalog.NewError(fmt.Sprintf("playlist file %s was removed", p.Path), catalog.ErrConflict, err)
		}
		return nil, catalog.NewError("read playlist", catalog.ErrConflict, err)
	}
	dir := filepath.Dir(p.Path)
	entries := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		if rel, ok := playlists.Resolve(s.musicDir, dir, e.Location); ok {
			entries = append(entries, rel)
		}
	}
	return entries, nil
}

// refreshPlaylist parses a single playlist file and publishes it. Must be called with lock held.
func (s *Scanner) refreshPlaylist(ctx context.Context, path string) (*catalog.Playlist, error) {
	snapshot := s.Catalog()
	result, err := playlists.Parse(s.musicDir, path, snapshot.SongByPath)
	if err != nil {
		return nil, catalog.NewError("refresh playlist", catalog.ErrConflict, err)
	}
	snapshot = snapshot.WithPlaylist(result.Playlist, result.Missing)
	s.snapshot.Store(snapshot)
	s.saveRecords(ctx, withPlaylistRecord(s.records, playlistRecord(result)))
	return snapshot.Playlist(result.Playlist.ID)
}

func validatePlaylistName(name string) error {
	if name == "" || name == "." || name == ".." || hasPathSeparator(name) || strings.HasPrefix(name, ".") {
		return catalog.NewError(fmt.Sprintf("invalid playlist name %q", name), catalog.ErrInvalidParams, nil)
	}
	return nil
}

// checkDuplicateName fails if a playlist other than exceptID already uses name, ignoring case.
func checkDuplicateName(snapshot *catalog.Snapshot, name, exceptID string) error {
	for _, virtual := range []string{catalog.AllSongsPlaylistName, catalog.MissingTracksPlaylistName, catalog.NoReplayGainPlaylistName} {
		if strings.EqualFold(virtual, name) {
			return catalog.NewError(name, catalog.ErrDuplicateName, nil)
		}
	}
	for _, p := range snapshot.RegularPlaylists() {
		if p.ID != exceptID && strings.EqualFold(p.Name, name) {
			return catalog.NewError(name, catalog.ErrDuplicateName, nil)
		}
	}
	return nil
}

func songPaths(snapshot *catalog.Snapshot, songIDs []string) ([]string, error) {
	relPaths := make([]string, 0, len(songIDs))
	for _, id := range songIDs {
		song, err := snapshot.Song(id)
		if err != nil {
			return nil, catalog.NewError(fmt.Sprintf("unknown song %s", id), catalog.ErrInvalidParams, nil)
		}
		relPaths = append(relPaths, song.RelativePath)
	}
	return relPaths, nil
}
