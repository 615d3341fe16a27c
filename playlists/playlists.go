package playlists

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/juho05/log"

	"github.com/juho05/melodeon"
	"github.com/juho05/melodeon/catalog"
)

const Extension = ".xspf"

// SongLookup returns the song with the given slash separated path relative to the music directory.
type SongLookup func(relPath string) (*catalog.Song, bool)

// Item is a playlist entry resolved to a path relative to the music directory.
type Item struct {
	RelativePath string
	AddedDate    time.Time
}

type Result struct {
	Playlist *catalog.Playlist
	Missing  []catalog.MissingPlaylistItem
	// Items contains every entry inside of the music directory in file order, including missing ones.
	Items []Item
	// Size and LastModified describe the parsed file.
	Size         int64
	LastModified time.Time
}

// IsPlaylist reports whether path has the canonical playlist extension.
func IsPlaylist(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// Resolve converts a playlist location to a slash separated path relative to root. Relative locations
// are resolved against dir. ok is false if the location points outside of root.
func Resolve(root, dir, location string) (relPath string, ok bool) {
	loc := location
	if strings.HasPrefix(loc, "file://") {
		u, err := url.Parse(loc)
		if err != nil {
			return "", false
		}
		loc = u.Path
	}
	loc = filepath.FromSlash(loc)
	if !filepath.IsAbs(loc) {
		loc = filepath.Join(dir, loc)
	}
	rel, err := filepath.Rel(root, filepath.Clean(loc))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Location returns the location of relPath as written into the playlist file stored in dir.
func Location(root, dir, relPath string) string {
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	loc, err := filepath.Rel(dir, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(loc)
}

// Parse reads the canonical playlist file at path and links its entries to songs.
// Entries outside of root are dropped.
func Parse(root, path string, lookup SongLookup) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("parse playlist: %w", err)
	}
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	items := make([]Item, 0, len(f.Entries))
	for _, e := range f.Entries {
		rel, ok := Resolve(root, dir, e.Location)
		if !ok {
			log.Warnf("playlist %s: dropping entry outside of music directory: %s", path, e.Location)
			continue
		}
		items = append(items, Item{
			RelativePath: rel,
			AddedDate:    e.AddedDate,
		})
	}
	changed := f.Changed
	if changed.IsZero() {
		changed = info.ModTime()
	}
	return Link(root, path, info, f.Name, f.Comment, changed, items, lookup)
}

// Link builds the playlist stored at path from already resolved items.
// Items that are not in the catalog and do not exist on disk become missing items.
func Link(root, path string, info fs.FileInfo, name, comment string, changed time.Time, items []Item, lookup SongLookup) (*Result, error) {
	relPath, ok := Resolve(root, root, path)
	if !ok {
		return nil, fmt.Errorf("link playlist %s: outside of music directory", path)
	}
	if name == "" {
		name = baseName(path)
	}
	created := info.ModTime()
	if t, err := times.Stat(path); err == nil && t.HasBirthTime() {
		created = t.BirthTime()
	}
	result := &Result{
		Playlist: &catalog.Playlist{
			ID:           melodeon.PlaylistID(relPath),
			Name:         name,
			Path:         path,
			RelativePath: relPath,
			Comment:      comment,
			Created:      created,
			Changed:      changed,
			Items:        make([]catalog.PlaylistItem, 0, len(items)),
		},
		Items:        items,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}
	for i, item := range items {
		addedDate := item.AddedDate
		if addedDate.IsZero() {
			addedDate = changed
		}
		if song, ok := lookup(item.RelativePath); ok {
			result.Playlist.Items = append(result.Playlist.Items, catalog.PlaylistItem{
				Song:      song,
				AddedDate: addedDate,
			})
			continue
		}
		abs := filepath.Join(root, filepath.FromSlash(item.RelativePath))
		if _, err := os.Stat(abs); err == nil {
			log.Tracef("playlist %s: %s is not a known song, skipping", relPath, item.RelativePath)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("playlist %s: stat %s: %s", relPath, item.RelativePath, err)
			continue
		}
		result.Missing = append(result.Missing, catalog.MissingPlaylistItem{
			RelativePath: item.RelativePath,
			Path:         abs,
			PlaylistName: name,
			PlaylistPath: relPath,
			Position:     i,
			AddedDate:    addedDate,
		})
	}
	return result, nil
}

// Save writes the playlist stored at path with the given items. Added dates of items that were already
// part of the playlist are preserved, new items are added at now.
func Save(root, path, name, comment string, relPaths []string, now time.Time) error {
	dir := filepath.Dir(path)
	previous := make(map[string][]time.Time)
	old, err := ReadFile(path)
	if err == nil {
		for _, e := range old.Entries {
			if rel, ok := Resolve(root, dir, e.Location); ok {
				previous[rel] = append(previous[rel], e.AddedDate)
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("playlist %s: could not read previous version, resetting added dates: %s", path, err)
	}

	f := &File{
		Name:    name,
		Comment: comment,
		Changed: now,
		Entries: make([]Entry, 0, len(relPaths)),
	}
	for _, rel := range relPaths {
		addedDate := now
		if dates := previous[rel]; len(dates) > 0 {
			if !dates[0].IsZero() {
				addedDate = dates[0]
			}
			previous[rel] = dates[1:]
		}
		f.Entries = append(f.Entries, Entry{
			Location:  Location(root, dir, rel),
			AddedDate: addedDate,
		})
	}
	return WriteFile(path, f)
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
