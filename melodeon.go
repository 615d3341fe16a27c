package melodeon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

var (
	ServerName        = "melodeon"
	Version    string = "dev"
)

var GenID func() string
var IDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-~"

// namespace for all path derived ids, never change it or every id in existing clients breaks
var idNamespace = uuid.MustParse("5b0c7a4e-2f61-4d8e-9a43-0d3c8e51f7b2")

func init() {
	var err error
	GenID, err = nanoid.CustomUnicode(IDAlphabet, 12)
	if err != nil {
		panic(err)
	}
}

type IDType string

const (
	IDTypeSong        IDType = "tr"
	IDTypeAlbum       IDType = "al"
	IDTypeArtist      IDType = "ar"
	IDTypePlaylist    IDType = "pl"
	IDTypeDirectory   IDType = "dir"
	IDTypeMissingItem IDType = "mt"
)

// Reserved ids of the playlists that are computed from the catalog instead of being backed by a file.
const (
	PlaylistIDAllSongs      = "pl_all-songs"
	PlaylistIDMissingTracks = "pl_missing-tracks"
	PlaylistIDNoReplayGain  = "pl_no-replay-gain"
)

var IDRegex = regexp.MustCompile(`^(tr|al|ar|pl|dir|mt)_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func IsVirtualPlaylistID(id string) bool {
	return id == PlaylistIDAllSongs || id == PlaylistIDMissingTracks || id == PlaylistIDNoReplayGain
}

// ValidID reports whether id is a well-formed entity id or one of the reserved virtual playlist ids.
func ValidID(id string) bool {
	return IsVirtualPlaylistID(id) || IDRegex.MatchString(id)
}

func deriveID(idType IDType, parts ...string) string {
	return string(idType) + "_" + uuid.NewSHA1(idNamespace, []byte(string(idType)+"\x00"+strings.Join(parts, "\x00"))).String()
}

// normalizeRelPath makes ids independent of the platform path separator.
func normalizeRelPath(relPath string) string {
	return filepath.ToSlash(filepath.Clean(relPath))
}

// SongID derives the id of a song from its path relative to the music directory.
// The id stays the same as long as the relative path does not change.
func SongID(relPath string) string {
	return deriveID(IDTypeSong, normalizeRelPath(relPath))
}

func PlaylistID(relPath string) string {
	return deriveID(IDTypePlaylist, normalizeRelPath(relPath))
}

func DirectoryID(relPath string) string {
	return deriveID(IDTypeDirectory, normalizeRelPath(relPath))
}

func ArtistID(name string) string {
	return deriveID(IDTypeArtist, name)
}

func AlbumID(artist, album string) string {
	return deriveID(IDTypeAlbum, artist, album)
}

// MissingItemID derives the id of the placeholder song shown for a dangling playlist entry.
// The position is part of the id because a playlist may reference the same missing file twice.
func MissingItemID(playlistRelPath, itemRelPath string, position int) string {
	return deriveID(IDTypeMissingItem, normalizeRelPath(playlistRelPath), normalizeRelPath(itemRelPath), strconv.Itoa(position))
}

func GetIDType(id string) (IDType, bool) {
	prefix, _, ok := strings.Cut(id, "_")
	if !ok {
		return "", false
	}
	types := []IDType{
		IDTypeSong, IDTypeAlbum, IDTypeArtist, IDTypePlaylist, IDTypeDirectory, IDTypeMissingItem,
	}
	if !slices.Contains(types, IDType(prefix)) {
		return "", false
	}
	return IDType(prefix), true
}

func IsIDType(id string, idType IDType) bool {
	typ, ok := GetIDType(id)
	return ok && idType == typ
}

// TempName returns a unique sibling path of path used for atomic replace-by-rename writes.
func TempName(path string) string {
	return fmt.Sprintf("%s.%s.tmp", path, GenID())
}
