package playlists

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/juho05/log"
)

const BackupSuffix = ".bak"

var legacyExtensions = []string{".m3u", ".m3u8"}

func IsLegacyPlaylist(path string) bool {
	return slices.Contains(legacyExtensions, strings.ToLower(filepath.Ext(path)))
}

// ConvertLegacy converts the legacy playlist at path to a canonical playlist next to it and renames the
// legacy file to <path>.bak. If a canonical playlist with the same base name already exists nothing is
// converted. The path of the canonical playlist is returned in both cases.
func ConvertLegacy(root, path string, now time.Time) (string, bool, error) {
	target := strings.TrimSuffix(path, filepath.Ext(path)) + Extension
	if _, err := os.Stat(target); err == nil {
		log.Tracef("skipping conversion of %s: %s already exists", path, target)
		return target, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("convert legacy playlist: %w", err)
	}

	lines, err := readLegacy(path)
	if err != nil {
		return "", false, fmt.Errorf("convert legacy playlist: %w", err)
	}

	dir := filepath.Dir(path)
	f := &File{
		Name:    baseName(path),
		Changed: now,
		Entries: make([]Entry, 0, len(lines)),
	}
	for _, line := range lines {
		rel, ok := Resolve(root, dir, line)
		if !ok {
			log.Warnf("playlist %s: dropping entry outside of music directory: %s", path, line)
			continue
		}
		f.Entries = append(f.Entries, Entry{
			Location:  Location(root, dir, rel),
			AddedDate: now,
		})
	}

	err = WriteFile(target, f)
	if err != nil {
		return "", false, fmt.Errorf("convert legacy playlist: %w", err)
	}
	err = os.Rename(path, path+BackupSuffix)
	if err != nil {
		return "", false, fmt.Errorf("convert legacy playlist: backup %s: %w", path, err)
	}
	log.Infof("converted legacy playlist %s to %s (%d entries)", path, target, len(f.Entries))
	return target, true, nil
}

// readLegacy returns all non-empty lines of a legacy playlist that are not comments.
func readLegacy(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
