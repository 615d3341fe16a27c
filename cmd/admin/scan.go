package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/juho05/melodeon/playlists"
	"github.com/juho05/melodeon/scanner"
)

func scan(ctx context.Context, args []string, s *scanner.Scanner) error {
	full := len(args) > 2 && args[2] == "--full"

	done := make(chan error, 1)
	go func() {
		done <- s.Scan(ctx, full)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				return err
			}
			status := s.Status()
			fmt.Printf("Scanned %d files in %s, %d songs in catalog.\n", status.Processed, status.Elapsed().Round(time.Millisecond), s.Catalog().SongCount())
			return nil
		case <-ticker.C:
			status := s.Status()
			if status.Scanning {
				fmt.Printf("%d/%d (%.0f%%), about %s remaining\n", status.Processed, status.Total, status.Fraction()*100, status.Remaining().Round(time.Second))
			}
		}
	}
}

func replayGain(ctx context.Context, args []string, s *scanner.Scanner) error {
	if len(args) < 3 {
		fmt.Println("USAGE:", args[0], "replaygain <file>")
		os.Exit(1)
	}
	path, err := filepath.Abs(args[2])
	if err != nil {
		return fmt.Errorf("replaygain: %w", err)
	}
	rel, err := filepath.Rel(s.MusicDir(), path)
	if err != nil || !filepath.IsLocal(rel) {
		return fmt.Errorf("replaygain: %s is not inside the music directory", path)
	}

	err = s.LoadCache(ctx)
	if err != nil {
		return fmt.Errorf("replaygain: %w (run a scan first)", err)
	}
	song, ok := s.Catalog().SongByPath(filepath.ToSlash(rel))
	if !ok {
		return fmt.Errorf("replaygain: %s is not in the catalog (run a scan first)", rel)
	}
	song, err = s.RecomputeReplayGain(ctx, song.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: track gain %.2f dB, track peak %.6f\n", rel, *song.TrackGain, *song.TrackPeak)
	return nil
}

// convertPlaylists converts all legacy playlists in the music directory without scanning it.
func convertPlaylists(s *scanner.Scanner) error {
	var converted int
	err := filepath.WalkDir(s.MusicDir(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !playlists.IsLegacyPlaylist(path) {
			return nil
		}
		target, ok, err := playlists.ConvertLegacy(s.MusicDir(), path, time.Now())
		if err != nil {
			fmt.Printf("%s: %s\n", path, err)
			return nil
		}
		if ok {
			converted++
			fmt.Printf("%s -> %s\n", path, target)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("convert playlists: %w", err)
	}
	fmt.Printf("Converted %d playlists.\n", converted)
	return nil
}
