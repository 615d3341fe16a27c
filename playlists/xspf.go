package playlists

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/juho05/melodeon"
)

const (
	xmlns       = "http://xspf.org/ns/0/"
	xspfVersion = "1"
	// application uri of the track extension carrying the added date
	extensionApplication = "https://github.com/juho05/melodeon"
)

var ErrInvalidPlaylist = errors.New("invalid playlist file")

type xspfPlaylist struct {
	XMLName    xml.Name      `xml:"playlist"`
	XMLNS      string        `xml:"xmlns,attr"`
	Version    string        `xml:"version,attr"`
	Title      string        `xml:"title,omitempty"`
	Annotation string        `xml:"annotation,omitempty"`
	Date       string        `xml:"date,omitempty"`
	TrackList  xspfTrackList `xml:"trackList"`
}

type xspfTrackList struct {
	Tracks []xspfTrack `xml:"track"`
}

type xspfTrack struct {
	Location   string          `xml:"location"`
	Extensions []xspfExtension `xml:"extension"`
}

type xspfExtension struct {
	Application string `xml:"application,attr"`
	AddedAt     string `xml:"addedAt,omitempty"`
}

// File is the content of a canonical playlist file. Entry locations are stored as written in the file.
type File struct {
	Name    string
	Comment string
	// Changed is the zero time if the file has no date.
	Changed time.Time
	Entries []Entry
}

type Entry struct {
	Location string
	// AddedDate is the zero time if the entry has no added date.
	AddedDate time.Time
}

func Decode(r io.Reader) (*File, error) {
	var pl xspfPlaylist
	if err := xml.NewDecoder(r).Decode(&pl); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlaylist, err)
	}
	f := &File{
		Name:    pl.Title,
		Comment: pl.Annotation,
		Changed: parseTime(pl.Date),
		Entries: make([]Entry, 0, len(pl.TrackList.Tracks)),
	}
	for _, t := range pl.TrackList.Tracks {
		if t.Location == "" {
			continue
		}
		entry := Entry{Location: t.Location}
		for _, ext := range t.Extensions {
			if ext.Application == extensionApplication {
				entry.AddedDate = parseTime(ext.AddedAt)
			}
		}
		f.Entries = append(f.Entries, entry)
	}
	return f, nil
}

func Encode(w io.Writer, f *File) error {
	pl := xspfPlaylist{
		XMLNS:      xmlns,
		Version:    xspfVersion,
		Title:      f.Name,
		Annotation: f.Comment,
		TrackList: xspfTrackList{
			Tracks: make([]xspfTrack, 0, len(f.Entries)),
		},
	}
	if !f.Changed.IsZero() {
		pl.Date = formatTime(f.Changed)
	}
	for _, e := range f.Entries {
		t := xspfTrack{Location: e.Location}
		if !e.AddedDate.IsZero() {
			t.Extensions = []xspfExtension{{
				Application: extensionApplication,
				AddedAt:     formatTime(e.AddedDate),
			}}
		}
		pl.TrackList.Tracks = append(pl.TrackList.Tracks, t)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(pl); err != nil {
		return fmt.Errorf("encode playlist: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func ReadFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	defer file.Close()
	f, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("read playlist %s: %w", path, err)
	}
	return f, nil
}

// WriteFile atomically replaces the file at path.
func WriteFile(path string, f *File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}
	tmp := melodeon.TempName(path)
	err := os.WriteFile(tmp, buf.Bytes(), 0644)
	if err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
