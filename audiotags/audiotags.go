package audiotags

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

var ErrNoMetadata = errors.New("no metadata")

type AudioProperties struct {
	LengthMs, BitRate, SampleRate, Channels int
}

func (props *AudioProperties) IsEmpty() bool {
	if props == nil {
		return true
	}
	return props.BitRate == 0 && props.LengthMs == 0 && props.SampleRate == 0 && props.Channels == 0
}

type Metadata struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        int
	Track       int
	Lyrics      string
	HasImage    bool
	ReplayGain  ReplayGain
	Properties  AudioProperties
}

// Reader reads tags and audio properties with pure Go parsers.
// FallbackProber is consulted for containers without a native property parser.
type Reader struct {
	FallbackProber func(path string) (AudioProperties, error)
}

func (r Reader) Read(path string) (*Metadata, error) {
	props, err := r.ReadProperties(path)
	if err != nil {
		props = AudioProperties{}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			if props.IsEmpty() {
				return nil, ErrNoMetadata
			}
			return &Metadata{Properties: props}, nil
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}

	track, _ := m.Track()
	metadata := &Metadata{
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(m.Artist()),
		AlbumArtist: strings.TrimSpace(m.AlbumArtist()),
		Album:       strings.TrimSpace(m.Album()),
		Genre:       strings.TrimSpace(m.Genre()),
		Year:        m.Year(),
		Track:       track,
		Lyrics:      m.Lyrics(),
		HasImage:    m.Picture() != nil,
		ReplayGain:  replayGainFromRaw(m.Raw()),
		Properties:  props,
	}
	return metadata, nil
}

func (r Reader) WriteReplayGain(path string, rg ReplayGain) error {
	return WriteReplayGain(path, rg)
}

func (r Reader) ReadReplayGain(path string) (ReplayGain, error) {
	return ReadReplayGain(path)
}

func replayGainFromRaw(raw map[string]any) ReplayGain {
	var rg ReplayGain
	for k, v := range raw {
		key, value, ok := rawTextValue(k, v)
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		if i := strings.LastIndexByte(key, ':'); i >= 0 {
			key = key[i+1:]
		}
		switch key {
		case keyTrackGain:
			rg.TrackGain = ParseGain(value)
		case keyTrackPeak:
			rg.TrackPeak = ParseGain(value)
		case keyAlbumGain:
			rg.AlbumGain = ParseGain(value)
		case keyAlbumPeak:
			rg.AlbumPeak = ParseGain(value)
		}
	}
	return rg
}

func rawTextValue(key string, value any) (string, string, bool) {
	switch v := value.(type) {
	case *tag.Comm:
		return v.Description, v.Text, true
	case string:
		return key, v, true
	case []string:
		if len(v) == 0 {
			return "", "", false
		}
		return key, v[0], true
	case []byte:
		return key, string(v), true
	default:
		return "", "", false
	}
}
