package audiotags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"
)

var ErrNoProperties = errors.New("no audio properties")

// ReadProperties determines duration and bit rate of the file at path.
func (r Reader) ReadProperties(path string) (AudioProperties, error) {
	var props AudioProperties
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		props, err = mp3Properties(path)
	case ".flac":
		props, err = flacProperties(path)
	case ".wav":
		props, err = wavProperties(path)
	default:
		err = ErrNoProperties
	}
	if err != nil || props.LengthMs == 0 {
		if r.FallbackProber == nil {
			if err == nil {
				err = ErrNoProperties
			}
			return AudioProperties{}, err
		}
		props, err = r.FallbackProber(path)
		if err != nil {
			return AudioProperties{}, fmt.Errorf("fallback prober: %w", err)
		}
	}
	if props.BitRate == 0 && props.LengthMs > 0 {
		info, err := os.Stat(path)
		if err == nil {
			props.BitRate = int(info.Size() * 8 / int64(props.LengthMs))
		}
	}
	return props, nil
}

func mp3Properties(path string) (AudioProperties, error) {
	f, err := os.Open(path)
	if err != nil {
		return AudioProperties{}, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) || frames > 0 {
				break
			}
			return AudioProperties{}, fmt.Errorf("decode mp3 frame: %w", err)
		}
		total += fr.Duration()
		frames++
	}
	return AudioProperties{
		LengthMs: int(total.Milliseconds()),
	}, nil
}

func flacProperties(path string) (AudioProperties, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return AudioProperties{}, err
	}
	defer stream.Close()
	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return AudioProperties{}, errors.New("flac stream missing sample info")
	}
	return AudioProperties{
		LengthMs:   int(si.NSamples * 1000 / uint64(si.SampleRate)),
		SampleRate: int(si.SampleRate),
		Channels:   int(si.NChannels),
	}, nil
}

func wavProperties(path string) (AudioProperties, error) {
	f, err := os.Open(path)
	if err != nil {
		return AudioProperties{}, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return AudioProperties{}, errors.New("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return AudioProperties{}, errors.New("invalid wav header")
	}
	st, err := f.Stat()
	if err != nil {
		return AudioProperties{}, err
	}
	pcmBytes := max(st.Size()-44, 0)
	frameSize := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if frameSize <= 0 {
		return AudioProperties{}, errors.New("invalid sample frame size")
	}
	return AudioProperties{
		LengthMs:   int(pcmBytes / frameSize * 1000 / int64(dec.SampleRate)),
		BitRate:    int(dec.SampleRate) * int(dec.BitDepth) * int(dec.NumChans) / 1000,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}, nil
}
