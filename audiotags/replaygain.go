package audiotags

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	keyTrackGain = "replaygain_track_gain"
	keyTrackPeak = "replaygain_track_peak"
	keyAlbumGain = "replaygain_album_gain"
	keyAlbumPeak = "replaygain_album_peak"
)

// ReplayGain holds gains in dB and peaks on a linear scale.
type ReplayGain struct {
	TrackGain *float64
	TrackPeak *float64
	AlbumGain *float64
	AlbumPeak *float64
}

func (rg ReplayGain) IsEmpty() bool {
	return rg.TrackGain == nil && rg.TrackPeak == nil && rg.AlbumGain == nil && rg.AlbumPeak == nil
}

// merge fills every unset field of rg with the value of other.
func (rg ReplayGain) merge(other ReplayGain) ReplayGain {
	if rg.TrackGain == nil {
		rg.TrackGain = other.TrackGain
	}
	if rg.TrackPeak == nil {
		rg.TrackPeak = other.TrackPeak
	}
	if rg.AlbumGain == nil {
		rg.AlbumGain = other.AlbumGain
	}
	if rg.AlbumPeak == nil {
		rg.AlbumPeak = other.AlbumPeak
	}
	return rg
}

type replayGainField struct {
	key   string
	value string
}

// fields returns the set fields of rg formatted as tag values.
func (rg ReplayGain) fields() []replayGainField {
	fields := make([]replayGainField, 0, 4)
	if rg.TrackGain != nil {
		fields = append(fields, replayGainField{key: keyTrackGain, value: FormatGain(*rg.TrackGain)})
	}
	if rg.TrackPeak != nil {
		fields = append(fields, replayGainField{key: keyTrackPeak, value: FormatPeak(*rg.TrackPeak)})
	}
	if rg.AlbumGain != nil {
		fields = append(fields, replayGainField{key: keyAlbumGain, value: FormatGain(*rg.AlbumGain)})
	}
	if rg.AlbumPeak != nil {
		fields = append(fields, replayGainField{key: keyAlbumPeak, value: FormatPeak(*rg.AlbumPeak)})
	}
	return fields
}

func (rg ReplayGain) set(key, value string) ReplayGain {
	switch strings.ToLower(key) {
	case keyTrackGain:
		rg.TrackGain = ParseGain(value)
	case keyTrackPeak:
		rg.TrackPeak = ParseGain(value)
	case keyAlbumGain:
		rg.AlbumGain = ParseGain(value)
	case keyAlbumPeak:
		rg.AlbumPeak = ParseGain(value)
	}
	return rg
}

func isReplayGainKey(key string) bool {
	switch strings.ToLower(key) {
	case keyTrackGain, keyTrackPeak, keyAlbumGain, keyAlbumPeak:
		return true
	}
	return false
}

// ParseGain parses gain ("-6.50 dB", "+1.2 dB") and peak ("0.988") tag values.
func ParseGain(value string) *float64 {
	str := strings.ToLower(value)
	str = strings.ReplaceAll(str, "db", "")
	str = strings.ReplaceAll(str, "+", "")
	str = strings.TrimSpace(str)
	if str == "" {
		return nil
	}
	gain, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(gain) || math.IsInf(gain, 0) {
		return nil
	}
	return &gain
}

func FormatGain(gain float64) string {
	return fmt.Sprintf("%.2f dB", gain)
}

func FormatPeak(peak float64) string {
	return fmt.Sprintf("%.6f", peak)
}
