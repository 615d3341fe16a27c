package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/juho05/melodeon/audiotags"
)

const probeTimeout = 30 * time.Second

var ErrNoFFprobe = errors.New("ffprobe not available")

// Probe reads audio properties of the file at path with ffprobe.
func Probe(path string) (audiotags.AudioProperties, error) {
	err := initialize()
	if err != nil {
		return audiotags.AudioProperties{}, fmt.Errorf("probe: %w", err)
	}
	if ffprobePath == "" {
		return audiotags.AudioProperties{}, ErrNoFFprobe
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "format=duration,bit_rate:stream=sample_rate,channels",
		"-of", "json",
		path,
	)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	err = cmd.Run()
	if err != nil {
		return audiotags.AudioProperties{}, fmt.Errorf("probe: %w: %s", err, lastLine(stderr.String()))
	}
	props, err := parseProbeOutput(out.Bytes())
	if err != nil {
		return audiotags.AudioProperties{}, fmt.Errorf("probe: %w", err)
	}
	return props, nil
}

type probeOutput struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

func parseProbeOutput(data []byte) (audiotags.AudioProperties, error) {
	var output probeOutput
	err := json.Unmarshal(data, &output)
	if err != nil {
		return audiotags.AudioProperties{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if output.Format.Duration == "" {
		return audiotags.AudioProperties{}, errors.New("duration not found in ffprobe output")
	}
	duration, err := strconv.ParseFloat(output.Format.Duration, 64)
	if err != nil {
		return audiotags.AudioProperties{}, fmt.Errorf("parse duration %q: %w", output.Format.Duration, err)
	}
	props := audiotags.AudioProperties{
		LengthMs: int(math.Round(duration * 1000)),
	}
	if bitRate, err := strconv.Atoi(output.Format.BitRate); err == nil {
		props.BitRate = bitRate / 1000
	}
	if len(output.Streams) > 0 {
		props.SampleRate, _ = strconv.Atoi(output.Streams[0].SampleRate)
		props.Channels = output.Streams[0].Channels
	}
	return props, nil
}
