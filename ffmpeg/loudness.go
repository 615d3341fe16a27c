package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// ReplayGain 2.0 reference level in LUFS.
const ReferenceLoudness = -18.0

var ErrNoLoudness = errors.New("no loudness measurement")

// Loudness is an EBU R128 measurement.
type Loudness struct {
	// Integrated loudness in LUFS.
	Integrated float64
	// TruePeak in dBFS.
	TruePeak float64
}

// TrackGain returns the ReplayGain track gain in dB.
func (l Loudness) TrackGain() float64 {
	return ReferenceLoudness - l.Integrated
}

// TrackPeak returns the linear ReplayGain track peak.
func (l Loudness) TrackPeak() float64 {
	return math.Pow(10, l.TruePeak/20)
}

type Analyzer struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewAnalyzer returns an analyzer that runs at most concurrency ffmpeg processes at once
// and kills each of them after timeout.
func NewAnalyzer(concurrency int, timeout time.Duration) (*Analyzer, error) {
	err := initialize()
	if err != nil {
		return nil, fmt.Errorf("new analyzer: %w", err)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Analyzer{
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
	}, nil
}

func (a *Analyzer) Analyze(ctx context.Context, path string) (Loudness, error) {
	err := a.sem.Acquire(ctx, 1)
	if err != nil {
		return Loudness{}, fmt.Errorf("analyze loudness: %w", err)
	}
	defer a.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-nostats", "-i", path, "-map", "0:a:0", "-af", "ebur128=peak=true", "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err = cmd.Run()
	if ctx.Err() != nil {
		return Loudness{}, fmt.Errorf("analyze loudness: %w", ctx.Err())
	}
	if err != nil {
		return Loudness{}, fmt.Errorf("analyze loudness: %w: %s", err, lastLine(stderr.String()))
	}
	loudness, err := parseEBUR128(stderr.String())
	if err != nil {
		return Loudness{}, fmt.Errorf("analyze loudness: %w", err)
	}
	return loudness, nil
}

var (
	integratedRegex = regexp.MustCompile(`(?m)^\s*I:\s+(\S+)\s+LUFS`)
	truePeakRegex   = regexp.MustCompile(`(?m)^\s*Peak:\s+(\S+)\s+dBFS`)
)

// parseEBUR128 extracts the summary printed by the ebur128 filter.
func parseEBUR128(output string) (Loudness, error) {
	index := strings.LastIndex(output, "Summary:")
	if index < 0 {
		return Loudness{}, fmt.Errorf("%w: missing summary", ErrNoLoudness)
	}
	summary := output[index:]

	m := integratedRegex.FindStringSubmatch(summary)
	if m == nil {
		return Loudness{}, fmt.Errorf("%w: missing integrated loudness", ErrNoLoudness)
	}
	integrated, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsInf(integrated, 0) || math.IsNaN(integrated) {
		return Loudness{}, fmt.Errorf("%w: integrated loudness %q", ErrNoLoudness, m[1])
	}

	m = truePeakRegex.FindStringSubmatch(summary)
	if m == nil {
		return Loudness{}, fmt.Errorf("%w: missing true peak", ErrNoLoudness)
	}
	peak, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(peak) {
		return Loudness{}, fmt.Errorf("%w: true peak %q", ErrNoLoudness, m[1])
	}

	return Loudness{
		Integrated: integrated,
		TruePeak:   peak,
	}, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
