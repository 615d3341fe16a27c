package ffmpeg

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/juho05/log"
)

var (
	ffmpegPath  string
	ffprobePath string
	initOnce    sync.Once
	initErr     error
)

func initialize() error {
	initOnce.Do(func() {
		var err error
		ffmpegPath, err = exec.LookPath("ffmpeg")
		if err != nil && !errors.Is(err, exec.ErrDot) {
			initErr = fmt.Errorf("initialize ffmpeg: %w", err)
			return
		}
		log.Tracef("FFmpeg path: %s", ffmpegPath)

		ffprobePath, err = exec.LookPath("ffprobe")
		if err != nil && !errors.Is(err, exec.ErrDot) {
			log.Warnf("ffprobe not found, probing unknown containers is disabled: %s", err)
			ffprobePath = ""
			return
		}
		log.Tracef("FFprobe path: %s", ffprobePath)
	})
	return initErr
}
