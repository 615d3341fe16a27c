package audiotags

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedContainer = errors.New("unsupported tag container")

// container reads and writes ReplayGain fields in one tag container family.
type container interface {
	name() string
	readReplayGain(path string) (ReplayGain, error)
	writeReplayGain(path string, rg ReplayGain) error
}

// Containers is the set of tag containers present in a file.
type Containers uint8

const (
	ContainerID3v2 Containers = 1 << iota
	ContainerVorbis
	ContainerMP4
)

func (c Containers) Has(other Containers) bool {
	return c&other != 0
}

func (c Containers) String() string {
	names := make([]string, 0, 3)
	for _, ct := range c.list() {
		names = append(names, ct.name())
	}
	return strings.Join(names, "+")
}

func (c Containers) list() []container {
	list := make([]container, 0, 3)
	if c.Has(ContainerID3v2) {
		list = append(list, id3Container{})
	}
	if c.Has(ContainerVorbis) {
		list = append(list, vorbisContainer{})
	}
	if c.Has(ContainerMP4) {
		list = append(list, mp4Container{})
	}
	return list
}

// ProbeContainers determines the tag containers of the file at path from its extension and magic bytes.
func ProbeContainers(path string) (Containers, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("probe containers: %w", err)
	}
	defer f.Close()
	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("probe containers: %w", err)
	}
	head = head[:n]

	var c Containers
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		c |= ContainerID3v2
	case ".flac":
		c |= ContainerVorbis
	case ".m4a", ".m4b", ".mp4", ".alac", ".aac":
		if len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")) {
			c |= ContainerMP4
		}
	}
	if bytes.HasPrefix(head, []byte("ID3")) {
		c |= ContainerID3v2
	}
	if bytes.HasPrefix(head, []byte("fLaC")) {
		c |= ContainerVorbis
	}
	if len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")) {
		c |= ContainerMP4
	}
	if c == 0 {
		return 0, ErrUnsupportedContainer
	}
	return c, nil
}

// WriteReplayGain stores every set field of rg in all tag containers of the file.
// Fields of rg that are nil are left untouched.
func WriteReplayGain(path string, rg ReplayGain) error {
	containers, err := ProbeContainers(path)
	if err != nil {
		return fmt.Errorf("write replay gain: %w", err)
	}
	var errs []error
	for _, c := range containers.list() {
		err := c.writeReplayGain(path, rg)
		if err != nil {
			errs = append(errs, fmt.Errorf("write replay gain (%s): %w", c.name(), err))
		}
	}
	return errors.Join(errs...)
}

// ReadReplayGain reads ReplayGain fields directly from the tag containers of the file.
// Values of earlier containers take precedence.
func ReadReplayGain(path string) (ReplayGain, error) {
	containers, err := ProbeContainers(path)
	if err != nil {
		return ReplayGain{}, fmt.Errorf("read replay gain: %w", err)
	}
	var rg ReplayGain
	var errs []error
	for _, c := range containers.list() {
		r, err := c.readReplayGain(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read replay gain (%s): %w", c.name(), err))
			continue
		}
		rg = rg.merge(r)
	}
	if rg.IsEmpty() && len(errs) > 0 {
		return rg, errors.Join(errs...)
	}
	return rg, nil
}
