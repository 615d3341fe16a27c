package audiotags

import (
	"fmt"
	"strings"

	goflac "github.com/go-flac/go-flac"
	"github.com/go-flac/flacvorbis"
)

type vorbisContainer struct{}

func (vorbisContainer) name() string {
	return "vorbis"
}

func (vorbisContainer) readReplayGain(path string) (ReplayGain, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return ReplayGain{}, fmt.Errorf("parse flac: %w", err)
	}
	var rg ReplayGain
	for _, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		cmts, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return ReplayGain{}, fmt.Errorf("parse vorbis comment: %w", err)
		}
		for _, c := range cmts.Comments {
			key, value, ok := strings.Cut(c, "=")
			if !ok {
				continue
			}
			rg = rg.set(key, value)
		}
	}
	return rg, nil
}

func (vorbisContainer) writeReplayGain(path string, rg ReplayGain) error {
	fields := rg.fields()
	if len(fields) == 0 {
		return nil
	}

	f, err := goflac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac: %w", err)
	}

	index := -1
	var cmts *flacvorbis.MetaDataBlockVorbisComment
	for i, meta := range f.Meta {
		if meta.Type != goflac.VorbisComment {
			continue
		}
		cmts, err = flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return fmt.Errorf("parse vorbis comment: %w", err)
		}
		index = i
		break
	}
	if cmts == nil {
		cmts = flacvorbis.New()
	}
	cmts.Comments = replaceComments(cmts.Comments, fields)

	block := cmts.Marshal()
	if index >= 0 {
		f.Meta[index] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	err = f.Save(path)
	if err != nil {
		return fmt.Errorf("save flac: %w", err)
	}
	return nil
}

// replaceComments drops all comments with the keys of fields and appends fields in upper case KEY=value form.
func replaceComments(comments []string, fields []replayGainField) []string {
	replaced := make(map[string]bool, len(fields))
	for _, f := range fields {
		replaced[f.key] = true
	}
	result := make([]string, 0, len(comments)+len(fields))
	for _, c := range comments {
		key, _, _ := strings.Cut(c, "=")
		if replaced[strings.ToLower(key)] {
			continue
		}
		result = append(result, c)
	}
	for _, f := range fields {
		result = append(result, strings.ToUpper(f.key)+"="+f.value)
	}
	return result
}
