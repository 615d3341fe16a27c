package audiotags

import (
	"fmt"
	"strings"

	"github.com/bogem/id3v2/v2"
)

const id3UserTextFrame = "TXXX"

type id3Container struct{}

func (id3Container) name() string {
	return "id3v2"
}

func (id3Container) readReplayGain(path string) (ReplayGain, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return ReplayGain{}, fmt.Errorf("open: %w", err)
	}
	defer tag.Close()

	var rg ReplayGain
	for _, f := range tag.GetFrames(id3UserTextFrame) {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		rg = rg.set(udtf.Description, udtf.Value)
	}
	return rg, nil
}

func (id3Container) writeReplayGain(path string, rg ReplayGain) error {
	fields := rg.fields()
	if len(fields) == 0 {
		return nil
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer tag.Close()

	replaced := make(map[string]bool, len(fields))
	for _, f := range fields {
		replaced[f.key] = true
	}

	existing := tag.GetFrames(id3UserTextFrame)
	kept := make([]id3v2.UserDefinedTextFrame, 0, len(existing))
	for _, f := range existing {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok || replaced[strings.ToLower(udtf.Description)] {
			continue
		}
		kept = append(kept, udtf)
	}

	tag.DeleteFrames(id3UserTextFrame)
	for _, udtf := range kept {
		tag.AddUserDefinedTextFrame(udtf)
	}
	for _, f := range fields {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    tag.DefaultEncoding(),
			Description: strings.ToUpper(f.key),
			Value:       f.value,
		})
	}

	err = tag.Save()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
