package audiotags

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/juho05/melodeon"
)

const mp4FreeformMean = "com.apple.iTunes"

var errInvalidAtom = errors.New("invalid atom")

type mp4Container struct{}

func (mp4Container) name() string {
	return "mp4"
}

// atom is a box located in a byte slice, offsets are relative to that slice.
type atom struct {
	typ        string
	start      int
	headerSize int
	end        int
}

func (a atom) content(buf []byte) []byte {
	return buf[a.start+a.headerSize : a.end]
}

func parseAtoms(buf []byte) ([]atom, error) {
	atoms := make([]atom, 0, 8)
	pos := 0
	for pos < len(buf) {
		if len(buf)-pos < 8 {
			return nil, fmt.Errorf("%w: truncated header at %d", errInvalidAtom, pos)
		}
		size := uint64(binary.BigEndian.Uint32(buf[pos:]))
		typ := string(buf[pos+4 : pos+8])
		headerSize := 8
		switch size {
		case 0:
			size = uint64(len(buf) - pos)
		case 1:
			if len(buf)-pos < 16 {
				return nil, fmt.Errorf("%w: truncated extended header at %d", errInvalidAtom, pos)
			}
			size = binary.BigEndian.Uint64(buf[pos+8:])
			headerSize = 16
		}
		if size < uint64(headerSize) || size > uint64(len(buf)-pos) {
			return nil, fmt.Errorf("%w: %q has invalid size %d", errInvalidAtom, typ, size)
		}
		atoms = append(atoms, atom{
			typ:        typ,
			start:      pos,
			headerSize: headerSize,
			end:        pos + int(size),
		})
		pos += int(size)
	}
	return atoms, nil
}

func findAtom(atoms []atom, typ string) (atom, bool) {
	for _, a := range atoms {
		if a.typ == typ {
			return a, true
		}
	}
	return atom{}, false
}

func buildAtom(typ string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	buf := make([]byte, 8, size)
	binary.BigEndian.PutUint32(buf, uint32(size))
	copy(buf[4:], typ)
	for _, p := range payload {
		buf = append(buf, p...)
	}
	return buf
}

// metaChildrenOffset returns the offset of the first child of a meta atom.
// iTunes writes meta as a full box, QuickTime files omit version and flags.
func metaChildrenOffset(content []byte) int {
	if len(content) >= 8 && string(content[4:8]) == "hdlr" {
		return 0
	}
	return 4
}

func freeformAtom(key, value string) []byte {
	fullBox := []byte{0, 0, 0, 0}
	dataHeader := []byte{0, 0, 0, 1, 0, 0, 0, 0}
	return buildAtom("----",
		buildAtom("mean", fullBox, []byte(mp4FreeformMean)),
		buildAtom("name", fullBox, []byte(key)),
		buildAtom("data", dataHeader, []byte(value)),
	)
}

// parseFreeform returns the name and the text value of a ---- atom.
func parseFreeform(content []byte) (name, value string, err error) {
	children, err := parseAtoms(content)
	if err != nil {
		return "", "", err
	}
	for _, c := range children {
		body := c.content(content)
		switch c.typ {
		case "name":
			if len(body) < 4 {
				return "", "", fmt.Errorf("%w: short name atom", errInvalidAtom)
			}
			name = string(body[4:])
		case "data":
			if len(body) < 8 {
				return "", "", fmt.Errorf("%w: short data atom", errInvalidAtom)
			}
			value = string(body[8:])
		}
	}
	return name, value, nil
}

func (mp4Container) readReplayGain(path string) (ReplayGain, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return ReplayGain{}, err
	}
	top, err := parseAtoms(buf)
	if err != nil {
		return ReplayGain{}, err
	}
	ilst, ok := lookupAtomPath(buf, top, "moov", "udta", "meta", "ilst")
	if !ok {
		return ReplayGain{}, nil
	}
	items, err := parseAtoms(ilst)
	if err != nil {
		return ReplayGain{}, err
	}
	var rg ReplayGain
	for _, item := range items {
		if item.typ != "----" {
			continue
		}
		name, value, err := parseFreeform(item.content(ilst))
		if err != nil {
			return ReplayGain{}, err
		}
		rg = rg.set(name, value)
	}
	return rg, nil
}

// lookupAtomPath returns the content of the atom at the given path.
func lookupAtomPath(buf []byte, atoms []atom, path ...string) ([]byte, bool) {
	for i, typ := range path {
		a, ok := findAtom(atoms, typ)
		if !ok {
			return nil, false
		}
		content := a.content(buf)
		if typ == "meta" {
			content = content[min(metaChildrenOffset(content), len(content)):]
		}
		if i == len(path)-1 {
			return content, true
		}
		children, err := parseAtoms(content)
		if err != nil {
			return nil, false
		}
		buf, atoms = content, children
	}
	return nil, false
}

func (mp4Container) writeReplayGain(path string, rg ReplayGain) error {
	fields := rg.fields()
	if len(fields) == 0 {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	top, err := parseAtoms(buf)
	if err != nil {
		return err
	}
	moov, ok := findAtom(top, "moov")
	if !ok {
		return fmt.Errorf("%w: missing moov", errInvalidAtom)
	}

	newMoov, err := rewriteMoov(moov.content(buf), fields)
	if err != nil {
		return fmt.Errorf("rewrite moov: %w", err)
	}

	delta := int64(len(newMoov)) - int64(moov.end-moov.start)
	if delta != 0 && moov.end < len(buf) {
		err = shiftChunkOffsets(newMoov, uint64(moov.end), delta)
		if err != nil {
			return fmt.Errorf("shift chunk offsets: %w", err)
		}
	}

	var out bytes.Buffer
	out.Grow(len(buf) + int(max(delta, 0)))
	out.Write(buf[:moov.start])
	out.Write(newMoov)
	out.Write(buf[moov.end:])

	tmpPath := melodeon.TempName(path)
	err = os.WriteFile(tmpPath, out.Bytes(), info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	err = os.Rename(tmpPath, path)
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// rewriteMoov returns a complete moov atom whose ilst contains fields as freeform items.
func rewriteMoov(moov []byte, fields []replayGainField) ([]byte, error) {
	children, err := parseAtoms(moov)
	if err != nil {
		return nil, err
	}
	var udta []byte
	if a, ok := findAtom(children, "udta"); ok {
		udta = a.content(moov)
	}
	newUdta, err := rewriteUdta(udta, fields)
	if err != nil {
		return nil, fmt.Errorf("udta: %w", err)
	}
	return buildAtom("moov", replaceChild(moov, children, "udta", newUdta)), nil
}

func rewriteUdta(udta []byte, fields []replayGainField) ([]byte, error) {
	children, err := parseAtoms(udta)
	if err != nil {
		return nil, err
	}
	var newMeta []byte
	if a, ok := findAtom(children, "meta"); ok {
		newMeta, err = rewriteMeta(a.content(udta), fields)
	} else {
		newMeta, err = rewriteMeta(nil, fields)
	}
	if err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	return buildAtom("udta", replaceChild(udta, children, "meta", newMeta)), nil
}

func rewriteMeta(meta []byte, fields []replayGainField) ([]byte, error) {
	if meta == nil {
		hdlr := buildAtom("hdlr",
			[]byte{0, 0, 0, 0, 0, 0, 0, 0},
			[]byte("mdirappl"),
			make([]byte, 9),
		)
		meta = append([]byte{0, 0, 0, 0}, hdlr...)
	}
	offset := metaChildrenOffset(meta)
	if offset > len(meta) {
		return nil, fmt.Errorf("%w: short meta atom", errInvalidAtom)
	}
	children, err := parseAtoms(meta[offset:])
	if err != nil {
		return nil, err
	}
	var ilst []byte
	if a, ok := findAtom(children, "ilst"); ok {
		ilst = a.content(meta[offset:])
	}
	newIlst, err := rewriteIlst(ilst, fields)
	if err != nil {
		return nil, fmt.Errorf("ilst: %w", err)
	}
	return buildAtom("meta", meta[:offset], replaceChild(meta[offset:], children, "ilst", newIlst)), nil
}

func rewriteIlst(ilst []byte, fields []replayGainField) ([]byte, error) {
	items, err := parseAtoms(ilst)
	if err != nil {
		return nil, err
	}
	replaced := make(map[string]bool, len(fields))
	for _, f := range fields {
		replaced[f.key] = true
	}
	var content bytes.Buffer
	for _, item := range items {
		if item.typ == "----" {
			name, _, err := parseFreeform(item.content(ilst))
			if err != nil {
				return nil, err
			}
			if replaced[strings.ToLower(name)] {
				continue
			}
		}
		content.Write(ilst[item.start:item.end])
	}
	for _, f := range fields {
		content.Write(freeformAtom(f.key, f.value))
	}
	return buildAtom("ilst", content.Bytes()), nil
}

// replaceChild returns the children of parent with the atom typ replaced by (or extended with) newChild.
func replaceChild(parent []byte, children []atom, typ string, newChild []byte) []byte {
	var out bytes.Buffer
	found := false
	for _, c := range children {
		if c.typ == typ && !found {
			out.Write(newChild)
			found = true
			continue
		}
		out.Write(parent[c.start:c.end])
	}
	if !found {
		out.Write(newChild)
	}
	return out.Bytes()
}

// shiftChunkOffsets adds delta to every chunk offset in the stco and co64 tables of moov
// that points at or behind the original end of moov.
func shiftChunkOffsets(moov []byte, moovEnd uint64, delta int64) error {
	top, err := parseAtoms(moov)
	if err != nil {
		return err
	}
	content := top[0].content(moov)
	traks, err := parseAtoms(content)
	if err != nil {
		return err
	}
	for _, trak := range traks {
		if trak.typ != "trak" {
			continue
		}
		stbl, ok := lookupAtomPath(content[trak.start:trak.end], []atom{{typ: "trak", start: 0, headerSize: trak.headerSize, end: trak.end - trak.start}}, "trak", "mdia", "minf", "stbl")
		if !ok {
			continue
		}
		tables, err := parseAtoms(stbl)
		if err != nil {
			return err
		}
		for _, t := range tables {
			switch t.typ {
			case "stco":
				err = shiftTable(t.content(stbl), 4, moovEnd, delta)
			case "co64":
				err = shiftTable(t.content(stbl), 8, moovEnd, delta)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// shiftTable patches a chunk offset table in place.
func shiftTable(table []byte, entrySize int, moovEnd uint64, delta int64) error {
	if len(table) < 8 {
		return fmt.Errorf("%w: short chunk offset table", errInvalidAtom)
	}
	count := int(binary.BigEndian.Uint32(table[4:]))
	if len(table) < 8+count*entrySize {
		return fmt.Errorf("%w: truncated chunk offset table", errInvalidAtom)
	}
	for i := range count {
		pos := 8 + i*entrySize
		if entrySize == 4 {
			offset := uint64(binary.BigEndian.Uint32(table[pos:]))
			if offset < moovEnd {
				continue
			}
			shifted := int64(offset) + delta
			if shifted < 0 || shifted > math.MaxUint32 {
				return fmt.Errorf("%w: chunk offset overflow", errInvalidAtom)
			}
			binary.BigEndian.PutUint32(table[pos:], uint32(shifted))
		} else {
			offset := binary.BigEndian.Uint64(table[pos:])
			if offset < moovEnd {
				continue
			}
			binary.BigEndian.PutUint64(table[pos:], uint64(int64(offset)+delta))
		}
	}
	return nil
}
