package draggable

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/dragmask/internal/region"
	"gopkg.in/yaml.v3"
)

// Entry is one rectangle reported by the content layer, tagged as draggable
// surface or as an exclusion. The order of entries in a list is significant.
type Entry struct {
	Bounds    region.Rect `json:"bounds"`
	Draggable bool        `json:"draggable"`
}

// rawEntry accepts either edge form (left/top/right/bottom) or origin/size
// form (x/y/width/height). JSON documents decode through the same path since
// YAML is a superset of JSON.
type rawEntry struct {
	Left      *int `yaml:"left"`
	Top       *int `yaml:"top"`
	Right     *int `yaml:"right"`
	Bottom    *int `yaml:"bottom"`
	X         *int `yaml:"x"`
	Y         *int `yaml:"y"`
	Width     *int `yaml:"width"`
	Height    *int `yaml:"height"`
	Draggable bool `yaml:"draggable"`
}

func (r rawEntry) entry() (Entry, error) {
	edges := r.Left != nil || r.Top != nil || r.Right != nil || r.Bottom != nil
	sized := r.X != nil || r.Y != nil || r.Width != nil || r.Height != nil
	switch {
	case edges && sized:
		return Entry{}, errors.New("mixes left/top/right/bottom with x/y/width/height")
	case sized:
		return Entry{
			Bounds:    region.XYWH(deref(r.X), deref(r.Y), deref(r.Width), deref(r.Height)),
			Draggable: r.Draggable,
		}, nil
	default:
		return Entry{
			Bounds: region.Rect{
				Left:   deref(r.Left),
				Top:    deref(r.Top),
				Right:  deref(r.Right),
				Bottom: deref(r.Bottom),
			},
			Draggable: r.Draggable,
		}, nil
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ParseEntries decodes an ordered entry list from YAML or JSON. An empty
// document yields an empty list.
func ParseEntries(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []rawEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, re := range raw {
		e, err := re.entry()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadEntries reads an entry list from path. A path of "-" reads stdin.
func LoadEntries(path string) ([]Entry, error) {
	if path == "-" {
		return ParseEntries(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open entries file: %w", err)
	}
	defer f.Close()

	entries, err := ParseEntries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
