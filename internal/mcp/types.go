package mcp

import (
	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/region"
)

// EntryInput is one rectangle of an entry list, in window-local edges.
type EntryInput struct {
	Left      int  `json:"left" jsonschema:"Left edge (inclusive)"`
	Top       int  `json:"top" jsonschema:"Top edge (inclusive)"`
	Right     int  `json:"right" jsonschema:"Right edge (exclusive)"`
	Bottom    int  `json:"bottom" jsonschema:"Bottom edge (exclusive)"`
	Draggable bool `json:"draggable" jsonschema:"True for draggable surface, false for an exclusion such as a button"`
}

// ComposeRegionsInput is the input for the compose_regions tool.
type ComposeRegionsInput struct {
	Entries []EntryInput `json:"entries" jsonschema:"Ordered entry list. Later entries override earlier ones where they overlap."`
}

// ComposeRegionsOutput is the output for the compose_regions tool.
type ComposeRegionsOutput struct {
	Rects []region.Rect `json:"rects"`
	Area  int           `json:"area"`
}

// ApplyRegionsInput is the input for the apply_regions tool.
type ApplyRegionsInput struct {
	WindowID uint32       `json:"window_id" jsonschema:"X11 window id"`
	Entries  []EntryInput `json:"entries" jsonschema:"Ordered entry list. Later entries override earlier ones where they overlap."`
}

// ApplyRegionsOutput is the output for the apply_regions tool.
type ApplyRegionsOutput struct {
	Outcome string        `json:"outcome"`
	Rects   []region.Rect `json:"rects"`
	Error   string        `json:"error,omitempty"`
}

// GetRegionInput is the input for the get_region tool.
type GetRegionInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"X11 window id"`
}

// GetRegionOutput is the output for the get_region tool.
type GetRegionOutput struct {
	WindowID  uint32        `json:"window_id"`
	Title     string        `json:"title"`
	Framed    bool          `json:"framed"`
	Installed bool          `json:"installed"`
	Rects     []region.Rect `json:"rects"`
}

func toEntries(in []EntryInput) []draggable.Entry {
	out := make([]draggable.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, draggable.Entry{
			Bounds:    region.Rect{Left: e.Left, Top: e.Top, Right: e.Right, Bottom: e.Bottom},
			Draggable: e.Draggable,
		})
	}
	return out
}
