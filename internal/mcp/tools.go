package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/platform"
)

func (s *Server) handleComposeRegions(_ context.Context, _ *mcpsdk.CallToolRequest, args ComposeRegionsInput) (*mcpsdk.CallToolResult, ComposeRegionsOutput, error) {
	mask := draggable.Compose(toEntries(args.Entries))
	return nil, ComposeRegionsOutput{Rects: mask.Rects(), Area: mask.Area()}, nil
}

func (s *Server) handleApplyRegions(_ context.Context, _ *mcpsdk.CallToolRequest, args ApplyRegionsInput) (*mcpsdk.CallToolResult, ApplyRegionsOutput, error) {
	win, err := s.window(args.WindowID)
	if err != nil {
		return nil, ApplyRegionsOutput{}, err
	}

	res := s.compositor.Update(win, toEntries(args.Entries))
	out := ApplyRegionsOutput{
		Outcome: string(res.Outcome),
		Rects:   res.Mask.Rects(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleGetRegion(_ context.Context, _ *mcpsdk.CallToolRequest, args GetRegionInput) (*mcpsdk.CallToolResult, GetRegionOutput, error) {
	win, err := s.window(args.WindowID)
	if err != nil {
		return nil, GetRegionOutput{}, err
	}

	out := GetRegionOutput{
		WindowID: args.WindowID,
		Title:    win.Title(),
		Framed:   win.HasNativeFrame(),
	}
	mask, err := win.DraggableRegion()
	switch {
	case errors.Is(err, draggable.ErrNoRegion):
	case err != nil:
		return nil, GetRegionOutput{}, err
	default:
		out.Installed = true
		out.Rects = mask.Rects()
	}
	return nil, out, nil
}

func (s *Server) window(id uint32) (platform.MaskWindow, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("no display connection; only compose_regions is available")
	}
	if id == 0 {
		return nil, fmt.Errorf("window_id is required")
	}
	return s.backend.Window(platform.WindowID(id))
}
