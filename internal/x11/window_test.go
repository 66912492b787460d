package x11

import (
	"math"
	"slices"
	"testing"

	"github.com/1broseidon/dragmask/internal/region"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestEncodeDecodeRects_PreservesRegion(t *testing.T) {
	mask := region.Empty().
		Add(region.XYWH(0, 0, 100, 20)).
		Subtract(region.XYWH(80, 4, 12, 12)).
		Add(region.XYWH(-10, -5, 4, 4))

	nums := encodeRects(mask.Rects())
	if len(nums) != mask.Len()*4 {
		t.Fatalf("expected %d numbers, got %d", mask.Len()*4, len(nums))
	}

	rects, err := decodeRects(nums)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := region.FromRects(rects...); !got.Equal(mask) {
		t.Fatalf("expected %v, got %v", mask.Rects(), got.Rects())
	}
}

func TestEncodeRects_NegativeOriginUsesTwosComplement(t *testing.T) {
	nums := encodeRects([]region.Rect{region.XYWH(-1, -2, 3, 4)})
	want := []uint{0xffffffff, 0xfffffffe, 3, 4}
	if !slices.Equal(nums, want) {
		t.Fatalf("expected %v, got %v", want, nums)
	}
}

func TestDecodeRects_RejectsPartialQuad(t *testing.T) {
	if _, err := decodeRects([]uint{1, 2, 3}); err == nil {
		t.Fatalf("expected error for truncated property")
	}
	rects, err := decodeRects(nil)
	if err != nil || len(rects) != 0 {
		t.Fatalf("expected empty property to decode to no rects, got %v, %v", rects, err)
	}
}

func TestShapeRects_ClampsTo16Bits(t *testing.T) {
	got := shapeRects([]region.Rect{
		region.XYWH(10, 20, 30, 40),
		{Left: math.MaxInt16 + 10, Top: 0, Right: math.MaxInt16 + 20, Bottom: 5},
		{Left: -100000, Top: 0, Right: 10, Bottom: 5},
	})
	want := []xproto.Rectangle{
		{X: 10, Y: 20, Width: 30, Height: 40},
		{X: math.MinInt16, Y: 0, Width: uint16(10 - math.MinInt16), Height: 5},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestOverlayRects_RelativeToBoundsForFarOrigins(t *testing.T) {
	mask := region.FromRects(
		region.XYWH(40000, 50000, 10, 5),
		region.XYWH(40020, 50010, 5, 5),
	)
	got := overlayRects(mask)
	want := []xproto.Rectangle{
		{X: 0, Y: 0, Width: 10, Height: 5},
		{X: 20, Y: 10, Width: 5, Height: 5},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	neg := region.FromRects(region.XYWH(-40000, -40000, 8, 8))
	if got := overlayRects(neg); !slices.Equal(got, []xproto.Rectangle{{Width: 8, Height: 8}}) {
		t.Fatalf("expected overlay-local rect at origin, got %v", got)
	}
}

func TestFrameHints_HasNativeFrame(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name  string
		hints frameHints
		want  bool
	}{
		{name: "no hints", hints: frameHints{}, want: true},
		{name: "motif undecorated", hints: frameHints{motifDecorated: &no}, want: false},
		{name: "motif decorated", hints: frameHints{motifDecorated: &yes}, want: true},
		{name: "zero extents", hints: frameHints{extents: &ewmh.FrameExtents{}}, want: false},
		{
			name:  "extents with title bar",
			hints: frameHints{extents: &ewmh.FrameExtents{Top: 24}},
			want:  true,
		},
		{
			name:  "motif undecorated wins over extents",
			hints: frameHints{motifDecorated: &no, extents: &ewmh.FrameExtents{Top: 24}},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hints.hasNativeFrame(); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
