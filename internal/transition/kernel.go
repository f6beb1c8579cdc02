// Package transition implements the transition kernel (C2) and manager (C3):
// a pure per-frame pixel fill and the per-monitor lifecycle around it.
package transition

import (
	"math"
	"unsafe"
)

// BytesPerPixel is the size of one native 32-bit ARGB (BGRA in memory) pixel.
const BytesPerPixel = 4

// Kernel maps (from, to, frame index) to an output buffer. Implementations
// must be pure aside from writing exactly width*height*4 bytes into out on
// each non-terminal frame, and must declare a finite terminal frame.
type Kernel interface {
	// Render writes the frame's pixels into out and returns false, or, on
	// the terminal frame, leaves out untouched and returns true (the caller
	// then retires the monitor).
	Render(frameIndex uint32, from, to, out []byte) (done bool)
}

// GrowCircle implements the specified default kernel: an expanding disc
// centered on the buffer, revealing "to" inside the disc and leaving "from"
// outside it. max_radius is chosen to cover every corner, and at frame
// n_frames every pixel shows "to".
type GrowCircle struct {
	Width, Height int
	NFrames       uint32

	originX, originY float64
	maxRadius        float64
}

// DefaultGrowCircleFrames is the frame count the original implementation
// uses absent an override.
const DefaultGrowCircleFrames = 40

// NewGrowCircle builds a GrowCircle kernel for the given buffer dimensions.
// nFrames <= 0 selects DefaultGrowCircleFrames.
func NewGrowCircle(width, height int, nFrames uint32) *GrowCircle {
	if nFrames == 0 {
		nFrames = DefaultGrowCircleFrames
	}
	ox := float64(width) / 2
	oy := float64(height) / 2

	var maxRadius float64
	for _, corner := range [4][2]float64{
		{0, 0}, {float64(width), 0}, {0, float64(height)}, {float64(width), float64(height)},
	} {
		dx := corner[0] - ox
		dy := corner[1] - oy
		if d := dx*dx + dy*dy; d > maxRadius {
			maxRadius = d
		}
	}

	return &GrowCircle{
		Width:     width,
		Height:    height,
		NFrames:   nFrames,
		originX:   ox,
		originY:   oy,
		maxRadius: math.Sqrt(maxRadius),
	}
}

// Render implements Kernel.
func (k *GrowCircle) Render(frameIndex uint32, from, to, out []byte) bool {
	if frameIndex > k.NFrames {
		return true
	}

	r := (float64(frameIndex) / float64(k.NFrames)) * k.maxRadius
	r2 := r * r
	// On frame NFrames the disc reaches every corner; pixels lying exactly
	// on max_radius would otherwise tie onto "from", so take "to" everywhere.
	full := frameIndex == k.NFrames

	rowBytes := k.Width * BytesPerPixel
	for y := 0; y < k.Height; y++ {
		dy := float64(y) - k.originY
		dy2 := dy * dy
		rowOff := y * rowBytes
		for x := 0; x < k.Width; x++ {
			dx := float64(x) - k.originX
			p := rowOff + x*BytesPerPixel
			var px uint32
			if full || dx*dx+dy2 < r2 {
				px = *(*uint32)(unsafe.Pointer(&to[p]))
			} else {
				px = *(*uint32)(unsafe.Pointer(&from[p]))
			}
			*(*uint32)(unsafe.Pointer(&out[p])) = px
		}
	}

	return false
}
