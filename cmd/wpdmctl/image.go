package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// preprocess implements the preprocessor contract from spec.md §4.7: decode
// srcPath once, then crop-and-resize-and-swizzle it for each requested
// output size, returning one raw BGRA buffer per size.
func preprocess(srcPath string, sizes []imageSize) (map[imageSize][]byte, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", srcPath, err)
	}

	out := make(map[imageSize][]byte, len(sizes))
	for _, size := range sizes {
		out[size] = renderSize(src, size)
	}
	return out, nil
}

// imageSize is a distinct (width, height) a source image must be prepared
// for.
type imageSize struct {
	Width, Height int
}

// renderSize crops src to the output's aspect ratio, resizes to exactly
// (width, height), and swizzles RGBA to native BGRA byte order.
func renderSize(src image.Image, size imageSize) []byte {
	bounds := src.Bounds()
	crop := cropRect(bounds.Dx(), bounds.Dy(), size.Width, size.Height)
	crop = crop.Add(bounds.Min)

	dst := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	return swizzleToBGRA(dst)
}

// swizzleToBGRA converts an NRGBA image's R,G,B,A byte order to the
// compositor's native B,G,R,A order (spec.md §4.7's final step).
func swizzleToBGRA(img *image.NRGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		srcRow := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		dstRow := y * w * 4
		for x := 0; x < w; x++ {
			sp := srcRow + x*4
			dp := dstRow + x*4
			r, g, b, a := img.Pix[sp], img.Pix[sp+1], img.Pix[sp+2], img.Pix[sp+3]
			out[dp] = b
			out[dp+1] = g
			out[dp+2] = r
			out[dp+3] = a
		}
	}
	return out
}
