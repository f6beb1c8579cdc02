package main

import "image"

// gcd returns the greatest common divisor of two non-negative integers.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// reduceRatio reduces w:h to lowest terms.
func reduceRatio(w, h int) (int, int) {
	if w == 0 || h == 0 {
		return w, h
	}
	g := gcd(w, h)
	return w / g, h / g
}

// cropRect implements the crop policy from spec.md §4.7: compute the
// monitor and image aspect ratios in lowest terms; if they already match,
// no crop; otherwise crop horizontally when the image is wider-or-equal,
// vertically otherwise, centered on the image.
func cropRect(imgW, imgH, monW, monH int) image.Rectangle {
	aw, ah := reduceRatio(monW, monH)
	iw, ih := reduceRatio(imgW, imgH)

	if aw == iw && ah == ih {
		return image.Rect(0, 0, imgW, imgH)
	}

	if iw*ah >= aw*ih {
		newW := imgH * aw / ah
		x0 := (imgW - newW) / 2
		return image.Rect(x0, 0, x0+newW, imgH)
	}

	newH := imgW * ah / aw
	y0 := (imgH - newH) / 2
	return image.Rect(0, y0, imgW, y0+newH)
}
