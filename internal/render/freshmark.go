package render

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"math"
	"math/rand/v2"
)

const freshBorder = 2

// MarkFresh makes a just-fetched tile visually obvious: the hue is rotated
// by a random angle, colors are inverted and a 2 px magenta border is drawn.
// Bytes that do not decode as an image are returned unchanged with false.
func MarkFresh(data []byte) ([]byte, bool) {
	return markFresh(data, rand.IntN(360))
}

func markFresh(data []byte, degrees int) ([]byte, bool) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, false
	}

	// Straight alpha, so the color math never sees premultiplied values.
	b := src.Bounds()
	img := image.NewNRGBA(b)
	draw.Draw(img, b, src, b.Min, draw.Src)

	m := hueRotation(float64(degrees))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			r, g, bl := float64(c.R), float64(c.G), float64(c.B)
			c.R = 255 - clampByte(m[0]*r+m[1]*g+m[2]*bl)
			c.G = 255 - clampByte(m[3]*r+m[4]*g+m[5]*bl)
			c.B = 255 - clampByte(m[6]*r+m[7]*g+m[8]*bl)
			img.SetNRGBA(x, y, c)
		}
	}

	drawBorder(img, freshBorder, magenta)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return data, false
	}
	return buf.Bytes(), true
}

// hueRotation returns the 3x3 luminance-preserving hue rotation matrix,
// row-major.
func hueRotation(degrees float64) [9]float64 {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	return [9]float64{
		0.213 + cos*0.787 - sin*0.213,
		0.715 - cos*0.715 - sin*0.715,
		0.072 - cos*0.072 + sin*0.928,

		0.213 - cos*0.213 + sin*0.143,
		0.715 + cos*0.285 + sin*0.140,
		0.072 - cos*0.072 - sin*0.283,

		0.213 - cos*0.213 - sin*0.787,
		0.715 - cos*0.715 + sin*0.715,
		0.072 + cos*0.928 + sin*0.072,
	}
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}
