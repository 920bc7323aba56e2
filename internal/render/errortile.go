package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	TileSize = 256

	checkerCell = 16
	errorBorder = 4
	wrapColumns = 20
	linePitch   = 24
	fontSizePx  = 24
	fontDPI     = 72
)

var (
	checkerLight = color.RGBA{R: 127, B: 127, A: 255}
	checkerDark  = color.RGBA{A: 255}
	magenta      = color.RGBA{R: 255, B: 255, A: 255}
	white        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

var (
	faceOnce sync.Once
	face     font.Face

	// font.Face is not safe for concurrent use.
	drawMu sync.Mutex
)

func textFace() font.Face {
	faceOnce.Do(func() {
		face = basicfont.Face7x13

		f, err := opentype.Parse(gobold.TTF)
		if err != nil {
			return
		}
		ff, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    fontSizePx,
			DPI:     fontDPI,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return
		}
		face = ff
	})
	return face
}

// ErrorTile renders message onto a 256x256 magenta checkerboard and returns
// it PNG-encoded. It never fails.
func ErrorTile(message string) []byte {
	img := checkerboard()

	drawMu.Lock()
	drawMessage(img, message)
	drawMu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return blankErrorTile()
	}
	return buf.Bytes()
}

func checkerboard() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			if (x/checkerCell+y/checkerCell)%2 == 0 {
				img.SetRGBA(x, y, checkerLight)
			} else {
				img.SetRGBA(x, y, checkerDark)
			}
		}
	}
	drawBorder(img, errorBorder, magenta)
	return img
}

func drawBorder(img draw.Image, width int, c color.RGBA) {
	b := img.Bounds()
	src := image.NewUniform(c)
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+width), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Max.Y-width, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Max.X-width, b.Min.Y, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
}

// drawMessage writes the wrapped message top-down, one line per 24 px.
func drawMessage(img *image.RGBA, message string) {
	f := textFace()
	ascent := f.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(white),
		Face: f,
	}

	for i, line := range wrap(message) {
		d.Dot = fixed.P(0, i*linePitch+ascent)
		d.DrawString(line)
	}
}

func wrap(message string) []string {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	return strings.Split(wordwrap.WrapString(message, wrapColumns), "\n")
}

var (
	blankOnce sync.Once
	blank     []byte
)

func blankErrorTile() []byte {
	blankOnce.Do(func() {
		var buf bytes.Buffer
		_ = png.Encode(&buf, checkerboard())
		blank = buf.Bytes()
	})
	return blank
}
