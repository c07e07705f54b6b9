package descreen

import (
	"image"

	"github.com/ivlev/descreen/internal/system"
	"golang.org/x/image/draw"
)

// NewImageBuffer flattens any decoded image into the interleaved RGB layout
// the detector reads. Alpha is dropped.
func NewImageBuffer(img image.Image, dpi float64) ImageBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	rgba := system.GetImage(image.Rect(0, 0, w, h))
	defer system.PutImage(rgba)
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	pix := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			copy(dst[x*3:x*3+3], src[x*4:x*4+3])
		}
	}
	return ImageBuffer{Pixels: pix, Width: w, Height: h, DPI: dpi}
}
