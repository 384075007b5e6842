package utils

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	"github.com/nfnt/resize"
)

type ImageThumbConverted struct {
	ThumbSize int64
	Width     int // of the original
	Height    int
}

// CreateThumb decodes an image and writes a size x size JPEG that covers the whole square:
// the image is scaled so its shorter side equals size and the overflow is cropped around the center
func CreateThumb(size uint, reader io.Reader, writer io.Writer) (result ImageThumbConverted, err error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return result, err
	}
	bounds := img.Bounds()
	result.Width = bounds.Dx()
	result.Height = bounds.Dy()

	thumb := CoverImage(img, size)
	var newBuf bytes.Buffer
	if err = jpeg.Encode(&newBuf, thumb, &jpeg.Options{Quality: 90}); err != nil {
		return
	}
	result.ThumbSize, err = io.Copy(writer, &newBuf)
	return
}

// CoverImage resizes and center-crops img to exactly size x size
func CoverImage(img image.Image, size uint) image.Image {
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	scale := math.Max(float64(size)/w, float64(size)/h)
	newW := uint(math.Max(math.Ceil(w*scale), float64(size)))
	newH := uint(math.Max(math.Ceil(h*scale), float64(size)))
	resized := resize.Resize(newW, newH, img, resize.Lanczos3)

	offsetX := (int(newW) - int(size)) / 2
	offsetY := (int(newH) - int(size)) / 2
	rb := resized.Bounds()
	cropped := image.NewRGBA(image.Rect(0, 0, int(size), int(size)))
	draw.Draw(cropped, cropped.Bounds(), resized, image.Pt(rb.Min.X+offsetX, rb.Min.Y+offsetY), draw.Src)
	return cropped
}

// SafeFileName restricts the characters in a file name so it can be used as part of an object key
func SafeFileName(in string) string {
	// Drop any client-side directories
	if i := strings.LastIndexAny(in, `/\`); i >= 0 {
		in = in[i+1:]
	}
	var name strings.Builder
	for i, c := range in {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
			(c == '.' && i > 0) || (c == '-') || (c == '_') {

			name.WriteRune(c)
		} else {
			// Replace all other characters with '_' (underscore)
			name.WriteString("_")
		}
	}
	if name.Len() == 0 {
		return "file"
	}
	return name.String()
}
