package inference

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes a PNG, JPEG, GIF or WebP file
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Fit scales img so that its shorter side equals side, keeping the aspect
// ratio. Images already at or below side are returned unchanged.
func Fit(img image.Image, side int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	short := min(w, h)
	if side <= 0 || short <= side {
		return img
	}
	nw, nh := w*side/short, h*side/short
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Square resizes img to side x side, center-cropping the longer dimension
func Square(img image.Image, side int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	crop := b
	if w > h {
		off := (w - h) / 2
		crop = image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	} else if h > w {
		off := (h - w) / 2
		crop = image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
	}
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// Tensor returns img as a CHW float32 tensor of side x side pixels,
// normalised per RGB channel with mean and std.
func Tensor(img image.Image, side int, mean, std [3]float32) []float32 {
	sq := Square(img, side)
	plane := side * side
	out := make([]float32, 3*plane)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			i := sq.PixOffset(x, y)
			p := y*side + x
			for c := 0; c < 3; c++ {
				v := float32(sq.Pix[i+c]) / 255
				out[c*plane+p] = (v - mean[c]) / std[c]
			}
		}
	}
	return out
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
