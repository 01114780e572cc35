package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// fitWithin scales w×h down so that neither side exceeds its bound, keeping
// the aspect ratio. Sizes already inside the bounds are returned unchanged.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	fw, fh := float64(w), float64(h)
	if maxW > 0 && fw > float64(maxW) {
		fh = fh * float64(maxW) / fw
		fw = float64(maxW)
	}
	if maxH > 0 && fh > float64(maxH) {
		fw = fw * float64(maxH) / fh
		fh = float64(maxH)
	}
	return max(1, int(math.Round(fw))), max(1, int(math.Round(fh)))
}

// scale draws src into a new w×h image. Opaque output formats get a white
// backdrop so transparent pixels do not turn black.
func scale(src image.Image, w, h int, opaque bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opaque {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// outputType is the media type a source type is re-encoded as. There is no
// webp encoder, so webp becomes jpeg.
func outputType(mediaType string) (string, error) {
	switch mediaType {
	case "image/jpeg", "image/webp":
		return "image/jpeg", nil
	case "image/png", "image/gif", "image/bmp":
		return mediaType, nil
	default:
		return "", fmt.Errorf("cannot encode %s", mediaType)
	}
}

func encode(img image.Image, mediaType string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch mediaType {
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)})
	case "image/png":
		err = png.Encode(&buf, img)
	case "image/gif":
		err = gif.Encode(&buf, img, nil)
	case "image/bmp":
		err = bmp.Encode(&buf, img)
	default:
		err = fmt.Errorf("cannot encode %s", mediaType)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return jpeg.DefaultQuality
	case q > 100:
		return 100
	default:
		return q
	}
}
