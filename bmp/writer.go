package bmp

import (
	"errors"
	"image"
	"io"
	"math"
)

var errEmpty = errors.New("bmp: image has no pixels")

type encoder struct {
	w io.Writer
}

func (e *encoder) writeHeaders(width, height int) error {
	imageSize := uint32(Stride(width) * height)

	fh := FileHeader{
		Signature: signature,
		Size:      pixelOffset + imageSize,
		Offset:    pixelOffset,
	}
	ih := InfoHeader{
		Size:            infoHeaderLen,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          numPlanes,
		BitCount:        bitsPerPixel,
		Compression:     biRGB,
		ImageSize:       imageSize,
		XPelsPerMeter:   DefaultResolution,
		YPelsPerMeter:   DefaultResolution,
		ColorsImportant: importantColors,
	}

	for _, h := range []interface{ MarshalBinary() ([]byte, error) }{&fh, &ih} {
		b, err := h.MarshalBinary()
		if err != nil {
			return err
		}
		if _, err := e.w.Write(b); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) encode(m image.Image) error {
	bounds := m.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if err := e.writeHeaders(width, height); err != nil {
		return err
	}

	// Padding at the end of the row stays zeroed
	row := make([]byte, Stride(width))

	rgba, _ := m.(*image.RGBA)

	// Last row first
	for y := bounds.Max.Y - 1; y >= bounds.Min.Y; y-- {
		if rgba != nil {
			off := rgba.PixOffset(bounds.Min.X, y)
			p := rgba.Pix[off : off+width*4]
			for x := 0; x < width; x++ {
				row[x*3+0] = p[x*4+2]
				row[x*3+1] = p[x*4+1]
				row[x*3+2] = p[x*4+0]
			}
		} else {
			for x := 0; x < width; x++ {
				r, g, b, _ := m.At(bounds.Min.X+x, y).RGBA()
				row[x*3+0] = byte(b >> 8)
				row[x*3+1] = byte(g >> 8)
				row[x*3+2] = byte(r >> 8)
			}
		}

		if _, err := e.w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes the Image m to w in 24-bit uncompressed BMP format. Any alpha
// channel is discarded.
func Encode(w io.Writer, m image.Image) error {
	b := m.Bounds()
	if b.Empty() {
		return errEmpty
	}
	if b.Dx() > math.MaxInt32 || b.Dy() > math.MaxInt32 || int64(Stride(b.Dx()))*int64(b.Dy()) > math.MaxUint32-pixelOffset {
		return errTooLarge
	}

	e := encoder{w: w}

	return e.encode(m)
}
