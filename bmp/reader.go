package bmp

import (
	"errors"
	"image"
	"image/color"
	"io"
	"io/ioutil"
	"math"
)

var (
	errNotEnough = errors.New("bmp: not enough image data")
	errTooLarge  = errors.New("bmp: image is too large")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	fh FileHeader
	ih InfoHeader

	image *image.RGBA

	// Enough to hold either header
	tmp [infoHeaderLen]byte
}

func (d *decoder) readHeaders() error {
	if err := readFull(d.r, d.tmp[:fileHeaderLen]); err != nil {
		return err
	}
	if err := d.fh.UnmarshalBinary(d.tmp[:fileHeaderLen]); err != nil {
		return err
	}
	if err := d.fh.validate(); err != nil {
		return err
	}

	if err := readFull(d.r, d.tmp[:infoHeaderLen]); err != nil {
		return err
	}
	if err := d.ih.UnmarshalBinary(d.tmp[:infoHeaderLen]); err != nil {
		return err
	}
	if err := d.ih.validate(); err != nil {
		return err
	}

	if int64(Stride(int(d.ih.Width)))*int64(d.ih.Height) > math.MaxUint32-pixelOffset {
		return errTooLarge
	}

	return nil
}

func (d *decoder) readPixels() error {
	width, height := int(d.ih.Width), int(d.ih.Height)
	stride := Stride(width)
	size := int64(stride) * int64(height)

	// The headers alone can claim gigabytes, so read what is actually there
	// before allocating the image
	b, err := ioutil.ReadAll(io.LimitReader(d.r, size))
	if err != nil {
		return err
	}
	if int64(len(b)) < size {
		return errNotEnough
	}

	m := image.NewRGBA(image.Rect(0, 0, width, height))

	// Rows are stored bottom-up; the offset was validated so the pixel
	// data starts straight after the headers
	for i := 0; i < height; i++ {
		row := b[i*stride : i*stride+width*3]
		y := height - 1 - i

		p := m.Pix[y*m.Stride : y*m.Stride+width*4]
		for x := 0; x < width; x++ {
			p[x*4+0] = row[x*3+2]
			p[x*4+1] = row[x*3+1]
			p[x*4+2] = row[x*3+0]
			p[x*4+3] = 0xff
		}
	}

	d.image = m

	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = r

	if err := d.readHeaders(); err != nil {
		return err
	}

	if configOnly {
		return nil
	}

	return d.readPixels()
}

// Decode reads a BMP image from r and returns it as an image.Image. The
// concrete type is always *image.RGBA.
func Decode(r io.Reader) (image.Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeConfig returns the color model and dimensions of a BMP image without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      int(d.ih.Width),
		Height:     int(d.ih.Height),
	}, nil
}

// ReadHeader reads and validates the file and info headers from r, leaving
// r positioned at the start of the pixel data.
func ReadHeader(r io.Reader) (FileHeader, InfoHeader, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return FileHeader{}, InfoHeader{}, err
	}
	return d.fh, d.ih, nil
}
