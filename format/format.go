/*
Package format maps image file extensions to the codec able to decode and
encode them.

The table of formats is fixed at compile time; BMP is handled by the
github.com/bodgit/imgconv/bmp package and the remaining formats by the
standard library and third-party codecs.
*/
package format

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/bodgit/imgconv/bmp"
	"github.com/ericpauley/go-quantize/quantize"
	pnm "github.com/jbuchbinder/gopnm"
	"golang.org/x/image/tiff"
)

const (
	// DefaultJPEGQuality is used when Options.JPEGQuality is zero
	DefaultJPEGQuality = 95
	// DefaultGIFColors is used when Options.GIFColors is zero
	DefaultGIFColors = 256
)

// Options holds the format-specific encoding parameters. The zero value is
// valid and selects the defaults.
type Options struct {
	JPEGQuality  int  `yaml:"jpeg_quality"`
	GIFColors    int  `yaml:"gif_colors"`
	TIFFCompress bool `yaml:"tiff_compress"`
}

func (o *Options) jpegQuality() int {
	if o == nil || o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return DefaultJPEGQuality
	}
	return o.JPEGQuality
}

func (o *Options) gifColors() int {
	if o == nil || o.GIFColors < 2 || o.GIFColors > 256 {
		return DefaultGIFColors
	}
	return o.GIFColors
}

// Format is a pair of functions able to load and save one image format.
type Format struct {
	Name       string
	Extensions []string
	Decode     func(io.Reader) (image.Image, error)
	Encode     func(io.Writer, image.Image, *Options) error
}

var formats = [...]Format{
	{
		Name:       "bmp",
		Extensions: []string{".bmp"},
		Decode:     bmp.Decode,
		Encode: func(w io.Writer, m image.Image, _ *Options) error {
			return bmp.Encode(w, m)
		},
	},
	{
		Name:       "jpeg",
		Extensions: []string{".jpg", ".jpeg"},
		Decode:     jpeg.Decode,
		Encode: func(w io.Writer, m image.Image, o *Options) error {
			return jpeg.Encode(w, m, &jpeg.Options{Quality: o.jpegQuality()})
		},
	},
	{
		Name:       "ppm",
		Extensions: []string{".ppm"},
		Decode:     pnm.Decode,
		Encode: func(w io.Writer, m image.Image, _ *Options) error {
			return pnm.Encode(w, m, pnm.PPM)
		},
	},
	{
		Name:       "png",
		Extensions: []string{".png"},
		Decode:     png.Decode,
		Encode: func(w io.Writer, m image.Image, _ *Options) error {
			return png.Encode(w, m)
		},
	},
	{
		Name:       "gif",
		Extensions: []string{".gif"},
		Decode:     gif.Decode,
		Encode: func(w io.Writer, m image.Image, o *Options) error {
			return gif.Encode(w, m, &gif.Options{
				NumColors: o.gifColors(),
				Quantizer: &quantize.MedianCutQuantizer{},
			})
		},
	},
	{
		Name:       "tiff",
		Extensions: []string{".tif", ".tiff"},
		Decode:     tiff.Decode,
		Encode: func(w io.Writer, m image.Image, o *Options) error {
			var opts tiff.Options
			if o != nil && o.TIFFCompress {
				opts.Compression = tiff.Deflate
			}
			return tiff.Encode(w, m, &opts)
		},
	},
}

// Formats returns every supported format
func Formats() []Format {
	return append([]Format(nil), formats[:]...)
}

// ByName returns the format with the given name
func ByName(name string) (*Format, bool) {
	for i := range formats {
		if formats[i].Name == name {
			f := formats[i]
			return &f, true
		}
	}
	return nil, false
}

// ByExtension returns the format matching the extension of the given path.
// Matching is case-insensitive.
func ByExtension(path string) (*Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	for i := range formats {
		for _, e := range formats[i].Extensions {
			if e == ext {
				f := formats[i]
				return &f, true
			}
		}
	}
	return nil, false
}
