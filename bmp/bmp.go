/*
Package bmp implements a decoder and encoder for 24-bit uncompressed BMP
images.

Only the most common variant is supported: a 14 byte BITMAPFILEHEADER
immediately followed by a 40 byte BITMAPINFOHEADER, a positive height
meaning the rows are stored bottom-up, and no palette. All values are
little-endian.

Each row of pixels is stored as blue, green and red bytes per pixel and is
padded with zeroes to a multiple of four bytes. The pixel data therefore
always starts at byte 54 and is Stride(width) * height bytes long.
*/
package bmp

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
	pixelOffset   = fileHeaderLen + infoHeaderLen

	signature     = 0x4d42 // "BM"
	bytesPerPixel = 3
	bitsPerPixel  = bytesPerPixel * 8
	numPlanes     = 1
	biRGB         = 0

	// DefaultResolution is the horizontal and vertical resolution written
	// to every file, in pixels per meter (roughly 300 DPI)
	DefaultResolution = 11811

	importantColors = 0x1000000
)

// FormatError reports that the input is not a valid BMP.
type FormatError string

func (e FormatError) Error() string { return "bmp: invalid format: " + string(e) }

// UnsupportedError reports that the input uses a valid but unimplemented BMP
// feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "bmp: unsupported feature: " + string(e) }

// Stride returns the length in bytes of one encoded row of width pixels,
// including the padding up to a multiple of four bytes.
func Stride(width int) int {
	return 4 * ((width*bytesPerPixel + 3) / 4)
}
