package bmp

import (
	"encoding/binary"
	"errors"
	"strconv"
)

var errHeaderLength = errors.New("bmp: incorrect header length")

// FileHeader is the BITMAPFILEHEADER structure found at the start of every
// BMP file. It implements the encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler interfaces.
type FileHeader struct {
	Signature uint16 // Must be 0x4d42, "BM"
	Size      uint32 // Size of the whole file in bytes
	Reserved  uint32
	Offset    uint32 // Offset to the pixel data
}

// MarshalBinary encodes the header into its 14 byte form
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, fileHeaderLen)
	binary.LittleEndian.PutUint16(b[0:], h.Signature)
	binary.LittleEndian.PutUint32(b[2:], h.Size)
	binary.LittleEndian.PutUint32(b[6:], h.Reserved)
	binary.LittleEndian.PutUint32(b[10:], h.Offset)
	return b, nil
}

// UnmarshalBinary decodes the header from its 14 byte form
func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) != fileHeaderLen {
		return errHeaderLength
	}
	h.Signature = binary.LittleEndian.Uint16(b[0:])
	h.Size = binary.LittleEndian.Uint32(b[2:])
	h.Reserved = binary.LittleEndian.Uint32(b[6:])
	h.Offset = binary.LittleEndian.Uint32(b[10:])
	return nil
}

func (h *FileHeader) validate() error {
	if h.Signature != signature {
		return FormatError("not a BMP file")
	}
	if h.Offset != pixelOffset {
		return UnsupportedError("bitmap offset " + strconv.FormatUint(uint64(h.Offset), 10))
	}
	return nil
}

// InfoHeader is the BITMAPINFOHEADER structure that follows the FileHeader.
// It implements the encoding.BinaryMarshaler and encoding.BinaryUnmarshaler
// interfaces.
type InfoHeader struct {
	Size            uint32 // Size of this structure, 40
	Width           int32
	Height          int32 // Positive means the rows are stored bottom-up
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	ImageSize       uint32 // Size of the pixel data including row padding
	XPelsPerMeter   int32
	YPelsPerMeter   int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// MarshalBinary encodes the header into its 40 byte form
func (h *InfoHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, infoHeaderLen)
	binary.LittleEndian.PutUint32(b[0:], h.Size)
	binary.LittleEndian.PutUint32(b[4:], uint32(h.Width))
	binary.LittleEndian.PutUint32(b[8:], uint32(h.Height))
	binary.LittleEndian.PutUint16(b[12:], h.Planes)
	binary.LittleEndian.PutUint16(b[14:], h.BitCount)
	binary.LittleEndian.PutUint32(b[16:], h.Compression)
	binary.LittleEndian.PutUint32(b[20:], h.ImageSize)
	binary.LittleEndian.PutUint32(b[24:], uint32(h.XPelsPerMeter))
	binary.LittleEndian.PutUint32(b[28:], uint32(h.YPelsPerMeter))
	binary.LittleEndian.PutUint32(b[32:], h.ColorsUsed)
	binary.LittleEndian.PutUint32(b[36:], h.ColorsImportant)
	return b, nil
}

// UnmarshalBinary decodes the header from its 40 byte form
func (h *InfoHeader) UnmarshalBinary(b []byte) error {
	if len(b) != infoHeaderLen {
		return errHeaderLength
	}
	h.Size = binary.LittleEndian.Uint32(b[0:])
	h.Width = int32(binary.LittleEndian.Uint32(b[4:]))
	h.Height = int32(binary.LittleEndian.Uint32(b[8:]))
	h.Planes = binary.LittleEndian.Uint16(b[12:])
	h.BitCount = binary.LittleEndian.Uint16(b[14:])
	h.Compression = binary.LittleEndian.Uint32(b[16:])
	h.ImageSize = binary.LittleEndian.Uint32(b[20:])
	h.XPelsPerMeter = int32(binary.LittleEndian.Uint32(b[24:]))
	h.YPelsPerMeter = int32(binary.LittleEndian.Uint32(b[28:]))
	h.ColorsUsed = binary.LittleEndian.Uint32(b[32:])
	h.ColorsImportant = binary.LittleEndian.Uint32(b[36:])
	return nil
}

func (h *InfoHeader) validate() error {
	switch {
	case h.Size != infoHeaderLen:
		return UnsupportedError("DIB header version")
	case h.Planes != numPlanes:
		return UnsupportedError("planes " + strconv.FormatUint(uint64(h.Planes), 10))
	case h.BitCount != bitsPerPixel:
		return UnsupportedError("bit depth " + strconv.FormatUint(uint64(h.BitCount), 10))
	case h.Compression != biRGB:
		return UnsupportedError("compression method")
	case h.Height < 0:
		return UnsupportedError("top-down row order")
	case h.Width <= 0 || h.Height == 0:
		return FormatError("non-positive dimension")
	}
	return nil
}
