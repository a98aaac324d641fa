package imgconv

import (
	"bufio"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"os"

	"github.com/bodgit/imgconv/format"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnknownInputFormat is returned when the input file extension
	// does not match any supported format
	ErrUnknownInputFormat = errors.New("unknown format of the input file")
	// ErrUnknownOutputFormat is returned when the output file extension
	// does not match any supported format
	ErrUnknownOutputFormat = errors.New("unknown format of the output file")
	// ErrLoad wraps any error opening or decoding the input file
	ErrLoad = errors.New("loading failed")
	// ErrSave wraps any error creating or encoding the output file
	ErrSave = errors.New("saving failed")
)

func load(f *format.Format, file string) (image.Image, string, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	defer r.Close()

	h := sha1.New()
	tr := io.TeeReader(bufio.NewReader(r), h)

	m, err := f.Decode(tr)
	if err != nil {
		return nil, "", err
	}

	// Hash whatever the decoder didn't consume
	if _, err := io.Copy(ioutil.Discard, tr); err != nil {
		return nil, "", err
	}

	return m, fmt.Sprintf("%X", h.Sum(nil)), nil
}

func save(f *format.Format, file string, m image.Image, o *format.Options) (err error) {
	w, err := os.Create(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(w)
	if err := f.Encode(bw, m, o); err != nil {
		return err
	}

	return bw.Flush()
}

func (c *Converter) convert(runID string, in, out string, inFormat, outFormat *format.Format) error {
	entry := Entry{
		RunID:        runID,
		Input:        in,
		Output:       out,
		InputFormat:  inFormat.Name,
		OutputFormat: outFormat.Name,
		Status:       StatusOK,
	}

	err := func() error {
		m, sum, err := load(inFormat, in)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLoad, err)
		}
		entry.SHA1 = sum
		entry.Width, entry.Height = m.Bounds().Dx(), m.Bounds().Dy()

		c.logger.Debug("loaded image",
			zap.String("file", in),
			zap.String("format", inFormat.Name),
			zap.Int("width", entry.Width),
			zap.Int("height", entry.Height),
			zap.String("sha1", sum))

		if err := save(outFormat, out, m, &c.options); err != nil {
			return fmt.Errorf("%w: %v", ErrSave, err)
		}
		return nil
	}()

	if err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
		c.logger.Warn("conversion failed", zap.String("input", in), zap.String("output", out), zap.Error(err))
	} else {
		c.logger.Info("converted image",
			zap.String("input", in),
			zap.String("output", out),
			zap.String("from", inFormat.Name),
			zap.String("to", outFormat.Name))
	}

	if c.db != nil {
		if _, rerr := c.db.Record(entry); rerr != nil {
			c.logger.Warn("unable to record conversion", zap.String("input", in), zap.Error(rerr))
		}
	}

	return err
}

// Convert loads the image in file in and saves it to file out, the formats
// being chosen by the file extensions. The input format is checked before
// the output format and both are checked before any file is opened.
//
// Errors opening or decoding in wrap ErrLoad and errors writing out wrap
// ErrSave. A failed save may leave a partially written out behind.
func (c *Converter) Convert(in, out string) error {
	inFormat, ok := format.ByExtension(in)
	if !ok {
		return ErrUnknownInputFormat
	}

	outFormat, ok := format.ByExtension(out)
	if !ok {
		return ErrUnknownOutputFormat
	}

	return c.convert(uuid.New().String(), in, out, inFormat, outFormat)
}
