/*
Package imgconv is a library for converting raster images between the BMP,
JPEG, PPM, PNG, GIF and TIFF file formats.

The format of each file is chosen by its extension. Conversions can
optionally be recorded in a HistoryDB.
*/
package imgconv

import (
	"runtime"

	"github.com/bodgit/imgconv/format"
	"go.uber.org/zap"
)

// Converter loads images in one format and saves them in another. It holds
// no per-conversion state so it is safe for concurrent use.
type Converter struct {
	db      *HistoryDB
	logger  *zap.Logger
	options format.Options
	workers int
}

// Option configures a Converter
type Option func(*Converter)

// WithOptions sets the encoding options used when saving
func WithOptions(o format.Options) Option {
	return func(c *Converter) {
		c.options = o
	}
}

// WithWorkers sets the number of concurrent conversions used by Batch
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New returns a Converter. A nil db disables the conversion history and a
// nil logger discards all log output.
func New(db *HistoryDB, logger *zap.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Converter{
		db:      db,
		logger:  logger,
		workers: runtime.NumCPU(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}
