package imgconv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/imgconv/format"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type job struct {
	in, out  string
	inFormat *format.Format
}

func (c *Converter) findImages(ctx context.Context, src, dst, ext string) (<-chan job, <-chan error, error) {
	out := make(chan job)
	errc := make(chan error, 1)
	targets := make(map[string]string)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(src, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != src {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if info.Mode().IsDir() {
				// Don't convert our own output if it's under the source
				if file == dst && file != src {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			inFormat, ok := format.ByExtension(file)
			if !ok {
				c.logger.Debug("skipping file", zap.String("file", file))
				return nil
			}

			rel, err := filepath.Rel(src, file)
			if err != nil {
				return err
			}

			target := filepath.Join(dst, strings.TrimSuffix(rel, filepath.Ext(rel))+ext)
			if target == file {
				c.logger.Debug("skipping file already in target format", zap.String("file", file))
				targets[target] = file
				return nil
			}

			// a.jpg and a.png would both write a.<ext>, first one wins
			if prev, ok := targets[target]; ok {
				c.logger.Warn("skipping file, target already used", zap.String("file", file), zap.String("target", target), zap.String("by", prev))
				return nil
			}

			// Converting in place must not overwrite another source image
			if src == dst {
				if _, err := os.Stat(target); err == nil {
					c.logger.Warn("skipping file, target is a source image", zap.String("file", file), zap.String("target", target))
					return nil
				}
			}

			targets[target] = file

			select {
			case out <- job{
				in:       file,
				out:      target,
				inFormat: inFormat,
			}:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Converter) conversionWorker(ctx context.Context, runID string, outFormat *format.Format, in <-chan job) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for j := range in {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := os.MkdirAll(filepath.Dir(j.out), 0755); err != nil {
				errc <- err
				return
			}

			if err := c.convert(runID, j.in, j.out, j.inFormat, outFormat); err != nil {
				errc <- fmt.Errorf("%s: %w", j.in, err)
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline returns the first error, cancelling the rest of the
// pipeline, but only once every stage has stopped
func waitForPipeline(cancelFunc context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancelFunc()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Batch converts every supported image found under the directory src into
// the format matching ext, for example ".png". Each image is written under
// dst at the same relative path with its extension replaced. Hidden files
// and directories are skipped. The first failure stops the batch and is
// returned once conversions already under way have finished; all
// conversions share a run ID in the history. Of several images that would
// be written to the same file only the first found is converted.
func (c *Converter) Batch(src, dst, ext string) error {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	outFormat, ok := format.ByExtension(ext)
	if !ok {
		return ErrUnknownOutputFormat
	}

	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dst, err = filepath.Abs(dst)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	c.logger.Info("starting batch",
		zap.String("run", runID),
		zap.String("source", src),
		zap.String("destination", dst),
		zap.String("format", outFormat.Name),
		zap.Int("workers", c.workers))

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	jobs, errc, err := c.findImages(ctx, src, dst, ext)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < c.workers; i++ {
		errc, err := c.conversionWorker(ctx, runID, outFormat, jobs)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(cancelFunc, errcList...)
}
