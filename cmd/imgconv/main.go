package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bodgit/imgconv"
	"github.com/bodgit/imgconv/bmp"
	"github.com/bodgit/imgconv/format"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Exit codes returned by the default conversion action
const (
	exitUsage = iota + 1
	exitUnknownInput
	exitUnknownOutput
	exitLoad
	exitSave
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, imgconv.ErrUnknownInputFormat):
		return exitUnknownInput
	case errors.Is(err, imgconv.ErrUnknownOutputFormat):
		return exitUnknownOutput
	case errors.Is(err, imgconv.ErrLoad):
		return exitLoad
	case errors.Is(err, imgconv.ErrSave):
		return exitSave
	default:
		return 1
	}
}

func exitError(err error) cli.ExitCoder {
	return cli.Exit(color.RedString(err.Error()), exitCode(err))
}

// usage prints the help for the running command, or the app for the default
// action, and returns the usage exit code
func usage(c *cli.Context) error {
	if c.Command != nil && c.Command.Name != c.App.Name {
		_ = cli.ShowCommandHelp(c, c.Command.Name)
	} else {
		_ = cli.ShowAppHelp(c)
	}
	return cli.Exit("", exitUsage)
}

func setup(c *cli.Context) (*imgconv.Converter, func(), error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	cfg.merge(c)

	logger := newLogger(c.Bool("verbose"), cfg.LogFile)

	var db *imgconv.HistoryDB
	if cfg.DB != "" {
		if db, err = imgconv.NewHistoryDB(cfg.DB); err != nil {
			_ = logger.Sync()
			return nil, nil, err
		}
		logger.Debug("recording history", zap.String("db", cfg.DB))
	}

	cleanup := func() {
		if db != nil {
			if err := db.Close(); err != nil {
				logger.Warn("unable to close history", zap.Error(err))
			}
		}
		_ = logger.Sync()
	}

	return imgconv.New(db, logger, imgconv.WithOptions(cfg.Options), imgconv.WithWorkers(cfg.Workers)), cleanup, nil
}

func convert(c *cli.Context) error {
	if c.NArg() != 2 {
		return usage(c)
	}

	m, cleanup, err := setup(c)
	if err != nil {
		return cli.Exit(color.RedString(err.Error()), 1)
	}
	defer cleanup()

	if err := m.Convert(c.Args().Get(0), c.Args().Get(1)); err != nil {
		return exitError(err)
	}

	fmt.Fprintln(c.App.Writer, color.GreenString("Successfully converted"))

	return nil
}

func batch(c *cli.Context) error {
	if c.NArg() != 2 {
		return usage(c)
	}

	m, cleanup, err := setup(c)
	if err != nil {
		return cli.Exit(color.RedString(err.Error()), 1)
	}
	defer cleanup()

	if err := m.Batch(c.Args().Get(0), c.Args().Get(1), c.String("ext")); err != nil {
		return exitError(err)
	}

	fmt.Fprintln(c.App.Writer, color.GreenString("Successfully converted"))

	return nil
}

func history(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(color.RedString(err.Error()), 1)
	}
	cfg.merge(c)

	if cfg.DB == "" {
		return cli.Exit(color.RedString("no history database, set --db or IMGCONV_DB"), 1)
	}

	db, err := imgconv.NewHistoryDB(cfg.DB)
	if err != nil {
		return cli.Exit(color.RedString(err.Error()), 1)
	}
	defer db.Close()

	var entries []imgconv.Entry
	if sum := c.String("sha1"); sum != "" {
		entries, err = db.FindByChecksum(strings.ToUpper(sum))
	} else {
		entries, err = db.Recent(c.Int("limit"))
	}
	if err != nil {
		return cli.Exit(color.RedString(err.Error()), 1)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tINPUT\tOUTPUT\tSIZE\tSTATUS")
	for _, e := range entries {
		status := color.GreenString(e.Status)
		if e.Status != imgconv.StatusOK {
			status = color.RedString(e.Status)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%dx%d\t%s\n", e.ID, e.Created.Format(time.RFC3339), e.Input, e.Output, e.Width, e.Height, status)
	}

	return w.Flush()
}

func info(c *cli.Context) error {
	if c.NArg() != 1 {
		return usage(c)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return cli.Exit(color.RedString(err.Error()), exitLoad)
	}
	defer f.Close()

	fh, ih, err := bmp.ReadHeader(f)
	if err != nil {
		return cli.Exit(color.RedString(err.Error()), exitLoad)
	}

	stride := bmp.Stride(int(ih.Width))

	w := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
	fmt.Fprintf(w, "File size:\t%d bytes\n", fh.Size)
	fmt.Fprintf(w, "Pixel offset:\t%d bytes\n", fh.Offset)
	fmt.Fprintf(w, "Width:\t%d px\n", ih.Width)
	fmt.Fprintf(w, "Height:\t%d px\n", ih.Height)
	fmt.Fprintf(w, "Bit count:\t%d bits\n", ih.BitCount)
	fmt.Fprintf(w, "Image size:\t%d bytes\n", ih.ImageSize)
	fmt.Fprintf(w, "Resolution:\t%dx%d ppm\n", ih.XPelsPerMeter, ih.YPelsPerMeter)
	fmt.Fprintf(w, "Stride:\t%d bytes\n", stride)
	fmt.Fprintf(w, "Padding:\t%d bytes\n", stride-int(ih.Width)*3)

	return w.Flush()
}

func formats(c *cli.Context) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 8, 2, ' ', 0)
	for _, f := range format.Formats() {
		fmt.Fprintf(w, "%s\t%s\n", f.Name, strings.Join(f.Extensions, ", "))
	}
	return w.Flush()
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "imgconv"
	app.Usage = "Image format conversion utility"
	app.Version = "1.0.0"
	app.ArgsUsage = "IN_FILE OUT_FILE"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"IMGCONV_CONFIG"},
			Usage:   "path to YAML configuration",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"IMGCONV_DB"},
			Usage:   "path to history database, history is disabled if unset",
		},
		&cli.StringFlag{
			Name:    "log-file",
			EnvVars: []string{"IMGCONV_LOG_FILE"},
			Usage:   "also write JSON logs to this file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.IntFlag{
			Name:  "quality",
			Value: format.DefaultJPEGQuality,
			Usage: "JPEG quality, 1 to 100",
		},
		&cli.IntFlag{
			Name:  "colors",
			Value: format.DefaultGIFColors,
			Usage: "maximum number of GIF palette colors",
		},
		&cli.BoolFlag{
			Name:  "deflate",
			Usage: "compress TIFF output",
		},
	}

	app.Action = convert

	app.Commands = []*cli.Command{
		{
			Name:        "batch",
			Usage:       "Convert every image under a directory",
			Description: "Images are written under DESTINATION at the same relative path with the extension replaced.",
			ArgsUsage:   "SOURCE DESTINATION",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "ext",
					Value: ".bmp",
					Usage: "extension, and so format, of the converted images",
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "number of concurrent conversions (default: number of CPUs)",
				},
			},
			Action: batch,
		},
		{
			Name:      "history",
			Usage:     "List previous conversions",
			ArgsUsage: " ",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Value: 20,
					Usage: "maximum number of conversions to list",
				},
				&cli.StringFlag{
					Name:  "sha1",
					Usage: "only list conversions of input with this SHA-1",
				},
			},
			Action: history,
		},
		{
			Name:      "info",
			Usage:     "Print the headers of a BMP file",
			ArgsUsage: "FILE",
			Action:    info,
		},
		{
			Name:   "formats",
			Usage:  "List supported formats",
			Action: formats,
		},
	}

	return app
}

func main() {
	// Variables already in the environment take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal(err)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
