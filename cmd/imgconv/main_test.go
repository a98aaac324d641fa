package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bodgit/imgconv"
	"github.com/bodgit/imgconv/bmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func testApp() (*cli.App, *bytes.Buffer) {
	app := newApp()
	out := new(bytes.Buffer)
	app.Writer = out
	app.ErrWriter = ioutil.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app, out
}

func writeBMP(t *testing.T, file string) {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, 5, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			m.Set(x, y, color.RGBA{uint8(x * 50), uint8(y * 80), 0x80, 0xff})
		}
	}
	b := new(bytes.Buffer)
	require.Nil(t, bmp.Encode(b, m))
	require.Nil(t, ioutil.WriteFile(file, b.Bytes(), 0644))
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	ec, ok := err.(cli.ExitCoder)
	require.True(t, ok, err)
	return ec.ExitCode()
}

func TestExitCode(t *testing.T) {
	tables := []struct {
		err  error
		code int
	}{
		{imgconv.ErrUnknownInputFormat, 2},
		{imgconv.ErrUnknownOutputFormat, 3},
		{fmt.Errorf("%w: short read", imgconv.ErrLoad), 4},
		{fmt.Errorf("in.bmp: %w", fmt.Errorf("%w: disk full", imgconv.ErrSave)), 5},
		{fmt.Errorf("something else"), 1},
	}

	for _, table := range tables {
		assert.Equal(t, table.code, exitCode(table.err), table.err.Error())
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bmp")
	writeBMP(t, in)

	tables := []struct {
		args []string
		code int
	}{
		{[]string{}, 1},
		{[]string{in}, 1},
		{[]string{in, filepath.Join(dir, "out.png"), "extra"}, 1},
		{[]string{filepath.Join(dir, "in.txt"), filepath.Join(dir, "out.bmp")}, 2},
		{[]string{in, filepath.Join(dir, "out.txt")}, 3},
		{[]string{filepath.Join(dir, "missing.bmp"), filepath.Join(dir, "out.png")}, 4},
		{[]string{in, filepath.Join(dir, "missing", "out.png")}, 5},
		{[]string{in, filepath.Join(dir, "out.png")}, 0},
	}

	for _, table := range tables {
		app, out := testApp()
		err := app.Run(append([]string{"imgconv"}, table.args...))
		assert.Equal(t, table.code, exitCodeOf(t, err), table.args)
		switch table.code {
		case 0:
			assert.Contains(t, out.String(), "Successfully converted")
		case 1:
			assert.Contains(t, out.String(), "IN_FILE OUT_FILE")
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bmp")
	writeBMP(t, in)
	db := filepath.Join(dir, "history.db")

	app, _ := testApp()
	require.Nil(t, app.Run([]string{"imgconv", "--db", db, in, filepath.Join(dir, "out.ppm")}))

	app, out := testApp()
	require.Nil(t, app.Run([]string{"imgconv", "--db", db, "history", "--limit", "5"}))
	assert.Contains(t, out.String(), "out.ppm")
	assert.Contains(t, out.String(), "5x3")
	assert.Contains(t, out.String(), imgconv.StatusOK)

	app, _ = testApp()
	assert.Equal(t, 1, exitCodeOf(t, app.Run([]string{"imgconv", "history"})))
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bmp")
	writeBMP(t, in)

	app, out := testApp()
	require.Nil(t, app.Run([]string{"imgconv", "info", in}))
	assert.Regexp(t, `File size: +102 bytes`, out.String())
	assert.Regexp(t, `Width: +5 px`, out.String())
	assert.Regexp(t, `Stride: +16 bytes`, out.String())
	assert.Regexp(t, `Padding: +1 bytes`, out.String())

	app, _ = testApp()
	assert.Equal(t, 4, exitCodeOf(t, app.Run([]string{"imgconv", "info", filepath.Join(dir, "missing.bmp")})))

	app, out = testApp()
	assert.Equal(t, 1, exitCodeOf(t, app.Run([]string{"imgconv", "info"})))
	assert.Contains(t, out.String(), "FILE")
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writeBMP(t, filepath.Join(dir, "a.bmp"))

	dst := filepath.Join(dir, "out")
	app, out := testApp()
	require.Nil(t, app.Run([]string{"imgconv", "batch", "--ext", ".gif", "--workers", "1", dir, dst}))
	assert.Contains(t, out.String(), "Successfully converted")
	assert.FileExists(t, filepath.Join(dst, "a.gif"))

	app, _ = testApp()
	assert.Equal(t, 3, exitCodeOf(t, app.Run([]string{"imgconv", "batch", "--ext", ".txt", dir, dst})))

	app, out = testApp()
	assert.Equal(t, 1, exitCodeOf(t, app.Run([]string{"imgconv", "batch", dir})))
	assert.Contains(t, out.String(), "SOURCE DESTINATION")
}

func TestFormatsCommand(t *testing.T) {
	app, out := testApp()
	require.Nil(t, app.Run([]string{"imgconv", "formats"}))
	assert.Contains(t, out.String(), ".jpg, .jpeg")
	assert.Contains(t, out.String(), "bmp")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.Nil(t, err)
	assert.Equal(t, &config{}, cfg)

	file := filepath.Join(t.TempDir(), "imgconv.yaml")
	require.Nil(t, ioutil.WriteFile(file, []byte("db: /tmp/history.db\nworkers: 3\njpeg_quality: 70\ngif_colors: 32\ntiff_compress: true\n"), 0644))

	cfg, err = loadConfig(file)
	require.Nil(t, err)
	assert.Equal(t, "/tmp/history.db", cfg.DB)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 70, cfg.JPEGQuality)
	assert.Equal(t, 32, cfg.GIFColors)
	assert.True(t, cfg.TIFFCompress)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)

	require.Nil(t, ioutil.WriteFile(file, []byte("workers: [\n"), 0644))
	_, err = loadConfig(file)
	assert.NotNil(t, err)
}

func TestConfigMerge(t *testing.T) {
	file := filepath.Join(t.TempDir(), "imgconv.yaml")
	require.Nil(t, ioutil.WriteFile(file, []byte("jpeg_quality: 70\ngif_colors: 32\n"), 0644))

	var cfg *config
	app, _ := testApp()
	app.Action = func(c *cli.Context) error {
		var err error
		cfg, err = loadConfig(c.String("config"))
		if err != nil {
			return err
		}
		cfg.merge(c)
		return nil
	}

	require.Nil(t, app.Run([]string{"imgconv", "--config", file, "--quality", "40"}))
	assert.Equal(t, 40, cfg.JPEGQuality)
	assert.Equal(t, 32, cfg.GIFColors)
	assert.False(t, cfg.TIFFCompress)
}

func TestNewLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "imgconv.log")

	logger := newLogger(false, file)
	logger.Debug("not written")
	logger.Info("converted image", zap.String("input", "in.bmp"))
	_ = logger.Sync()

	b, err := ioutil.ReadFile(file)
	require.Nil(t, err)
	assert.Contains(t, string(b), `"msg":"converted image"`)
	assert.Contains(t, string(b), `"input":"in.bmp"`)
	assert.NotContains(t, string(b), "not written")
}
