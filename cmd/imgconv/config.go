package main

import (
	"fmt"
	"io/ioutil"

	"github.com/bodgit/imgconv/format"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// config holds the defaults read from the YAML file named by --config.
// Flags given on the command line take precedence.
type config struct {
	DB      string `yaml:"db"`
	LogFile string `yaml:"log_file"`
	Workers int    `yaml:"workers"`

	format.Options `yaml:",inline"`
}

func loadConfig(file string) (*config, error) {
	cfg := new(config)
	if file == "" {
		return cfg, nil
	}

	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return cfg, nil
}

// merge overrides the configuration with any flags explicitly set
func (cfg *config) merge(c *cli.Context) {
	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("quality") {
		cfg.JPEGQuality = c.Int("quality")
	}
	if c.IsSet("colors") {
		cfg.GIFColors = c.Int("colors")
	}
	if c.IsSet("deflate") {
		cfg.TIFFCompress = c.Bool("deflate")
	}
}
