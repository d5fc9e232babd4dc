package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

type config struct {
	degree     int
	duplicates bool
	seed       bool
	records    int
	seedMax    int
	logLevel   string
	logFormat  string
	noColor    bool
}

func defaultConfig() config {
	return config{
		degree:    2,
		records:   100,
		seedMax:   999,
		logLevel:  "info",
		logFormat: "text",
	}
}

// applyEnv reads BTREE_DEGREE and BTREE_LOG_LEVEL. Flags parsed afterwards
// take precedence.
func (c *config) applyEnv(getenv func(string) string) error {
	if v := getenv("BTREE_DEGREE"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "BTREE_DEGREE=%q", v)
		}
		c.degree = d
	}
	if v := getenv("BTREE_LOG_LEVEL"); v != "" {
		c.logLevel = v
	}
	return nil
}

func (c *config) registerFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.degree, "degree", c.degree, "Minimum degree of the B-Tree (at least 2).")
	fs.BoolVar(&c.duplicates, "dups", c.duplicates, "Allow duplicate keys.")
	fs.BoolVar(&c.seed, "seed", c.seed, "Seed the tree with random keys created with go-faker.")
	fs.IntVar(&c.records, "records", c.records, "Amount of keys to seed the tree with upon startup.")
	fs.IntVar(&c.seedMax, "seed-max", c.seedMax, "Largest key generated when seeding.")
	fs.StringVar(&c.logLevel, "log-level", c.logLevel, "Log level: trace, debug, info, warn, error.")
	fs.StringVar(&c.logFormat, "log-format", c.logFormat, "Log format: text or json.")
	fs.BoolVar(&c.noColor, "no-color", c.noColor, "Disable colored output.")
}

func (c config) validate() error {
	if c.degree < 2 {
		return errors.Newf("degree must be at least 2, got %d", c.degree)
	}
	if c.records < 0 {
		return errors.Newf("records must not be negative, got %d", c.records)
	}
	if c.seed && c.seedMax+1 < c.records {
		return errors.Newf("cannot seed %d distinct keys from [0, %d]", c.records, c.seedMax)
	}
	if _, err := logrus.ParseLevel(c.logLevel); err != nil {
		return errors.Wrap(err, "log-level")
	}
	if c.logFormat != "text" && c.logFormat != "json" {
		return errors.Newf("log-format must be text or json, got %q", c.logFormat)
	}
	return nil
}

func loadConfig(args []string, getenv func(string) string) (config, error) {
	cfg := defaultConfig()
	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("btree", flag.ContinueOnError)
	cfg.registerFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "\nB-Tree CLI\n\nArguments:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func newLogger(cfg config, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log-level")
	}
	if w == nil {
		w = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if cfg.logFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}
