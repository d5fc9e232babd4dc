package main

import (
	"bufio"
	"flag"
	"os"

	"btreeindex/btree"
	"btreeindex/cli"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logrus.Fatal(err)
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		logrus.Fatal(err)
	}
	if cfg.noColor {
		color.NoColor = true
	}

	tree, err := btree.New[int](cfg.degree,
		btree.WithDuplicates(cfg.duplicates),
		btree.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal(err)
	}

	if cfg.seed {
		n, err := seedTree(tree, cfg.records, cfg.seedMax)
		if err != nil {
			logger.Fatal(err)
		}
		logger.WithFields(logrus.Fields{"inserted": n, "height": tree.Height()}).Info("seeded tree")
	}

	scanner := bufio.NewScanner(os.Stdin)
	demo := cli.NewCli(scanner, os.Stdout, tree, logger)
	demo.Start()
}
