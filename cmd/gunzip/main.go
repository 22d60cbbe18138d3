package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/consensys/gunzip/config"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	setLogLevel(cfg)
	displayConfig(cfg)

	files, err := expandInputs(cfg.CLI.Inputs)
	if err != nil {
		logrus.Errorf("unable to expand inputs: %s", err)
		os.Exit(1)
	}

	if err := run(cfg, files); err != nil {
		logrus.Errorf("error during run: %s", err)
		os.Exit(1)
	}
}

func setLogLevel(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.TOML.Config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	if cfg.CLI.Quiet {
		level = logrus.WarnLevel
	}

	logrus.SetLevel(level)
	if level >= logrus.DebugLevel {
		logrus.Info("debug mode enabled")
	}
}

func displayConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	logrus.Debug("gunzip settings:")
	logrus.Debug("  [CLI]")
	logrus.Debugf("  version: %s", config.VERSION)
	logrus.Debugf("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Debugf("  inputs: %v", cfg.CLI.Inputs)
	logrus.Debug("")
	logrus.Debug("  [CONFIG]")
	logrus.Debugf("  config.log_level: %s", cfg.TOML.Config.LogLevel)
	logrus.Debugf("  config.num_workers: %d", cfg.TOML.Config.NumWorkers)
	logrus.Debugf("  config.verify_trailer: %v", cfg.TOML.Config.VerifyTrailer)
	logrus.Debug("")
	logrus.Debug("  [OUTPUT]")
	logrus.Debugf("  output.dir: %s", cfg.TOML.Output.Dir)
	logrus.Debugf("  output.suffix: %s", cfg.TOML.Output.Suffix)
	logrus.Debugf("  output.overwrite: %v", cfg.TOML.Output.Overwrite)
}
