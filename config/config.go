package config

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	EnvVarPrefix = "GUNZIP"

	DefaultConfigFile = "gunzip.toml"
	DefaultLogLevel   = "info"
	DefaultNumWorkers = 4
	DefaultSuffix     = ".out"

	MinNumWorkers = 1
	MaxNumWorkers = 64
)

// VERSION gets set during build
var VERSION = "0.0.0"

type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Config *TOMLConfig `toml:"config"`
	Output *TOMLOutput `toml:"output"`
}

type TOMLConfig struct {
	LogLevel      string `toml:"log_level"`
	NumWorkers    int    `toml:"num_workers"`
	VerifyTrailer bool   `toml:"verify_trailer"`
}

type TOMLOutput struct {
	Dir       string `toml:"dir"`
	Suffix    string `toml:"suffix"` // appended when the input has no .gz extension
	Overwrite bool   `toml:"overwrite"`
}

type CLI struct {
	ConfigFile string `kong:"help='Path to the TOML config file',type='path',default='${config_file}',short='c'"`
	OutputDir  string `kong:"help='Directory for decoded files, next to the input by default',short='o'"`
	Workers    int    `kong:"help='Number of files decoded at once (overrides config.num_workers)',short='w'"`
	Verify     bool   `kong:"help='Check CRC-32 and size from the GZIP trailer'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Only report failures',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	Inputs []string `kong:"arg,help='Input files or glob patterns such as logs/**/*.gz'"`

	// Internal bits
	Ctx *kong.Context `kong:"-"`
}

// NewConfig reads the process arguments.
func NewConfig() (*Config, error) {
	return New(os.Args[1:])
}

// New builds the configuration from args, the environment, an optional .env
// file and the TOML file named by --config. Flags win over the TOML file.
func New(args []string) (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs(args)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	tomlConfig, err := readTOML(cli.ConfigFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	applyCLIOverrides(cli, tomlConfig)

	if err := validateTOML(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error validating TOML config")
	}

	return &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}, nil
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Config == nil {
		t.Config = &TOMLConfig{}
	}

	if t.Output == nil {
		t.Output = &TOMLOutput{}
	}

	// Set defaults for [config]
	if t.Config.LogLevel == "" {
		t.Config.LogLevel = DefaultLogLevel
	}

	if t.Config.NumWorkers == 0 {
		t.Config.NumWorkers = DefaultNumWorkers
	}

	// Set defaults for [output]
	if t.Output.Suffix == "" {
		t.Output.Suffix = DefaultSuffix
	}

	return nil
}

func applyCLIOverrides(cli *CLI, t *TOML) {
	if cli.Workers != 0 {
		t.Config.NumWorkers = cli.Workers
	}

	if cli.Verify {
		t.Config.VerifyTrailer = true
	}

	if cli.OutputDir != "" {
		t.Output.Dir = cli.OutputDir
	}

	if cli.Debug {
		t.Config.LogLevel = "debug"
	}
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	// Validate [config]
	if err := validateTOMLConfig(t.Config); err != nil {
		return errors.Wrap(err, "config error(s)")
	}

	// Validate [output]
	if err := validateTOMLOutput(t.Output); err != nil {
		return errors.Wrap(err, "output error(s)")
	}

	return nil
}

func validateTOMLConfig(c *TOMLConfig) error {
	if c == nil {
		return errors.New("config cannot be empty")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Errorf("config.log_level %s is invalid", c.LogLevel)
	}

	if c.NumWorkers < MinNumWorkers || c.NumWorkers > MaxNumWorkers {
		return errors.Errorf("config.num_workers must be between %d and %d", MinNumWorkers, MaxNumWorkers)
	}

	return nil
}

func validateTOMLOutput(o *TOMLOutput) error {
	if o == nil {
		return errors.New("output cannot be empty")
	}

	if o.Suffix == "" {
		return errors.New("output.suffix cannot be empty")
	}

	if o.Dir == "" {
		return nil
	}

	info, err := os.Stat(o.Dir)
	if os.IsNotExist(err) {
		return errors.Errorf("output.dir %s does not exist", o.Dir)
	}
	if err != nil {
		return errors.Wrap(err, "error checking output.dir")
	}

	if !info.IsDir() {
		return errors.Errorf("output.dir %s is not a directory", o.Dir)
	}

	return nil
}

func readCLIArgs(args []string) (*CLI, error) {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("gunzip"),
		kong.Description("Decoder for GZIP files made of dynamic Huffman blocks"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version":     VERSION,
			"config_file": DefaultConfigFile,
		})
	if err != nil {
		return nil, errors.Wrap(err, "error building CLI parser")
	}

	if cli.Ctx, err = parser.Parse(args); err != nil {
		return nil, err
	}

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

// readTOML loads file; a missing file yields the defaults.
func readTOML(file string) (*TOML, error) {
	tomlConfig := &TOML{}

	// Attempt to load file
	data, err := os.ReadFile(file)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "error reading file")
	default:
		if err := toml.Unmarshal(data, tomlConfig); err != nil {
			return nil, errors.Wrap(err, "error parsing TOML config")
		}
	}

	// Set defaults
	if err := setTOMLDefaults(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error setting TOML defaults")
	}

	return tomlConfig, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if len(cli.Inputs) == 0 {
		return errors.New("at least one input is required")
	}

	if cli.Workers < 0 {
		return errors.New("--workers cannot be negative")
	}

	if cli.Debug && cli.Quiet {
		return errors.New("--debug and --quiet are mutually exclusive")
	}

	return nil
}
