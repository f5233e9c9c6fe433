// Package config assembles the CLI configuration.
//
// Values are layered, last wins: defaults, then a .env file, then the
// process environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

// DefaultEnvFile is read when no env file is given explicitly.
const DefaultEnvFile = ".env"

// Environment variables.
const (
	EnvMapping = "SHEETGRAPH_MAPPING"
	EnvDataDir = "SHEETGRAPH_DATA_DIR"
	EnvTextDir = "SHEETGRAPH_TEXT_DIR"
	EnvSink    = "SHEETGRAPH_SINK"
	EnvDSN     = "SHEETGRAPH_DSN"
	EnvOutput  = "SHEETGRAPH_OUTPUT"
	EnvDebug   = "SHEETGRAPH_DEBUG"
	// EnvCacheDir enables the on-disk sheet cache.
	EnvCacheDir = "CACHED_DIR"
)

// Sink kinds.
const (
	SinkMemory   = "memory"
	SinkPostgres = "postgres"
	SinkMySQL    = "mysql"
	SinkBSON     = "bson"
)

var sinks = []string{SinkMemory, SinkPostgres, SinkMySQL, SinkBSON}

var (
	errConfigInvalid = errors.New("invalid config")
	errNoMapping     = errors.New("mapping file is required")
	errNoDataDir     = errors.New("data directory is required")
	errUnknownSink   = errors.New("unknown sink")
	errNoDSN         = errors.New("sink needs a DSN")
	errNoOutput      = errors.New("bson sink needs an output file")
)

// Config holds the CLI settings.
type Config struct {
	// Mapping is the path of the mapping file.
	Mapping string
	// DataDir holds one directory of CSV sheets per spreadsheet.
	DataDir string
	// CacheDir caches fetched spreadsheets. Empty disables the cache.
	CacheDir string
	// TextDir holds the .txt files served to {{expand_file}} tokens.
	TextDir string
	Sink    string
	DSN     string
	// Output is the file written by the bson sink.
	Output string
	DryRun bool
	Debug  bool
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir: "data",
		TextDir: "text",
		Sink:    SinkMemory,
	}
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds a Config from defaults, envFile and lookup. A missing envFile
// is only an error when mustExist is set.
func Load(envFile string, mustExist bool, lookup LookupFunc) (Config, error) {
	cfg := Default()

	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if mustExist || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s: %w", errConfigInvalid, envFile, err)
		}

		dotenv = map[string]string{}
	}

	get := func(key string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}

		v, ok := dotenv[key]

		return v, ok
	}

	for key, dst := range map[string]*string{
		EnvMapping:  &cfg.Mapping,
		EnvDataDir:  &cfg.DataDir,
		EnvTextDir:  &cfg.TextDir,
		EnvSink:     &cfg.Sink,
		EnvDSN:      &cfg.DSN,
		EnvOutput:   &cfg.Output,
		EnvCacheDir: &cfg.CacheDir,
	} {
		if v, ok := get(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := get(EnvDebug); ok && strings.TrimSpace(v) != "" {
		cfg.Debug, err = strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", errConfigInvalid, EnvDebug, err)
		}
	}

	return cfg, nil
}

// BindFlags registers flags on fs that override c, using c's current values
// as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVarP(&c.Mapping, "mapping", "m", c.Mapping, "mapping file (YAML or JSON)")
	fs.StringVar(&c.DataDir, "data", c.DataDir, "directory of <spreadsheet>/<sheet>.csv files")
	fs.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "cache fetched spreadsheets here")
	fs.StringVar(&c.TextDir, "text-dir", c.TextDir, "directory of .txt files for file tokens")
	fs.StringVar(&c.Sink, "sink", c.Sink, "where to commit records: "+strings.Join(sinks, ", "))
	fs.StringVar(&c.DSN, "dsn", c.DSN, "database DSN for the postgres and mysql sinks")
	fs.StringVarP(&c.Output, "output", "o", c.Output, "output file for the bson sink")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun, "convert and commit to memory only")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "debug logging")
}

// Validate checks the settings a command needs. Loading needs a data
// directory and a usable sink; every command needs a mapping.
func (c Config) Validate(load bool) error {
	var errs []error

	if c.Mapping == "" {
		errs = append(errs, errNoMapping)
	}

	if load {
		errs = append(errs, c.validateLoad()...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", errConfigInvalid, errors.Join(errs...))
	}

	return nil
}

func (c Config) validateLoad() []error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errNoDataDir)
	}

	if c.DryRun {
		return errs
	}

	if !slices.Contains(sinks, c.Sink) {
		return append(errs, fmt.Errorf("%w %q", errUnknownSink, c.Sink))
	}

	switch c.Sink {
	case SinkPostgres, SinkMySQL:
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("%w: %s", errNoDSN, c.Sink))
		}
	case SinkBSON:
		if c.Output == "" {
			errs = append(errs, errNoOutput)
		}
	}

	return errs
}

// SinkKind returns the sink to use, honouring DryRun.
func (c Config) SinkKind() string {
	if c.DryRun {
		return SinkMemory
	}

	return c.Sink
}
