// Package main provides the sheetgraph CLI.
//
// sheetgraph loads tabular sheets into linked records:
//   - check validates a mapping file
//   - order prints the order sheets are converted in
//   - load converts every sheet and commits the records
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"sheetgraph/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sheetgraph:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	envFile, explicit := envFileFromArgs(args)

	cfg, err := config.Load(envFile, explicit, os.LookupEnv)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&cfg)
	root.SetArgs(args)

	return root.ExecuteContext(ctx)
}

// envFileFromArgs finds --env-file before the command line is parsed, since
// the env file supplies the flag defaults.
func envFileFromArgs(args []string) (string, bool) {
	fs := flag.NewFlagSet("env", flag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	envFile := fs.String("env-file", config.DefaultEnvFile, "")
	_ = fs.Parse(args)

	return *envFile, fs.Changed("env-file")
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "sheetgraph",
		Short:         "Load spreadsheet rows into linked records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("env-file", config.DefaultEnvFile, "read settings from this .env file")
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(newCheckCmd(cfg), newOrderCmd(cfg), newLoadCmd(cfg))

	return root
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	if debug {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		logger, err = z.Build()
	} else {
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.Sugar(), nil
}
