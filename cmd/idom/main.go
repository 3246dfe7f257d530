package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/config"
	"github.com/vango-dev/idom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds the state shared by all commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	configPath string
	colorMode  string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "idom",
		Short: "Run and preview incremental DOM render scripts",
		Long: `idom drives the incremental DOM patch engine from YAML render scripts.

A script describes an initial tree and a sequence of render passes. Each
pass is patched into the same live tree, so you can watch nodes being
reused, moved and removed:

  idom run list.yaml          run every pass and print the result
  idom run list.yaml --diff   show what each pass changed
  idom serve list.yaml        preview in the browser, rerun on save
  idom decode frames.bin      inspect recorded mutation frames`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to idom.yaml (default: nearest idom.yaml above the working directory)")
	rootCmd.PersistentFlags().StringVar(&a.colorMode, "color", "", "Colour output: auto, always or never (default from idom.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		runCmd(a),
		serveCmd(a),
		decodeCmd(a),
		versionCmd(),
	)
	return rootCmd
}

// setup loads the configuration and configures logging and colour.
func (a *app) setup(logOut io.Writer) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return err
	}

	if a.colorMode != "" {
		a.cfg.Output.Color = a.colorMode
	}
	if a.verbose {
		a.cfg.Log.Level = "debug"
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	errors.SetColorMode(errors.ColorMode(a.cfg.Output.Color), os.Stdout)
	a.logger = a.cfg.Logger(logOut)
	slog.SetDefault(a.logger)
	return nil
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	redX   = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.FgHiBlack).SprintFunc()
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}

// failure prints an error line.
func failure(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", redX("✗"), fmt.Sprintf(format, args...))
}
