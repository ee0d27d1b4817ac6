package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/prin-fmt/prin/pkg/ioctx"
	"github.com/prin-fmt/prin/pkg/prin"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	Width      int
	MiserWidth int
	File       string
	LSP        bool
	LSPLogFile string
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "prin [flags] [file]",
		Short: "Pretty printer for EDN data",
		Long: `prin reads EDN data and pretty-prints it with width-aware layout.
Collections break across lines only when they don't fit, and nested
structure stays aligned under its opening delimiter.`,
		Example: `  # Pretty-print a file
  prin data.edn

  # Pretty-print stdin at a custom width
  cat data.edn | prin --width 40

  # Reformat files in place
  prin fmt -w ./config

  # Render a format control string
  prin render "~a has ~d item~:p" cart 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.LSP {
				return runLSP(cmd.Context(), cfg)
			}
			if len(args) == 1 {
				cfg.File = args[0]
			}
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&cfg.Width, "width", 0, "Page width in columns (default from prin.toml or 72)")
	rootCmd.PersistentFlags().IntVar(&cfg.MiserWidth, "miser-width", 0, "Miser mode threshold in columns")
	rootCmd.Flags().BoolVar(&cfg.LSP, "lsp", false, "Run in Language Server Protocol mode")
	rootCmd.Flags().StringVar(&cfg.LSPLogFile, "lsp-log-file", "", "Path to LSP log file (stderr if not specified)")

	rootCmd.AddCommand(fmtCmd(&cfg))
	rootCmd.AddCommand(renderCmd(&cfg))

	ctx := context.Background()
	ctx = ioctx.StdinToContext(ctx, os.Stdin)
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func setupLogging(debug bool, dest io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(dest, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// resolveOptions layers printing options: defaults, then any prin.toml found
// from the working directory, then explicit flags.
func resolveOptions(ctx context.Context, cfg Config) prin.Options {
	opts := prin.DefaultOptions()

	cwd, err := os.Getwd()
	if err == nil {
		path, config, err := prin.FindFileConfig(cwd)
		if err != nil {
			fmt.Fprintf(ioctx.StderrFromContext(ctx), "warning: failed to load %s: %v\n", path, err)
		} else if config != nil {
			slog.DebugContext(ctx, "loaded config", "path", path)
			opts = config.Apply(opts)
		}
	}

	if cfg.Width != 0 {
		opts.Width = cfg.Width
	}
	if cfg.MiserWidth != 0 {
		opts.MiserWidth = cfg.MiserWidth
	}
	return opts
}

func run(ctx context.Context, cfg Config) error {
	setupLogging(cfg.Debug, os.Stderr)

	var source []byte
	var err error
	if cfg.File != "" {
		source, err = os.ReadFile(cfg.File)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", cfg.File, err)
		}
	} else {
		source, err = io.ReadAll(ioctx.StdinFromContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	opts := resolveOptions(ctx, cfg)

	vals, err := prin.ReadAll(string(source))
	if err != nil {
		return err
	}

	out := ioctx.StdoutFromContext(ctx)
	for _, v := range vals {
		if cfg.Debug {
			slog.DebugContext(ctx, "printing value", "shape", pretty.Sprint(v))
		}
		if err := prin.Pprint(out, v, &opts); err != nil {
			return err
		}
	}
	return nil
}

func renderCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render CONTROL [arg...]",
		Short: "Render a format control string",
		Long: `Render applies a ~-directive control string to arguments.

Arguments are parsed as EDN data; anything that doesn't parse is passed
through as a string.`,
		Example: `  prin render "~{~a~^, ~}" "[1 2 3]"
  prin render "~@(~a~) wins ~:r place" alice 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg.Debug, os.Stderr)

			ctl, err := prin.Compile(args[0])
			if err != nil {
				return err
			}

			fmtArgs := make([]any, 0, len(args)-1)
			for _, raw := range args[1:] {
				v, err := prin.ReadString(raw)
				if err != nil {
					v = raw
				}
				fmtArgs = append(fmtArgs, v)
			}

			opts := resolveOptions(cmd.Context(), *cfg)
			out := ioctx.StdoutFromContext(cmd.Context())
			if err := ctl.Execute(out, &opts, fmtArgs...); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out)
			return err
		},
	}
	return cmd
}
