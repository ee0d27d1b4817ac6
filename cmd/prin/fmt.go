package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/prin-fmt/prin/pkg/ioctx"
	"github.com/prin-fmt/prin/pkg/prin"
)

func fmtCmd(cfg *Config) *cobra.Command {
	var (
		write bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [flags] [path...]",
		Short: "Reformat EDN files",
		Long: `Reformat EDN files to the canonical layout for the configured width.

By default, fmt prints the formatted source to stdout.
Use -w to write the result back to the source file.
Use -l to list files that would be changed.`,
		Example: `  # Format a file and print to stdout
  prin fmt data.edn

  # Format a file in place
  prin fmt -w data.edn

  # Format all .edn files in a directory
  prin fmt -w ./config

  # List files that need formatting
  prin fmt -l ./config`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg.Debug, os.Stderr)
			opts := resolveOptions(cmd.Context(), *cfg)
			return runFmt(cmd, args, opts, write, list)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write result to source file instead of stdout")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List files that would be formatted")

	return cmd
}

func runFmt(cmd *cobra.Command, paths []string, opts prin.Options, write, list bool) error {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("accessing %s: %w", path, err)
		}

		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return fmt.Errorf("reading directory %s: %w", path, err)
			}
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".edn") {
					files = append(files, filepath.Join(path, entry.Name()))
				}
			}
		} else {
			files = append(files, path)
		}
	}

	// Files format independently; only output happens after the wait so
	// -l listings stay in input order.
	results := make([]fmtResult, len(files))
	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			res, err := formatFile(file, opts, write)
			if err != nil {
				return fmt.Errorf("formatting %s: %w", file, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := ioctx.StdoutFromContext(cmd.Context())
	for i, res := range results {
		switch {
		case list:
			if res.changed {
				fmt.Fprintln(out, files[i])
			}
		case !write:
			fmt.Fprint(out, res.formatted)
		}
	}
	return nil
}

type fmtResult struct {
	formatted string
	changed   bool
}

func formatFile(path string, opts prin.Options, write bool) (fmtResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmtResult{}, err
	}

	formatted, err := prin.FormatValue(string(source), &opts)
	if err != nil {
		return fmtResult{}, err
	}

	res := fmtResult{
		formatted: formatted,
		changed:   string(source) != formatted,
	}

	if write && res.changed {
		if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
			return fmtResult{}, err
		}
	}
	return res, nil
}
