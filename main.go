package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/strokemesh/pkg/config"
	"github.com/chazu/strokemesh/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "strokemesh",
		Short:        "Offset, combine and extrude 2D strokes described in Lisp",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "",
		"settings file (defaults to "+config.DefaultFile+" when present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(newEvalCmd(opts), newConfigCmd(opts))
	return cmd
}

// settings loads the configured settings file and installs the logger.
func (o *rootOptions) settings(stderr io.Writer) (config.Settings, error) {
	s := config.Default()
	switch {
	case o.configFile != "":
		loaded, err := config.Open(o.configFile)
		if err != nil {
			return s, err
		}
		s = loaded
	default:
		loaded, err := config.Open(config.DefaultFile)
		switch {
		case err == nil:
			s = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return s, err
		}
	}
	if o.logLevel != "" {
		s.LogLevel = o.logLevel
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: s.Level()})))
	return s, nil
}

// ---------------------------------------------------------------------------
// strokemesh eval
// ---------------------------------------------------------------------------

func newEvalCmd(root *rootOptions) *cobra.Command {
	var stlDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "eval <file>",
		Short: "Evaluate a script and report the resulting strokes and meshes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			app, err := NewAppFromSettings(s)
			if err != nil {
				return err
			}

			result := app.Evaluate(string(source))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printResult(out, args[0], result)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%s: evaluation failed with %d error(s)", args[0], len(result.Errors))
			}
			if stlDir != "" {
				return exportSTL(out, stlDir, result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stlDir, "stl", "", "write each generated mesh to `dir` as an STL file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printResult(w io.Writer, name string, r EvalResult) {
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "%s:%d: error: %s\n", name, e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "%s: error: %s\n", name, e.Message)
		}
	}
	for _, wn := range r.Warnings {
		fmt.Fprintf(w, "%s: warning: %s\n", name, wn.Message)
	}
	if len(r.Errors) > 0 {
		return
	}
	fmt.Fprintf(w, "%d strokes, %d meshes\n", len(r.Strokes), len(r.Meshes))
	for _, m := range r.Meshes {
		fmt.Fprintf(w, "  %s: %d vertices, %d triangles\n", m.Name, len(m.Vertices)/3, len(m.Indices)/3)
	}
}

func exportSTL(w io.Writer, dir string, r EvalResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, m := range r.Solids {
		path := filepath.Join(dir, m.Name+".stl")
		if err := m.SaveSTL(path); err != nil {
			return fmt.Errorf("export %s: %w", m.Name, err)
		}
		fmt.Fprintf(w, "wrote %s\n", path)
	}
	return nil
}

// ---------------------------------------------------------------------------
// strokemesh config
// ---------------------------------------------------------------------------

func newConfigCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.settings(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return s.Encode(cmd.OutOrStdout())
		},
	}
}
