package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/elems-lang/elems/el"
)

const (
	replHistoryFile = ".elems_history"
	replPrompt      = "el> "
)

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	var paths []string

	cmd := &cobra.Command{
		Use:           "repl",
		Short:         "Start an interactive session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(rootOpts, paths, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&paths, "path", nil, "package search root (repeatable)")
	return cmd
}

func runRepl(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	eng, err := el.New(el.WithSearchPath(searchPath(paths, cfg)...))
	if err != nil {
		return WrapExitError(ExitCommandError, "starting engine", err)
	}
	defer eng.Close()

	fmt.Fprintln(cmd.OutOrStdout(), "elems repl. Ctrl+D or :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, replHistoryFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	return eng.Scope(func(s *el.Scope) error {
		for {
			line, err := ln.Prompt(replPrompt)
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if err != nil {
				return nil
			}

			code := strings.TrimSpace(line)
			if code == "" {
				continue
			}
			if strings.HasPrefix(code, ":") {
				switch strings.ToLower(code) {
				case ":quit":
					return nil
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "unknown command. Type :quit to exit.")
				}
				continue
			}

			sv, err := s.Eval("repl", code)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
				continue
			}
			if !sv.IsUndefined() {
				fmt.Fprintln(cmd.OutOrStdout(), sv.ToString())
			}
			ln.AppendHistory(code)
		}
	})
}
