package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elems-lang/elems/el"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var paths []string

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Evaluate a script file",
		Long: `Evaluate a script file with a fresh engine.

The script may import packages from the search path via imports.require.
The final expression value is printed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(rootOpts, paths, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&paths, "path", nil, "package search root (repeatable)")
	return cmd
}

func runScript(opts *RootOptions, paths []string, script string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	src, err := os.ReadFile(script)
	if err != nil {
		formatter.Error(ErrCodeNotFound, fmt.Sprintf("reading script: %v", err), nil)
		return NewExitError(ExitCommandError, "script not readable")
	}

	eng, err := el.New(el.WithSearchPath(searchPath(paths, cfg)...))
	if err != nil {
		return WrapExitError(ExitCommandError, "starting engine", err)
	}
	defer eng.Close()

	var result el.Value
	err = eng.Scope(func(s *el.Scope) error {
		sv, err := s.Eval(script, string(src))
		if err != nil {
			return err
		}
		result, err = sv.ToValue()
		return err
	})
	if err != nil {
		formatter.Error(ErrCodeScript, err.Error(), nil)
		return NewExitError(ExitFailure, "script failed")
	}

	return formatter.Success(result.String())
}
