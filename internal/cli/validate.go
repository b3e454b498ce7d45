package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elems-lang/elems/manifest"
)

// ValidationResult reports the outcome of validating one package directory.
type ValidationResult struct {
	Root    string   `json:"root"`
	Name    string   `json:"name,omitempty"`
	Version string   `json:"version,omitempty"`
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <package-dir>...",
		Short:         "Validate package manifests",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, dirs []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]ValidationResult, 0, len(dirs))
	failed := 0
	for _, dir := range dirs {
		res := ValidationResult{Root: dir}
		man, err := manifest.Load(dir)
		if err != nil {
			res.Valid = false
			var merr *manifest.Error
			if errors.As(err, &merr) {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", merr.File, merr.Message))
			} else {
				res.Errors = append(res.Errors, err.Error())
			}
			failed++
		} else {
			res.Valid = true
			res.Name = man.Name
			res.Version = man.Version
		}
		results = append(results, res)
	}

	if opts.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Fprintf(formatter.Writer, "ok    %s  (%s %s)\n", res.Root, res.Name, res.Version)
				continue
			}
			for _, msg := range res.Errors {
				fmt.Fprintf(formatter.Writer, "fail  %s: %s\n", res.Root, msg)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d package(s) invalid", failed, len(dirs)))
	}
	return nil
}
