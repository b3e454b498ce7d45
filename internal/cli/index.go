package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elems-lang/elems/internal/registry"
	"github.com/elems-lang/elems/manifest"
)

// DefaultIndexDB is the index database path when neither the flag nor the
// config file names one.
const DefaultIndexDB = "elems-index.db"

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Indexed int      `json:"indexed"`
	DB      string   `json:"db"`
	Errors  []string `json:"errors,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	var paths []string
	var dbPath string

	cmd := &cobra.Command{
		Use:           "index",
		Short:         "Scan the search path and persist the package inventory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(rootOpts, paths, dbPath, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&paths, "path", nil, "package search root (repeatable)")
	cmd.Flags().StringVar(&dbPath, "db", "", "index database path")
	return cmd
}

func runIndex(opts *RootOptions, paths []string, dbPath string, cmd *cobra.Command) error {
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
	roots := searchPath(paths, cfg)
	if len(roots) == 0 {
		formatter.Error(ErrCodeGeneric, "no search path: pass --path or configure search_path", nil)
		return NewExitError(ExitCommandError, "no search path")
	}
	if dbPath == "" {
		dbPath = cfg.IndexDB
	}
	if dbPath == "" {
		dbPath = DefaultIndexDB
	}

	store, err := registry.Open(dbPath)
	if err != nil {
		formatter.Error(ErrCodeIndex, err.Error(), nil)
		return NewExitError(ExitCommandError, "opening index database")
	}
	defer store.Close()

	manifests, errs := manifest.Discover(roots)
	result := IndexResult{DB: dbPath}
	for _, derr := range errs {
		result.Errors = append(result.Errors, derr.Error())
	}

	ctx := cmd.Context()
	for _, man := range manifests {
		forms := make(map[string]string, len(man.Modules))
		for _, mod := range man.Modules {
			forms[mod] = moduleForm(man, mod)
		}
		if err := store.Record(ctx, man, forms); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("indexing %s: %v", man.Name, err))
			continue
		}
		result.Indexed++
		formatter.VerboseLog("indexed %s %s", man.Name, man.Version)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "indexed %d package(s) into %s\n", result.Indexed, result.DB)
	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", e)
	}
	if len(result.Errors) > 0 {
		return NewExitError(ExitFailure, "indexing completed with errors")
	}
	return nil
}
