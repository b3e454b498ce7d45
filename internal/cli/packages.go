package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elems-lang/elems/internal/registry"
	"github.com/elems-lang/elems/manifest"
)

// PackageInfo is the output row for one discovered package.
type PackageInfo struct {
	Name    string       `json:"name"`
	Version string       `json:"version"`
	Root    string       `json:"root"`
	Modules []ModuleInfo `json:"modules"`
}

// ModuleInfo is the output row for one module of a package.
type ModuleInfo struct {
	Name string `json:"name"`
	Form string `json:"form"`
}

// NewPackagesCommand creates the packages command.
func NewPackagesCommand(rootOpts *RootOptions) *cobra.Command {
	var paths []string
	var dbPath string

	cmd := &cobra.Command{
		Use:           "packages",
		Short:         "List packages discovered on the search path",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath != "" {
				return runPackagesFromIndex(rootOpts, dbPath, cmd)
			}
			return runPackages(rootOpts, paths, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&paths, "path", nil, "package search root (repeatable)")
	cmd.Flags().StringVar(&dbPath, "db", "", "read from the package index database instead of scanning")
	return cmd
}

// runPackagesFromIndex lists packages from a previously built index.
func runPackagesFromIndex(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := registry.Open(dbPath)
	if err != nil {
		formatter.Error(ErrCodeIndex, err.Error(), nil)
		return NewExitError(ExitCommandError, "opening index database")
	}
	defer store.Close()

	pkgs, err := store.List(cmd.Context())
	if err != nil {
		formatter.Error(ErrCodeIndex, err.Error(), nil)
		return NewExitError(ExitCommandError, "reading index database")
	}

	infos := make([]PackageInfo, 0, len(pkgs))
	for _, p := range pkgs {
		info := PackageInfo{Name: p.Name, Version: p.Version, Root: p.Root}
		for _, m := range p.Modules {
			info.Modules = append(info.Modules, ModuleInfo{Name: m.Name, Form: m.Form})
		}
		infos = append(infos, info)
	}
	return printPackages(formatter, infos)
}

func runPackages(opts *RootOptions, paths []string, cmd *cobra.Command) error {
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

	manifests, errs := manifest.Discover(roots)
	for _, derr := range errs {
		formatter.VerboseLog("discover: %v", derr)
	}

	infos := make([]PackageInfo, 0, len(manifests))
	for _, man := range manifests {
		infos = append(infos, packageInfo(man))
	}
	return printPackages(formatter, infos)
}

func printPackages(formatter *OutputFormatter, infos []PackageInfo) error {
	if formatter.Format == "json" {
		return formatter.Success(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(formatter.Writer, "no packages found")
		return nil
	}
	for _, info := range infos {
		mods := make([]string, len(info.Modules))
		for i, m := range info.Modules {
			mods[i] = fmt.Sprintf("%s(%s)", m.Name, m.Form)
		}
		fmt.Fprintf(formatter.Writer, "%s %s  %s  [%s]\n",
			info.Name, info.Version, info.Root, strings.Join(mods, ", "))
	}
	return nil
}

// packageInfo inspects the implementation files of each listed module.
func packageInfo(man *manifest.Manifest) PackageInfo {
	info := PackageInfo{Name: man.Name, Version: man.Version, Root: man.Root}
	for _, mod := range man.Modules {
		info.Modules = append(info.Modules, ModuleInfo{Name: mod, Form: moduleForm(man, mod)})
	}
	return info
}

// moduleForm mirrors resolver preference: dialect artifact first, then
// source.
func moduleForm(man *manifest.Manifest, mod string) string {
	dialect, source := man.ModulePaths(mod)
	if fileExists(dialect) {
		return "dialect"
	}
	if fileExists(source) {
		return "source"
	}
	return "missing"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
