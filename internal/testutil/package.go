// Package testutil provides fixture builders for engine and resolver tests.
//
// The builders write real package trees (manifests plus module files) into
// temporary directories so tests exercise the same filesystem paths as
// production resolution.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/elems-lang/elems/manifest"
)

// PackageSpec describes a package fixture to write to disk.
//
// Sources maps module names to source-form bodies (written as <name>.els).
// Dialect maps module names to pre-built dialect bodies (written as
// <name>.els.js). A module may appear in both maps; resolution prefers the
// dialect artifact.
type PackageSpec struct {
	Name    string
	Version string

	// Dir is the directory name under the search root. Defaults to Name.
	Dir string

	Sources map[string]string
	Dialect map[string]string

	// Modules overrides the declared module list. When empty, the list is
	// derived from the union of Sources and Dialect keys, sorted.
	Modules []string
}

// WritePackage writes the package fixture under root and returns the
// package directory. It fails the test on any filesystem error.
func WritePackage(t *testing.T, root string, spec PackageSpec) string {
	t.Helper()

	dir := spec.Dir
	if dir == "" {
		dir = spec.Name
	}
	pkgDir := filepath.Join(root, dir)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatalf("creating package dir: %v", err)
	}

	version := spec.Version
	if version == "" {
		version = "0.1.0"
	}

	modules := spec.Modules
	if len(modules) == 0 {
		seen := map[string]bool{}
		for name := range spec.Sources {
			seen[name] = true
		}
		for name := range spec.Dialect {
			seen[name] = true
		}
		for name := range seen {
			modules = append(modules, name)
		}
		sort.Strings(modules)
	}

	writeFile(t, filepath.Join(pkgDir, manifest.PluginFile), pluginCUE(spec.Name, modules))
	writeFile(t, filepath.Join(pkgDir, manifest.PackageFile), packageCUE(spec.Name, version))

	for name, src := range spec.Sources {
		writeFile(t, filepath.Join(pkgDir, name+manifest.SourceExt), src)
	}
	for name, src := range spec.Dialect {
		writeFile(t, filepath.Join(pkgDir, name+manifest.DialectExt), src)
	}

	return pkgDir
}

func pluginCUE(name string, modules []string) string {
	quoted := make([]string, len(modules))
	for i, m := range modules {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return fmt.Sprintf("name: %q\npackage: \".\"\nmodules: [%s]\n", name, strings.Join(quoted, ", "))
}

func packageCUE(name, version string) string {
	return fmt.Sprintf("name: %q\nversion: %q\n", name, version)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
