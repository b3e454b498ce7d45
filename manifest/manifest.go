package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
)

// Manifest file names recognized at a package root.
const (
	PluginFile  = "plugin.cue"
	PackageFile = "package.cue"
)

// Module implementation file suffixes. Resolution prefers the pre-built
// engine-dialect artifact and falls back to compiling the source form.
const (
	SourceExt  = ".els"
	DialectExt = ".els.js"
)

//go:embed schema.cue
var schemaSrc string

// Manifest is the parsed, validated descriptor of one package.
type Manifest struct {
	// Name is the package identifier used in import statements, NFC form.
	Name string

	// Version is the package's semantic version.
	Version string

	// Root is the absolute package root directory. Empty for synthetic
	// manifests of natively registered packages.
	Root string

	// Modules lists module names in declared (resolution) order, NFC form.
	Modules []string
}

// Error reports a missing or malformed manifest.
type Error struct {
	Root    string
	File    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	where := e.Root
	if e.File != "" {
		where = filepath.Join(e.Root, e.File)
	}
	if e.Err != nil {
		return fmt.Sprintf("manifest %s: %s: %v", where, e.Message, e.Err)
	}
	return fmt.Sprintf("manifest %s: %s", where, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsError reports whether err is a manifest Error, unwrapping as needed.
func IsError(err error) bool {
	var me *Error
	return errors.As(err, &me)
}

// Load reads and validates the two manifest files at root.
func Load(root string) (*Manifest, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Root: root, Message: "resolving package root", Err: err}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &Error{Root: abs, Message: "internal schema error", Err: err}
	}

	var plugin struct {
		Name    string   `json:"name"`
		Package string   `json:"package"`
		Modules []string `json:"modules"`
	}
	if err := decodeFile(ctx, schema, "#Plugin", abs, PluginFile, &plugin); err != nil {
		return nil, err
	}

	var pkg struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := decodeFile(ctx, schema, "#Package", abs, PackageFile, &pkg); err != nil {
		return nil, err
	}

	if plugin.Name != pkg.Name {
		return nil, &Error{
			Root:    abs,
			File:    PackageFile,
			Message: fmt.Sprintf("package name %q does not match plugin name %q", pkg.Name, plugin.Name),
		}
	}

	modules := make([]string, len(plugin.Modules))
	seen := make(map[string]bool, len(plugin.Modules))
	for i, m := range plugin.Modules {
		m = norm.NFC.String(m)
		if seen[m] {
			return nil, &Error{
				Root:    abs,
				File:    PluginFile,
				Message: fmt.Sprintf("duplicate module %q", m),
			}
		}
		seen[m] = true
		modules[i] = m
	}

	pkgRoot := filepath.Clean(filepath.Join(abs, plugin.Package))
	return &Manifest{
		Name:    norm.NFC.String(plugin.Name),
		Version: pkg.Version,
		Root:    pkgRoot,
		Modules: modules,
	}, nil
}

// decodeFile parses one CUE manifest file, unifies it with the named
// schema definition, validates it to a concrete value, and decodes it.
func decodeFile(ctx *cue.Context, schema cue.Value, def, root, file string, out any) error {
	path := filepath.Join(root, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Root: root, File: file, Message: "reading manifest", Err: err}
	}

	v := ctx.CompileString(string(data), cue.Filename(path))
	if err := v.Err(); err != nil {
		return &Error{Root: root, File: file, Message: "parsing manifest", Err: err}
	}

	d := schema.LookupPath(cue.ParsePath(def))
	if err := d.Err(); err != nil {
		return &Error{Root: root, File: file, Message: "internal schema error", Err: err}
	}

	unified := d.Unify(v)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return &Error{Root: root, File: file, Message: "validating manifest", Err: err}
	}
	if err := unified.Decode(out); err != nil {
		return &Error{Root: root, File: file, Message: "decoding manifest", Err: err}
	}
	return nil
}

// Synthetic builds an in-memory manifest for a package registered without
// disk presence. Root stays empty.
func Synthetic(name, version string, modules []string) *Manifest {
	normed := make([]string, len(modules))
	for i, m := range modules {
		normed[i] = norm.NFC.String(m)
	}
	return &Manifest{
		Name:    norm.NFC.String(name),
		Version: version,
		Modules: normed,
	}
}

// HasModule reports whether the manifest lists the module.
func (m *Manifest) HasModule(name string) bool {
	for _, mod := range m.Modules {
		if mod == name {
			return true
		}
	}
	return false
}

// ModulePaths returns the candidate implementation files for a module:
// the engine-dialect artifact and the source form, in preference order.
func (m *Manifest) ModulePaths(module string) (dialect, source string) {
	dialect = filepath.Join(m.Root, module+DialectExt)
	source = filepath.Join(m.Root, module+SourceExt)
	return dialect, source
}
