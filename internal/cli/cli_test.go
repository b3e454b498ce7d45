package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elems-lang/elems/internal/registry"
	"github.com/elems-lang/elems/internal/testutil"
)

// execute runs the CLI with args and returns stdout, stderr, and the
// command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func fixtureRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name:    "mathx",
		Version: "1.0.0",
		Sources: map[string]string{
			"arith": "exports.add = function(a, b) { return a + b; };",
		},
	})
	return root
}

func TestRun_Script(t *testing.T) {
	root := fixtureRoot(t)
	script := writeScript(t, t.TempDir(), "main.js",
		"var arith = imports.require('mathx.arith'); arith.add(40, 2);")

	out, _, err := execute(t, "run", script, "--path", root)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestRun_JSONOutput(t *testing.T) {
	script := writeScript(t, t.TempDir(), "main.js", "1 + 1;")

	out, _, err := execute(t, "run", script, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "2", resp.Data)
}

func TestRun_MissingScript(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "nope.js"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_ScriptError(t *testing.T) {
	script := writeScript(t, t.TempDir(), "bad.js", "imports.require('ghost.mod');")

	out, _, err := execute(t, "run", script, "--path", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "ghost")
}

func TestRun_InvalidFormat(t *testing.T) {
	script := writeScript(t, t.TempDir(), "main.js", "1;")

	_, _, err := execute(t, "run", script, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestPackages_Text(t *testing.T) {
	root := fixtureRoot(t)

	out, _, err := execute(t, "packages", "--path", root)
	require.NoError(t, err)
	assert.Contains(t, out, "mathx")
	assert.Contains(t, out, "1.0.0")
	assert.Contains(t, out, "arith")
}

func TestPackages_JSON(t *testing.T) {
	root := fixtureRoot(t)

	out, _, err := execute(t, "packages", "--path", root, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []PackageInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "mathx", resp.Data[0].Name)
	require.Len(t, resp.Data[0].Modules, 1)
	assert.Equal(t, "source", resp.Data[0].Modules[0].Form)
}

func TestPackages_NoSearchPath(t *testing.T) {
	_, _, err := execute(t, "packages")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_Valid(t *testing.T) {
	root := fixtureRoot(t)

	out, _, err := execute(t, "validate", filepath.Join(root, "mathx"))
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.cue"),
		[]byte("name: \"pkg1\"\nmodules: [\"m1\"]\n"), 0o644))
	// package.cue missing.

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "fail")
}

func TestIndex_RecordsPackages(t *testing.T) {
	root := fixtureRoot(t)
	db := filepath.Join(t.TempDir(), "index.db")

	out, _, err := execute(t, "index", "--path", root, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed 1 package(s)")

	store, err := registry.Open(db)
	require.NoError(t, err)
	defer store.Close()

	p, err := store.Get(context.Background(), "mathx")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)
	require.Len(t, p.Modules, 1)
	assert.Equal(t, "arith", p.Modules[0].Name)
	assert.Equal(t, "source", p.Modules[0].Form)
}

func TestPackages_FromIndex(t *testing.T) {
	root := fixtureRoot(t)
	db := filepath.Join(t.TempDir(), "index.db")

	_, _, err := execute(t, "index", "--path", root, "--db", db)
	require.NoError(t, err)

	out, _, err := execute(t, "packages", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "mathx 1.0.0")
	assert.Contains(t, out, "arith(source)")
}

func TestPackages_FromIndexMissingDB(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nope", "index.db")

	_, _, err := execute(t, "packages", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfig_SearchPathFromFile(t *testing.T) {
	root := fixtureRoot(t)
	cfgPath := filepath.Join(t.TempDir(), "elems.yaml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("search_path:\n  - "+root+"\n"), 0o644))

	out, _, err := execute(t, "packages", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "mathx")
}

func TestLoadConfig_ExplicitMustExist(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_DefaultOptional(t *testing.T) {
	// Run from a directory without elems.yaml.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.SearchPath)
}
