package el

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elems-lang/elems/internal/testutil"
)

func TestResolve_SingleModule(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "exports.value = 10; exports.name = 'm1';",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		m, err := s.Require("pkg1.m1")
		require.NoError(t, err)
		assert.Equal(t, "pkg1::m1", m.Qualified())
		assert.Equal(t, ModuleResolved, m.State())
		assert.Equal(t, FormSource, m.Form())

		v, ok := m.Get("value")
		require.True(t, ok)
		n, err := v.AsInt64()
		require.NoError(t, err)
		assert.Equal(t, int64(10), n)
		assert.Equal(t, []string{"name", "value"}, m.ExportNames())
	})
}

func TestResolve_EvaluatesOnce(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "globalThis.evalCount = (globalThis.evalCount || 0) + 1; exports.ok = true;",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		first, err := s.Require("pkg1.m1")
		require.NoError(t, err)
		second, err := s.Require("pkg1.m1")
		require.NoError(t, err)

		// Same module object, same exports map, single evaluation.
		assert.Same(t, first, second)

		count, err := s.Eval("t", "evalCount")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count.ToInt64())
	})
}

func TestResolve_ScriptRequireSharesCache(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "globalThis.evalCount = (globalThis.evalCount || 0) + 1; exports.value = 7;",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		sv, err := s.Eval("t", "imports.require('pkg1.m1').value")
		require.NoError(t, err)
		assert.Equal(t, int64(7), sv.ToInt64())

		// The host-side Require hits the same cache the script filled.
		_, err = s.Require("pkg1.m1")
		require.NoError(t, err)

		count, err := s.Eval("t", "evalCount")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count.ToInt64())
	})
}

func TestResolve_RequireReturnsIdenticalExports(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "exports.value = 10; exports.fn = function() { return 1; };",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		// A second require hands back the same exports object, not a
		// fresh marshaling of the cached module.
		sv, err := s.Eval("t", "imports.require('pkg1.m1') === imports.require('pkg1.m1')")
		require.NoError(t, err)
		assert.True(t, sv.ToBool())

		sv, err = s.Eval("t", "imports.require('pkg1.m1').fn === imports.require('pkg1.m1').fn")
		require.NoError(t, err)
		assert.True(t, sv.ToBool())
	})
}

func TestResolve_ModuleDependencies(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "base",
		Sources: map[string]string{
			"util": "exports.double = function(n) { return n * 2; };",
		},
	})
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "app",
		Sources: map[string]string{
			"main": "var util = imports.require('base.util'); exports.answer = util.double(21);",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		m, err := s.Require("app.main")
		require.NoError(t, err)
		v, ok := m.Get("answer")
		require.True(t, ok)
		n, err := v.AsInt64()
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})
}

func TestResolve_CycleDetection(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "A",
		Sources: map[string]string{
			"m1": "exports.v = imports.require('B.m1').v;",
		},
	})
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "B",
		Sources: map[string]string{
			"m1": "exports.v = imports.require('A.m1').v;",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		_, err := s.Require("A.m1")
		require.Error(t, err)
		assert.True(t, IsCircularImport(err))

		var cerr *CircularImportError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, []string{"A::m1", "B::m1", "A::m1"}, cerr.Chain)
		assert.Contains(t, cerr.Error(), "A::m1 -> B::m1 -> A::m1")
	})
}

func TestResolve_SelfImportCycle(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "A",
		Sources: map[string]string{
			"m1": "exports.v = imports.require('A.m1').v;",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		_, err := s.Require("A.m1")
		require.Error(t, err)
		var cerr *CircularImportError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, []string{"A::m1", "A::m1"}, cerr.Chain)
	})
}

func TestResolve_FailureIsCached(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "bad",
		Sources: map[string]string{
			"m1": "globalThis.attempts = (globalThis.attempts || 0) + 1; throw new Error('boom');",
		},
	})
	trace := NewTrace()
	eng := newTestEngine(t, WithSearchPath(root), WithTrace(trace))

	inScope(t, eng, func(s *Scope) {
		_, err1 := s.Require("bad.m1")
		require.Error(t, err1)
		assert.True(t, IsModuleLoad(err1))
		assert.Contains(t, err1.Error(), "boom")

		_, err2 := s.Require("bad.m1")
		require.Error(t, err2)

		// The second failure is the cached error; the module body never
		// ran again.
		assert.Equal(t, err1.Error(), err2.Error())
		attempts, err := s.Eval("t", "attempts")
		require.NoError(t, err)
		assert.Equal(t, int64(1), attempts.ToInt64())
	})

	kinds := []string{}
	for _, ev := range trace.Events() {
		if ev.Kind == TraceFailed && ev.Detail == "cached failure" {
			kinds = append(kinds, ev.Kind)
		}
	}
	assert.Len(t, kinds, 1)
}

func TestResolve_PackageNotFound(t *testing.T) {
	eng := newTestEngine(t, WithSearchPath(t.TempDir()))

	inScope(t, eng, func(s *Scope) {
		_, err := s.Require("nowhere.m1")
		require.Error(t, err)
		assert.True(t, IsPackageNotFound(err))

		var perr *PackageNotFoundError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "nowhere", perr.Package)
	})
}

func TestResolve_ModuleNotListed(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "exports.ok = true;",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		_, err := s.Require("pkg1.ghost")
		require.Error(t, err)
		assert.True(t, IsModuleLoad(err))
	})
}

func TestResolve_ImportWholePackage(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name:    "pkg1",
		Modules: []string{"b", "a"},
		Sources: map[string]string{
			"a": "exports.v = 'a';",
			"b": "exports.v = 'b';",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		mods, err := s.Import("pkg1")
		require.NoError(t, err)
		require.Len(t, mods, 2)

		// Declared order, not lexical order.
		assert.Equal(t, "b", mods[0].Name())
		assert.Equal(t, "a", mods[1].Name())
	})
}

func TestResolve_DialectPreferredOverSource(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "exports.from = 'source';",
		},
		Dialect: map[string]string{
			"m1": "exports.from = 'dialect';",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		m, err := s.Require("pkg1.m1")
		require.NoError(t, err)
		assert.Equal(t, FormDialect, m.Form())
		v, _ := m.Get("from")
		got, err := v.AsString()
		require.NoError(t, err)
		assert.Equal(t, "dialect", got)
	})
}

func TestResolve_NativeBeatsFiles(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "exports.from = 'source';",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))
	eng.RegisterNative("pkg1", "m1", func(s *Scope) (map[string]Value, error) {
		return map[string]Value{"from": StringValue("native")}, nil
	})

	inScope(t, eng, func(s *Scope) {
		m, err := s.Require("pkg1.m1")
		require.NoError(t, err)
		assert.Equal(t, FormNative, m.Form())
		v, _ := m.Get("from")
		got, err := v.AsString()
		require.NoError(t, err)
		assert.Equal(t, "native", got)
	})
}

func TestResolve_RegisteredPackageNeedsNoFiles(t *testing.T) {
	eng := newTestEngine(t)
	eng.RegisterPackage("hostpkg", "2.0.0", "m1")
	eng.RegisterNative("hostpkg", "m1", func(s *Scope) (map[string]Value, error) {
		return map[string]Value{"v": IntValue(1)}, nil
	})

	inScope(t, eng, func(s *Scope) {
		m, err := s.Require("hostpkg.m1")
		require.NoError(t, err)
		assert.Equal(t, FormNative, m.Form())
	})
}

func TestResolve_FirstSearchRootWins(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	testutil.WritePackage(t, rootA, testutil.PackageSpec{
		Name:    "pkg1",
		Sources: map[string]string{"m1": "exports.root = 'A';"},
	})
	testutil.WritePackage(t, rootB, testutil.PackageSpec{
		Name:    "pkg1",
		Sources: map[string]string{"m1": "exports.root = 'B';"},
	})
	eng := newTestEngine(t, WithSearchPath(rootA, rootB))

	inScope(t, eng, func(s *Scope) {
		m, err := s.Require("pkg1.m1")
		require.NoError(t, err)
		v, _ := m.Get("root")
		got, err := v.AsString()
		require.NoError(t, err)
		assert.Equal(t, "A", got)
	})
}

func TestResolve_ManifestSharedAcrossAliases(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name:    "pkg1",
		Sources: map[string]string{"m1": "exports.ok = true;"},
	})
	// A second package name aliasing the same directory.
	require.NoError(t, os.Symlink(filepath.Join(root, "pkg1"), filepath.Join(root, "alias")))

	trace := NewTrace()
	eng := newTestEngine(t, WithSearchPath(root), WithTrace(trace))

	inScope(t, eng, func(s *Scope) {
		_, err := s.Require("pkg1.m1")
		require.NoError(t, err)
		_, err = s.Require("alias.m1")
		require.NoError(t, err)
	})

	loads, cached := 0, 0
	for _, ev := range trace.Events() {
		switch ev.Kind {
		case TraceManifestLoad:
			loads++
		case TraceManifestCached:
			cached++
		}
	}
	assert.Equal(t, 1, loads, "aliased roots must share one manifest")
	assert.Equal(t, 1, cached)
}

func TestResolve_ExportsAreSnapshots(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name: "pkg1",
		Sources: map[string]string{
			"m1": "exports.v = 1; globalThis.leak = exports;",
		},
	})
	eng := newTestEngine(t, WithSearchPath(root))

	inScope(t, eng, func(s *Scope) {
		m, err := s.Require("pkg1.m1")
		require.NoError(t, err)

		// Mutating the script-side exports object after resolution does
		// not change the snapshot the host sees.
		_, err = s.Eval("t", "leak.v = 99")
		require.NoError(t, err)

		v, _ := m.Get("v")
		n, err := v.AsInt64()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestRequire_BadReference(t *testing.T) {
	eng := newTestEngine(t)

	inScope(t, eng, func(s *Scope) {
		_, err := s.Require("nodot")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "package.module")
	})
}

func TestResolve_TraceSequence(t *testing.T) {
	root := t.TempDir()
	testutil.WritePackage(t, root, testutil.PackageSpec{
		Name:    "pkg1",
		Sources: map[string]string{"m1": "exports.ok = true;"},
	})
	trace := NewTrace()
	eng := newTestEngine(t, WithSearchPath(root), WithTrace(trace))

	inScope(t, eng, func(s *Scope) {
		_, err := s.Require("pkg1.m1")
		require.NoError(t, err)
		_, err = s.Require("pkg1.m1")
		require.NoError(t, err)
	})

	kinds := []string{}
	for _, ev := range trace.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []string{
		TracePackageLookup,
		TraceManifestLoad,
		TraceResolveStart,
		TraceResolved,
		TracePackageLookup,
		TraceManifestCached,
		TraceCacheHit,
	}, kinds)
}
