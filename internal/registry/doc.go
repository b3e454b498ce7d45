// Package registry persists a package index: the packages and modules
// discovered on the search path, recorded by `elems index` and read back
// by `elems packages`. Backed by SQLite with WAL mode.
package registry
