package el

import (
	"errors"
	"fmt"
	"strings"
)

// TypeMismatchError reports an extraction whose target type is incompatible
// with the actual dynamic kind of the engine value. It is recoverable: at
// the script boundary it is rethrown as a catchable TypeError.
type TypeMismatchError struct {
	// Target is the requested host type ("Callable", "Element", ...).
	Target string

	// Actual describes the engine-value kind that was found.
	Actual string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.Actual, e.Target)
}

// PackageNotFoundError reports that no search path root contains a
// directory for the requested package.
type PackageNotFoundError struct {
	Package    string
	SearchPath []string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %q not found in search path %v", e.Package, e.SearchPath)
}

// ModuleLoadError reports a failure while locating, compiling, or
// evaluating a module. Err carries the underlying cause.
type ModuleLoadError struct {
	// Qualified is the package::module name of the failing module.
	Qualified string
	Err       error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("loading module %s: %v", e.Qualified, e.Err)
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}

// CircularImportError reports the edge that closed an import cycle. Chain
// holds the qualified names from the original entry point to the repeated
// module, e.g. ["pkg1::A", "pkg2::B", "pkg1::A"].
type CircularImportError struct {
	Chain []string
}

func (e *CircularImportError) Error() string {
	return "circular import: " + strings.Join(e.Chain, " -> ")
}

// InvariantViolation is the payload of panics raised on host-side bugs:
// a ScopedValue read after its scope ended, an Engine used after Close, or
// an identity slot carrying a corrupted payload. These are fatal and are
// deliberately not recoverable errors.
type InvariantViolation struct {
	Message string
}

func (v InvariantViolation) String() string {
	return "invariant violation: " + v.Message
}

// IsTypeMismatch reports whether err is a TypeMismatchError.
// Uses errors.As to handle wrapped errors.
func IsTypeMismatch(err error) bool {
	var te *TypeMismatchError
	return errors.As(err, &te)
}

// IsPackageNotFound reports whether err is a PackageNotFoundError.
func IsPackageNotFound(err error) bool {
	var pe *PackageNotFoundError
	return errors.As(err, &pe)
}

// IsModuleLoad reports whether err is a ModuleLoadError.
func IsModuleLoad(err error) bool {
	var me *ModuleLoadError
	return errors.As(err, &me)
}

// IsCircularImport reports whether err is a CircularImportError.
func IsCircularImport(err error) bool {
	var ce *CircularImportError
	return errors.As(err, &ce)
}

// typeMismatch builds a TypeMismatchError for the given target from an
// engine-value kind description.
func typeMismatch(target, actual string) error {
	return &TypeMismatchError{Target: target, Actual: actual}
}
