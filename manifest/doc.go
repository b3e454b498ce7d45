// Package manifest loads and validates package manifests.
//
// A package is a directory holding two CUE manifests: plugin.cue names the
// package, its root, and the ordered module list; the sibling package.cue
// carries the semantic version. Both are validated against embedded CUE
// schemas before use. Module implementations live next to the manifests as
// either a pre-built engine-dialect artifact (<module>.els.js) or a source
// form (<module>.els).
package manifest
