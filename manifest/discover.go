package manifest

import (
	"os"
	"path/filepath"
	"sort"
)

// Discover scans an ordered list of search path roots and loads the
// manifest of every package directory found. A package directory is any
// subdirectory containing a plugin.cue. Within one root, packages come
// back in name order; across roots, earlier roots come first and a name
// seen in an earlier root shadows later ones, matching resolver lookup.
//
// Load failures do not stop the scan; they are collected and returned
// alongside the successfully loaded manifests.
func Discover(roots []string) ([]*Manifest, []error) {
	var (
		manifests []*Manifest
		errs      []error
		seen      = make(map[string]bool)
	)

	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			errs = append(errs, &Error{Root: root, Message: "reading search path root", Err: err})
			continue
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(root, entry.Name(), PluginFile)); err != nil {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			man, err := Load(filepath.Join(root, name))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if seen[man.Name] {
				continue
			}
			seen[man.Name] = true
			manifests = append(manifests, man)
		}
	}
	return manifests, errs
}
