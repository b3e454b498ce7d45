// Package el embeds an ECMAScript runtime inside a Go host and bridges
// host-defined object types ("Elements") into script.
//
// The package has two halves. The marshaling layer converts between the
// host-side tagged Value union and the engine-native representation while
// preserving lifetime and identity across the boundary: engine-native values
// are only reachable through a ScopedValue, which is valid for the lifetime
// of the execution Scope that produced it. The module resolver discovers
// versioned packages on a search path, loads their manifests, and compiles
// and evaluates each requested module at most once per Engine, detecting
// import cycles along the way.
//
// A typical embedding:
//
//	eng, _ := el.New(el.WithSearchPath("plugins"))
//	defer eng.Close()
//
//	err := eng.Scope(func(s *el.Scope) error {
//		mod, err := s.Require("pkg1.A")
//		if err != nil {
//			return err
//		}
//		ctor, _ := mod.Get("A")
//		...
//		return nil
//	})
package el
