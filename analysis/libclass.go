package analysis

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed libclasses.yaml
var libClassesYAML []byte

var libClasses = sync.OnceValue(func() map[string]string {
	set, err := parseLibClasses(libClassesYAML)
	if err != nil {
		panic(err)
	}

	return set
})

// parseLibClasses decodes a package -> simple names document into a
// simple name -> package index.
func parseLibClasses(data []byte) (map[string]string, error) {
	var byPackage map[string][]string

	err := yaml.Unmarshal(data, &byPackage)
	if err != nil {
		return nil, fmt.Errorf("library classes: %w", err)
	}

	index := make(map[string]string)

	for _, pkg := range slices.Sorted(maps.Keys(byPackage)) {
		for _, name := range byPackage[pkg] {
			if prev, dup := index[name]; dup {
				return nil, fmt.Errorf("library classes: %s listed in both %s and %s", name, prev, pkg)
			}

			index[name] = pkg
		}
	}

	return index, nil
}

// IsKnownLibraryClass reports whether name is the simple name of a platform
// utility class. A call such as Math.abs(x) has such a class as its receiver,
// so its leading identifier is not a field access.
func IsKnownLibraryClass(name string) bool {
	_, ok := libClasses()[name]

	return ok
}

// LibraryClassPackage returns the package a known library class belongs to.
func LibraryClassPackage(name string) (string, bool) {
	pkg, ok := libClasses()[name]

	return pkg, ok
}
