package sync

import (
	"path/filepath"
	"sort"
	"strings"
)

// Depth returns the number of path separators in `path`. Entries directly in
// the root have a depth of zero.
func Depth(path string) int {
	return strings.Count(path, string(filepath.Separator))
}

// ShallowFirst returns the paths ordered so that parents come before their
// children. Paths at the same depth are sorted lexically.
func (snapshot Snapshot) ShallowFirst() []string {
	return snapshot.sortByDepth(false)
}

// DeepFirst returns the paths ordered so that children come before their
// parents. Paths at the same depth are sorted lexically.
func (snapshot Snapshot) DeepFirst() []string {
	return snapshot.sortByDepth(true)
}

func (snapshot Snapshot) sortByDepth(deepFirst bool) []string {
	paths := make([]string, 0, len(snapshot))
	for path := range snapshot {
		paths = append(paths, path)
	}

	sort.Slice(paths, func(i, j int) bool {
		di, dj := Depth(paths[i]), Depth(paths[j])
		if di != dj {
			if deepFirst {
				return di > dj
			}
			return di < dj
		}
		return paths[i] < paths[j]
	})
	return paths
}
