package output

import (
	"github.com/disiqueira/gotree/v3"
)

// VisualMapTree renders the include graph of a library map: one node per
// contributing map file with its library definitions as leaves.
type VisualMapTree struct {
	tree  gotree.Tree
	files map[string]gotree.Tree //keyed by the identifier the caller registers nodes under
}

func NewVisualMapTree(rootKey string, rootLabel string) VisualMapTree {
	t := VisualMapTree{tree: gotree.New(rootLabel), files: make(map[string]gotree.Tree)}
	t.files[rootKey] = t.tree
	return t
}

// InsertInclude attaches an included map file below its including file.
// An unknown parent falls back to the root so that a skipped cycle edge
// still shows up somewhere sensible.
func (t VisualMapTree) InsertInclude(parentKey string, key string, label string) {
	parent := t.files[parentKey]
	if parent == nil {
		parent = t.tree
	}
	t.files[key] = parent.Add(label)
}

// InsertDefinition attaches a library definition leaf to its map file node.
func (t VisualMapTree) InsertDefinition(fileKey string, label string) {
	parent := t.files[fileKey]
	if parent == nil {
		parent = t.tree
	}
	parent.Add(label)
}

func (t VisualMapTree) Render() string {
	return t.tree.Print()
}
