package cellarer

import "context"

// Cellarer lets you interface with a hierarchical layout file set whose
// handle was retrieved using New or Open. A handle represents one editing
// session; the sidecar map file is re-read from disk for every operation
// and no resolved state survives between calls.
type Cellarer interface {

	// LayoutPath yields the absolute path of the layout file of this session.
	LayoutPath() string

	// MapPath yields the absolute path of the sidecar cell library map file.
	MapPath() string

	// LayoutId extracts the ID stamped into the map file when the layout was
	// created. Layouts predating the ID stamp have none.
	LayoutId() (id string, stamped bool)

	// Save validates the file set and rewrites the sidecar map file in
	// normalized form. The layout file content is left to the layout engine.
	Save() error

	// SaveAs copies the layout file and writes the sidecar map next to the
	// given target path, which gets the layout suffix appended if missing.
	// The session continues on the new file set.
	SaveAs(layoutPath string, overwrite bool) error

	// ReloadLibraries resolves the map and brings the session's library
	// registry in line with it: new libraries are loaded, known ones are
	// refreshed if their file changed, vanished ones are dropped.
	// Any unusable map or library file aborts the reload.
	ReloadLibraries() error

	// PrintMap resolves the map and prints the effective library
	// definitions in resolution order, each with a found/missing marker.
	PrintMap() error

	// PrintIncludeTree prints the include graph of the map file as a tree
	// with the library definitions attached to their defining file.
	PrintIncludeTree() error

	// PrintRecords prints the registry state of all loaded libraries.
	PrintRecords()

	// PrintStatus checks the entries of the map file itself (not of its
	// includes) and prints a per-entry verdict like the manager dialog's
	// status column. The returned count covers all detected problems.
	PrintStatus() (problems int, err error)

	// InteractiveManage walks the user through editing the map file:
	// adding, removing, renaming and repathing definitions and includes.
	// Entries are validated before saving and the applied changes are
	// classified and reported, followed by a library reload.
	// Nothing is written until the user chooses to save.
	InteractiveManage(choice RequestChoice, input RequestText) (cancelled bool, err error)

	// WatchLibraries blocks and re-resolves the map whenever a contributing
	// map file or a library file changes, syncing the registry after each
	// change, until the context is cancelled.
	WatchLibraries(ctx context.Context) error
}

// RequestChoice represents a single-choice decision callback, the first option
// is considered the default "yes"-like choice.
// If the choice is aborted an empty string must be returned.
// If cleanup is set the implementation is recommended to remove the choice
// presentation after selection.
type RequestChoice func(request string, options []string, cleanup bool) (choice string)

// RequestText represents a free-text input callback, e.g. for library names
// and paths. An empty preset means no default.
type RequestText func(request string, preset string) (text string, aborted bool)

const ChoiceAborted = ""
