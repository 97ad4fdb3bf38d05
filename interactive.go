package cellarer

import (
	"fmt"

	"github.com/n2code/cellarer/internal/libmap"
	"github.com/n2code/cellarer/internal/output"
)

// entryRef ties a manageable map entry (definition or include, comments are
// kept but not editable) to its position in the statement sequence.
type entryRef struct {
	statementIndex int
	label          string
}

// InteractiveManage walks the user through editing the sidecar map file.
// The working copy is only written when a valid state is saved; validation
// mirrors the manager dialog (non-empty names, existing files). After a
// save the applied changes are classified and the libraries are reloaded.
func (c *cellarer) InteractiveManage(choice RequestChoice, input RequestText) (cancelled bool, err error) {
	original, err := c.readMap()
	if err != nil {
		return false, newCommandError("manage cell library map failed", err)
	}
	working := cloneMapConfig(original)
	dirty := false

	for {
		c.printWorkingState(working)

		switch choice("Manage cell library map", []string{"Save", "Add library", "Include map", "Remove entry", "Edit library", "Reset", "Quit"}, false) {

		case "Save":
			if problems := c.validateWorkingState(working); problems > 0 {
				fmt.Fprintf(c.out, "%d %s to fix before saving\n", problems, output.Plural(problems, "problem", "problems"))
				continue
			}
			if err := c.applyMapEdit(working); err != nil {
				return false, err
			}
			return false, nil

		case "Add library":
			path, aborted := input("Library file path", "")
			if aborted || path == "" {
				continue
			}
			name, aborted := input("Library name", libraryNameForPath(path))
			if aborted {
				continue
			}
			if name == "" {
				name = libraryNameForPath(path)
			}
			working.Statements = append(working.Statements, libmap.Definition{Name: name, Path: path})
			dirty = true

		case "Include map":
			path, aborted := input("Map file path to include", "")
			if aborted || path == "" {
				continue
			}
			working.Statements = append(working.Statements, libmap.Include{Path: path})
			dirty = true

		case "Remove entry":
			ref, aborted := c.chooseEntry(choice, working, "Remove which entry?")
			if aborted {
				continue
			}
			working.Statements = append(working.Statements[:ref.statementIndex], working.Statements[ref.statementIndex+1:]...)
			dirty = true

		case "Edit library":
			ref, aborted := c.chooseEntry(choice, working, "Edit which entry?")
			if aborted {
				continue
			}
			switch entry := working.Statements[ref.statementIndex].(type) {
			case libmap.Definition:
				name, aborted := input("Library name", entry.Name)
				if aborted {
					continue
				}
				path, aborted := input("Library file path", entry.Path)
				if aborted {
					continue
				}
				working.Statements[ref.statementIndex] = libmap.Definition{Name: name, Path: path}
			case libmap.Include:
				path, aborted := input("Map file path to include", entry.Path)
				if aborted {
					continue
				}
				working.Statements[ref.statementIndex] = libmap.Include{Path: path}
			}
			dirty = true

		case "Reset":
			working = cloneMapConfig(original)
			dirty = false
			fmt.Fprint(c.extraOut, "Pending edits thrown away.\n")

		case "Quit":
			if dirty {
				if choice("Discard unsaved map changes?", []string{"Discard", "Keep editing"}, true) != "Discard" {
					continue
				}
			}
			return true, nil

		case ChoiceAborted:
			return true, nil
		}
	}
}

// applyMapEdit persists an edited map, reports what changed compared to the
// state on disk and reloads the libraries accordingly.
func (c *cellarer) applyMapEdit(working *libmap.Config) error {
	baseFolder := c.files.BaseFolder()

	var before *libmap.ResolvedMap
	if resolved, err := libmap.Resolve(c.files.MapPath()); err == nil {
		before = resolved //a broken map on disk cannot serve as comparison baseline
	}

	after, err := libmap.ResolveConfig(working, c.files.MapPath(), baseFolder)
	if err != nil {
		return newCommandError("manage cell library map failed", err)
	}
	if err := working.WriteFile(c.files.MapPath()); err != nil {
		return newCommandError("manage cell library map failed", err)
	}
	fmt.Fprintf(c.extraOut, "Cell library map saved (%s)\n", displayablePath(c.files.MapPath()))

	if before != nil {
		c.printChanges(libmap.Compare(before, after))
	}
	return c.ReloadLibraries()
}

func (c *cellarer) printChanges(changes libmap.Changes) {
	if changes.Empty() {
		fmt.Fprint(c.extraOut, "Effective library definitions are unchanged.\n")
		return
	}
	for _, definition := range changes.Added {
		fmt.Fprintf(c.extraOut, "Library added: %s (%s)\n", definition.Name, displayablePath(definition.Path))
	}
	for _, definition := range changes.Removed {
		fmt.Fprintf(c.extraOut, "Library removed: %s\n", definition.Name)
	}
	for _, transition := range changes.Renamed {
		fmt.Fprintf(c.extraOut, "Library renamed: %s -> %s\n", transition.Old.Name, transition.New.Name)
	}
	for _, transition := range changes.Repathed {
		fmt.Fprintf(c.extraOut, "Library repathed: %s now at %s\n", transition.New.Name, displayablePath(transition.New.Path))
	}
}

// chooseEntry lets the user pick one definition or include of the working copy.
func (c *cellarer) chooseEntry(choice RequestChoice, working *libmap.Config, question string) (ref entryRef, aborted bool) {
	entries := manageableEntries(working)
	if len(entries) == 0 {
		fmt.Fprint(c.extraOut, "Map has no entries.\n")
		return entryRef{}, true
	}
	options := make([]string, 0, len(entries)+1)
	for _, entry := range entries {
		options = append(options, entry.label)
	}
	options = append(options, "Back")

	selected := choice(question, options, true)
	if selected == "Back" || selected == ChoiceAborted {
		return entryRef{}, true
	}
	for _, entry := range entries {
		if entry.label == selected {
			return entry, false
		}
	}
	return entryRef{}, true
}

func manageableEntries(config *libmap.Config) (entries []entryRef) {
	ordinal := 0
	for i, statement := range config.Statements {
		switch s := statement.(type) {
		case libmap.Definition:
			ordinal++
			entries = append(entries, entryRef{statementIndex: i, label: fmt.Sprintf("%d: %s = %s", ordinal, s.Name, s.Path)})
		case libmap.Include:
			ordinal++
			entries = append(entries, entryRef{statementIndex: i, label: fmt.Sprintf("%d: include %s", ordinal, s.Path)})
		}
	}
	return
}

// printWorkingState lists the editable entries with the dialog's status column.
func (c *cellarer) printWorkingState(working *libmap.Config) {
	baseFolder := c.files.BaseFolder()
	entries := 0
	for _, statement := range working.Statements {
		switch s := statement.(type) {
		case libmap.Definition:
			entries++
			path, err := libmap.CanonicalPath(s.Path, baseFolder)
			usable := s.Name != "" && err == nil && fileExists(path)
			fmt.Fprintf(c.out, "  %s = %s %s\n", s.Name, s.Path, c.verdict(usable))
		case libmap.Include:
			entries++
			path, err := libmap.CanonicalPath(s.Path, baseFolder)
			usable := err == nil && fileExists(path)
			fmt.Fprintf(c.out, "  include %s %s\n", s.Path, c.verdict(usable))
		}
	}
	if entries == 0 {
		fmt.Fprint(c.out, "  (cell library map has no entries)\n")
	}
}

// validateWorkingState counts the problems that block saving.
func (c *cellarer) validateWorkingState(working *libmap.Config) (problems int) {
	baseFolder := c.files.BaseFolder()
	for _, statement := range working.Statements {
		switch s := statement.(type) {
		case libmap.Definition:
			if s.Name == "" {
				fmt.Fprintf(c.out, "library with path %s has no name\n", s.Path)
				problems++
			}
			path, err := libmap.CanonicalPath(s.Path, baseFolder)
			if err != nil || !fileExists(path) {
				fmt.Fprintf(c.out, "library file not found: %s\n", s.Path)
				problems++
			}
		case libmap.Include:
			path, err := libmap.CanonicalPath(s.Path, baseFolder)
			if err != nil || !fileExists(path) {
				fmt.Fprintf(c.out, "included map file not found: %s\n", s.Path)
				problems++
			}
		}
	}
	return
}

func cloneMapConfig(config *libmap.Config) *libmap.Config {
	clone := &libmap.Config{Technology: config.Technology}
	clone.Statements = append(clone.Statements, config.Statements...)
	return clone
}
