package libmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IncludeError reports an include statement whose target cannot be used.
type IncludeError struct {
	File    string //map file containing the include statement
	Include string //include target as written
	cause   error
}

func (e *IncludeError) Error() string {
	return fmt.Sprintf("missing include in library map file (%s): include of %s failed: %s", e.File, e.Include, e.cause)
}

func (e *IncludeError) Unwrap() error {
	return e.cause
}

// ResolvedMap is the flattened view of a map file and all its transitive includes.
// Definition paths are absolute. Later definitions override earlier ones per name.
type ResolvedMap struct {
	flattened []Definition    //textual order, includes expanded in place, duplicates preserved
	files     []string        //all contributing map files (absolute), in visit order
	visited   map[string]bool //keyed by canonical absolute path, breaks include cycles
}

// Flattened returns every definition in resolution order, duplicate names included.
func (m *ResolvedMap) Flattened() []Definition {
	return m.flattened
}

// Effective returns the definitions that are in force: one entry per library
// name, in order of first appearance, with the last-defined path winning.
func (m *ResolvedMap) Effective() (definitions []Definition) {
	slot := make(map[string]int)
	for _, definition := range m.flattened {
		if i, known := slot[definition.Name]; known {
			definitions[i].Path = definition.Path
			continue
		}
		slot[definition.Name] = len(definitions)
		definitions = append(definitions, definition)
	}
	return
}

// LookupPath yields the effective library path for the given name.
func (m *ResolvedMap) LookupPath(name string) (path string, defined bool) {
	for _, definition := range m.flattened {
		if definition.Name == name {
			path = definition.Path
			defined = true
		}
	}
	return
}

// Files lists all map files that contributed to the resolution.
func (m *ResolvedMap) Files() []string {
	return m.files
}

// Resolve loads the map file at the given path and flattens it together with
// all transitively included map files. Includes expand at the position of
// their include statement. A file already visited during the pass is skipped
// without error so that include cycles terminate and every file contributes
// exactly once. A missing or unreadable include aborts the resolution, as
// does any parse error; no partial map is returned.
func Resolve(rootPath string) (*ResolvedMap, error) {
	canonical, err := canonicalPath(rootPath, mustGetwd())
	if err != nil {
		return nil, err
	}
	resolved := &ResolvedMap{visited: make(map[string]bool)}
	if err := resolved.mergeFile(canonical); err != nil {
		return nil, err
	}
	return resolved, nil
}

// ResolveConfig flattens an already loaded configuration, e.g. pending
// edits which have not been written to the map file yet. The base folder
// anchors relative paths and the file name is used for error context and
// cycle detection.
func ResolveConfig(config *Config, file string, baseFolder string) (*ResolvedMap, error) {
	resolved := &ResolvedMap{visited: make(map[string]bool)}
	canonical, err := canonicalPath(file, baseFolder)
	if err != nil {
		return nil, err
	}
	resolved.visited[canonical] = true
	resolved.files = append(resolved.files, canonical)
	if err := resolved.mergeStatements(config, canonical, filepath.Dir(canonical)); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (m *ResolvedMap) mergeFile(canonical string) error {
	if m.visited[canonical] {
		return nil
	}
	m.visited[canonical] = true
	m.files = append(m.files, canonical)

	config, err := ReadFile(canonical)
	if err != nil {
		return err
	}
	return m.mergeStatements(config, canonical, filepath.Dir(canonical))
}

func (m *ResolvedMap) mergeStatements(config *Config, file string, baseFolder string) error {
	for _, statement := range config.Statements {
		switch s := statement.(type) {
		case Comment:
			//comments never contribute to the resolved map
		case Definition:
			path, err := canonicalPath(s.Path, baseFolder)
			if err != nil {
				return fmt.Errorf("library definition %s in %s has unusable path: %w", s.Name, file, err)
			}
			m.flattened = append(m.flattened, Definition{Name: s.Name, Path: path})
		case Include:
			target, err := canonicalPath(s.Path, baseFolder)
			if err != nil {
				return &IncludeError{File: file, Include: s.Path, cause: err}
			}
			stat, err := os.Stat(target)
			if err != nil {
				return &IncludeError{File: file, Include: s.Path, cause: err}
			}
			if stat.IsDir() {
				return &IncludeError{File: file, Include: s.Path, cause: errors.New("target is a directory")}
			}
			if err := m.mergeFile(target); err != nil {
				return err
			}
		}
	}
	return nil
}

// Walk visits every map file of the include graph exactly once, in
// resolution order, handing the parsed file and its including parent
// ("" for the root) to the callback. Like Resolve it aborts on missing
// includes and parse errors.
func Walk(rootPath string, visit func(file string, parent string, config *Config)) error {
	canonical, err := canonicalPath(rootPath, mustGetwd())
	if err != nil {
		return err
	}
	visited := make(map[string]bool)
	return walkFile(canonical, "", visited, visit)
}

func walkFile(canonical string, parent string, visited map[string]bool, visit func(string, string, *Config)) error {
	if visited[canonical] {
		return nil
	}
	visited[canonical] = true

	config, err := ReadFile(canonical)
	if err != nil {
		return err
	}
	visit(canonical, parent, config)

	baseFolder := filepath.Dir(canonical)
	for _, include := range config.Includes() {
		target, err := canonicalPath(include.Path, baseFolder)
		if err != nil {
			return &IncludeError{File: canonical, Include: include.Path, cause: err}
		}
		if _, err := os.Stat(target); err != nil {
			return &IncludeError{File: canonical, Include: include.Path, cause: err}
		}
		if err := walkFile(target, canonical, visited, visit); err != nil {
			return err
		}
	}
	return nil
}

// CanonicalPath is the path normalization applied to all map entries:
// a leading ~ expands to the user home and relative paths anchor at the
// given base folder.
func CanonicalPath(path string, baseFolder string) (string, error) {
	return canonicalPath(path, baseFolder)
}

// canonicalPath expands a leading ~, anchors relative paths at the given
// base folder and cleans the result into an absolute path.
func canonicalPath(path string, baseFolder string) (string, error) {
	expanded, err := expandUser(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(baseFolder, expanded)
	}
	return filepath.Clean(expanded), nil
}

func expandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~ in %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}
