package registry

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/n2code/cellarer/internal/libmap"
)

type unixTimestamp int64

// record is the registry's knowledge about one loaded cell library.
type record struct {
	name         string
	path         string //absolute, system-native
	size         int64
	sha256Hash   [sha256.Size]byte
	lastModified unixTimestamp
	registered   unixTimestamp //when the library was first loaded in this session
}

// Record is a read-only snapshot of a registry entry.
type Record struct {
	Name         string
	Path         string
	Size         int64
	Sha256       [sha256.Size]byte
	LastModified int64
}

// SyncOutcome describes what a sync did to a single library.
type SyncOutcome int

const (
	LoadedLibrary    SyncOutcome = iota //library was not registered before
	RefreshedLibrary                    //library file changed since it was loaded
	UnchangedLibrary                    //library file is still in the loaded state
	DroppedLibrary                      //library vanished from the map and was unregistered
)

func (o SyncOutcome) String() string {
	switch o {
	case LoadedLibrary:
		return "loaded"
	case RefreshedLibrary:
		return "refreshed"
	case UnchangedLibrary:
		return "unchanged"
	case DroppedLibrary:
		return "dropped"
	default:
		return "?"
	}
}

// SyncResult reports the per-library outcomes of one sync pass in the
// order the libraries were processed.
type SyncResult struct {
	Names    []string
	Outcomes map[string]SyncOutcome
}

// Registry stands in for the host application's cell library registry:
// library names mapped to loaded library files, fingerprinted so that
// refreshing can skip unchanged files.
type Registry struct {
	libraries map[string]*record
}

func New() *Registry {
	return &Registry{libraries: make(map[string]*record)}
}

// Names lists all registered library names in alphabetical order.
func (r *Registry) Names() (names []string) {
	for name := range r.libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Lookup yields a snapshot of the registered library with the given name.
func (r *Registry) Lookup(name string) (snapshot Record, registered bool) {
	library, registered := r.libraries[name]
	if !registered {
		return
	}
	snapshot = Record{
		Name:         library.name,
		Path:         library.path,
		Size:         library.size,
		Sha256:       library.sha256Hash,
		LastModified: int64(library.lastModified),
	}
	return
}

// Sync brings the registry in line with the effective definitions of a
// resolved map: unknown names are loaded, known ones are refreshed if
// their file changed (or moved), and names absent from the map are
// dropped. The first unusable library file aborts the pass.
func (r *Registry) Sync(definitions []libmap.Definition) (result SyncResult, err error) {
	result.Outcomes = make(map[string]SyncOutcome)

	inMap := make(map[string]bool)
	for _, definition := range definitions {
		inMap[definition.Name] = true

		existing := r.libraries[definition.Name]
		var outcome SyncOutcome
		switch {
		case existing == nil:
			outcome = LoadedLibrary
			if err = r.load(definition); err != nil {
				return
			}
		case existing.path != definition.Path:
			outcome = RefreshedLibrary
			if err = r.load(definition); err != nil {
				return
			}
		default:
			var changed bool
			changed, err = existing.refresh()
			if err != nil {
				return
			}
			outcome = UnchangedLibrary
			if changed {
				outcome = RefreshedLibrary
			}
		}
		result.Names = append(result.Names, definition.Name)
		result.Outcomes[definition.Name] = outcome
	}

	for _, name := range r.Names() {
		if !inMap[name] {
			delete(r.libraries, name)
			result.Names = append(result.Names, name)
			result.Outcomes[name] = DroppedLibrary
		}
	}
	return
}

func (r *Registry) load(definition libmap.Definition) error {
	loaded := &record{
		name:       definition.Name,
		path:       definition.Path,
		registered: unixTimestamp(time.Now().Unix()),
	}
	if err := loaded.readFile(); err != nil {
		return fmt.Errorf("loading library %s failed: %w", definition.Name, err)
	}
	r.libraries[definition.Name] = loaded
	return nil
}

// refresh re-stats the library file and re-reads it only if size or
// modification time differ from the loaded state.
func (lib *record) refresh() (changed bool, err error) {
	stat, err := os.Stat(lib.path)
	if err != nil {
		return false, fmt.Errorf("refreshing library %s failed: %w", lib.name, err)
	}
	if stat.Size() == lib.size && unixTimestamp(stat.ModTime().Unix()) == lib.lastModified {
		return false, nil
	}
	if err := lib.readFile(); err != nil {
		return false, fmt.Errorf("refreshing library %s failed: %w", lib.name, err)
	}
	return true, nil
}

func (lib *record) readFile() error {
	stat, err := os.Stat(lib.path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(lib.path)
	if err != nil {
		return err
	}
	lib.size = int64(len(content))
	lib.sha256Hash = sha256.Sum256(content)
	lib.lastModified = unixTimestamp(stat.ModTime().Unix())
	return nil
}
