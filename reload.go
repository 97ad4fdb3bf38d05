package cellarer

import (
	"fmt"

	"github.com/n2code/cellarer/internal/output"
	"github.com/n2code/cellarer/internal/registry"
)

// ReloadLibraries resolves the map and syncs the registry with the result.
func (c *cellarer) ReloadLibraries() error {
	resolved, err := c.resolveMap()
	if err != nil {
		return newCommandError("reload cell libraries failed", err)
	}

	result, err := c.libs.Sync(resolved.Effective())
	if err != nil {
		return newCommandError("reload cell libraries failed", err)
	}

	counts := make(map[registry.SyncOutcome]int)
	for _, name := range result.Names {
		outcome := result.Outcomes[name]
		counts[outcome]++
		fmt.Fprintf(c.verboseOut, "Library %s %s\n", name, outcome)
	}
	fmt.Fprintf(c.extraOut, "Cell %s reloaded: %d loaded, %d refreshed, %d unchanged, %d dropped\n",
		output.Plural(len(result.Names), "library", "libraries"),
		counts[registry.LoadedLibrary], counts[registry.RefreshedLibrary],
		counts[registry.UnchangedLibrary], counts[registry.DroppedLibrary])
	return nil
}
