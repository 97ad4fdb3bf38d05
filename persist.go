package cellarer

import (
	"fmt"
	"os"

	"github.com/n2code/cellarer/internal/layout"
)

// Save re-reads the sidecar map, validates it together with the layout
// envelope and writes the map back in normalized form.
func (c *cellarer) Save() error {
	if err := c.files.Check(); err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}
	config, err := c.readMap()
	if err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}
	if err := config.WriteFile(c.files.MapPath()); err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}
	fmt.Fprintf(c.extraOut, "Saved hierarchical layout %s\n", displayablePath(c.files.LayoutPath()))
	return nil
}

// SaveAs clones the file set to the target path: the layout file is copied
// byte for byte (its content belongs to the layout engine) and the map is
// written as the new sidecar. The session switches to the new file set.
func (c *cellarer) SaveAs(layoutPath string, overwrite bool) error {
	if err := c.files.Check(); err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}
	config, err := c.readMap()
	if err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}

	target := layout.NewFileSet(layout.EnforceLayoutSuffix(layoutPath))
	if target.LayoutPath() == c.files.LayoutPath() {
		return c.Save()
	}
	if !overwrite {
		if _, err := os.Lstat(target.LayoutPath()); err == nil {
			return newCommandError(fmt.Sprintf("save prevented: file exists already (%s)", target.LayoutPath()), nil)
		}
	}

	content, err := os.ReadFile(c.files.LayoutPath())
	if err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}
	if err := os.WriteFile(target.LayoutPath(), content, 0666); err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}
	if err := config.WriteFile(target.MapPath()); err != nil {
		return newCommandError("save hierarchical layout failed", err)
	}

	c.files = target
	fmt.Fprintf(c.extraOut, "Saved hierarchical layout as %s (map %s)\n",
		displayablePath(target.LayoutPath()), displayablePath(target.MapPath()))
	return nil
}
