package cellarer

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/n2code/cellarer/internal/libmap"
	"github.com/n2code/cellarer/internal/output"
)

// PrintMap prints the effective library definitions of the resolved map.
func (c *cellarer) PrintMap() error {
	resolved, err := c.resolveMap()
	if err != nil {
		return newCommandError("map resolution failed", err)
	}

	effective := resolved.Effective()
	if len(effective) == 0 {
		fmt.Fprint(c.extraOut, "Cell library map is empty.\n")
		return nil
	}
	for _, definition := range effective {
		verdict := c.verdict(fileExists(definition.Path))
		fmt.Fprintf(c.out, "%s = %s %s\n", definition.Name, displayablePath(definition.Path), verdict)
	}
	fmt.Fprintf(c.extraOut, "%d %s effective, resolved from %d map %s\n",
		len(effective), output.Plural(effective, "library", "libraries"),
		len(resolved.Files()), output.Plural(resolved.Files(), "file", "files"))
	return nil
}

// PrintIncludeTree prints the include graph with definitions as leaves.
func (c *cellarer) PrintIncludeTree() error {
	rootPath := c.files.MapPath()
	tree := output.NewVisualMapTree(rootPath, displayablePath(rootPath))
	err := libmap.Walk(rootPath, func(file string, parent string, config *libmap.Config) {
		if parent != "" {
			tree.InsertInclude(parent, file, displayablePath(file))
		}
		for _, definition := range config.Definitions() {
			tree.InsertDefinition(file, fmt.Sprintf("%s = %s", definition.Name, definition.Path))
		}
	})
	if err != nil {
		return newCommandError("map resolution failed", err)
	}
	fmt.Fprint(c.out, tree.Render())
	return nil
}

// PrintRecords prints the state of all libraries loaded in this session.
func (c *cellarer) PrintRecords() {
	names := c.libs.Names()
	if len(names) == 0 {
		fmt.Fprint(c.extraOut, "No cell libraries loaded in this session.\n")
		return
	}
	detail := func(label string, value string) {
		line := fmt.Sprintf("  %-9s %s", label, value)
		if c.fancy {
			line = output.TerminalFormatAsDim(line)
		}
		fmt.Fprintln(c.out, line)
	}
	for _, name := range names {
		record, _ := c.libs.Lookup(name)
		fmt.Fprintf(c.out, "%s\n", name)
		detail("File:", displayablePath(record.Path))
		detail("Size:", output.Filesize(record.Size))
		detail("SHA256:", hex.EncodeToString(record.Sha256[:]))
		detail("Modified:", time.Unix(record.LastModified, 0).Format(time.RFC1123))
	}
}

// PrintStatus checks the entries of the session's own map file the way the
// manager dialog validates its rows and prints one verdict per entry.
// Includes of includes are covered by the closing resolution check.
func (c *cellarer) PrintStatus() (problems int, err error) {
	config, err := c.readMap()
	if err != nil {
		return 0, newCommandError("manage cell library map failed", err)
	}

	baseFolder := c.files.BaseFolder()
	for _, definition := range config.Definitions() {
		name := definition.Name
		if name == "" {
			name = "<unnamed>"
		}
		path, pathErr := libmap.CanonicalPath(definition.Path, baseFolder)
		usable := definition.Name != "" && pathErr == nil && fileExists(path)
		fmt.Fprintf(c.out, "library %s = %s %s\n", name, definition.Path, c.verdict(usable))
		if !usable {
			problems++
		}
	}
	for _, include := range config.Includes() {
		path, pathErr := libmap.CanonicalPath(include.Path, baseFolder)
		usable := pathErr == nil && fileExists(path)
		fmt.Fprintf(c.out, "include %s %s\n", include.Path, c.verdict(usable))
		if !usable {
			problems++
		}
	}

	if _, resolveErr := c.resolveMap(); resolveErr != nil {
		fmt.Fprintf(c.out, "resolution: %s\n", c.colorError(resolveErr.Error()))
		problems++
	}

	if problems > 0 {
		fmt.Fprintf(c.extraOut, "%d %s found\n", problems, output.Plural(problems, "problem", "problems"))
	} else {
		fmt.Fprint(c.extraOut, "Cell library map is in order.\n")
	}
	return problems, nil
}

func (c *cellarer) verdict(ok bool) string {
	if ok {
		if c.fancy {
			return output.TerminalFormatAsGood("[OK]")
		}
		return "[OK]"
	}
	if c.fancy {
		return output.TerminalFormatAsError("[not found!]")
	}
	return "[not found!]"
}

func (c *cellarer) colorError(text string) string {
	if c.fancy {
		return output.TerminalFormatAsError(text)
	}
	return text
}

func fileExists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}
