package cellarer

import (
	"fmt"
	"io"
	"os"

	"github.com/n2code/cellarer/internal/layout"
	"github.com/n2code/cellarer/internal/libmap"
	"github.com/n2code/cellarer/internal/registry"
)

type VerbosityLevel int

const (
	DefaultVerbosity VerbosityLevel = iota
	VerboseMode
	QuietMode
)

// CreateConfig holds a set of common configuration switches that concern all
// calls to the cellarer API. The zero value is a sensible default.
type CreateConfig struct {
	Verbosity             VerbosityLevel
	FancyTerminalFeatures bool      //enables ANSI coloring of status output
	Out                   io.Writer //defaults to standard output
	ErrOut                io.Writer //defaults to standard error
}

type cellarer struct {
	files      layout.FileSet
	libs       *registry.Registry
	out        io.Writer //essential output (i.e. requested information)
	extraOut   io.Writer //more output for convenience (repeats context)
	verboseOut io.Writer //most output, talkative
	errOut     io.Writer //error output
	fancy      bool
}

// Open attaches a session to an existing hierarchical layout file set.
// The layout file must carry the OASIS envelope and the sidecar map file
// must exist and parse.
func Open(layoutPath string, config CreateConfig) (Cellarer, error) {
	handle := makeCellarer(config)
	handle.files = layout.NewFileSet(layoutPath)
	if err := handle.files.Check(); err != nil {
		return nil, newCommandError("opening hierarchical layout failed", err)
	}
	if _, err := libmap.ReadFile(handle.files.MapPath()); err != nil {
		return nil, newCommandError("opening hierarchical layout failed", err)
	}
	fmt.Fprintf(handle.verboseOut, "Opened hierarchical layout %s (map %s)\n", handle.files.LayoutPath(), handle.files.MapPath())
	return handle, nil
}

func (c *cellarer) LayoutPath() string {
	return c.files.LayoutPath()
}

func (c *cellarer) MapPath() string {
	return c.files.MapPath()
}

func makeCellarer(config CreateConfig) (instance *cellarer) {
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := config.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}
	instance = &cellarer{
		libs:       registry.New(),
		out:        out,
		extraOut:   io.Discard,
		verboseOut: io.Discard,
		errOut:     errOut,
		fancy:      config.FancyTerminalFeatures,
	}
	switch config.Verbosity {
	case VerboseMode:
		instance.verboseOut = out
		fallthrough
	case DefaultVerbosity:
		instance.extraOut = out
	}
	return
}

// readMap loads the session's sidecar map file.
func (c *cellarer) readMap() (*libmap.Config, error) {
	return libmap.ReadFile(c.files.MapPath())
}

// resolveMap flattens the session's sidecar map file with all includes.
func (c *cellarer) resolveMap() (*libmap.ResolvedMap, error) {
	return libmap.Resolve(c.files.MapPath())
}
