package layout

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/n2code/cellarer/internal"
)

const LayoutFileSuffix = ".klay"
const MapFileSuffix = ".klib"

// oasisMagic is the fixed byte sequence every OASIS file starts with.
// Everything beyond the envelope is owned by the layout engine.
var oasisMagic = []byte("%SEMI-OASIS\r\n")

var ErrLayoutNotOasis = errors.New("layout file is not an OASIS file")
var ErrMapMissing = errors.New("cell library map file does not exist")

// FileSet ties a hierarchical layout file to its sidecar cell library map.
// The map path is always derived from the layout path by suffix exchange.
type FileSet struct {
	layoutPath string //absolute, system-native
}

func NewFileSet(layoutPath string) FileSet {
	abs, err := filepath.Abs(layoutPath)
	internal.AssertNoError(err, "layout path must be resolvable")
	return FileSet{layoutPath: abs}
}

func (f FileSet) LayoutPath() string {
	return f.layoutPath
}

func (f FileSet) MapPath() string {
	return swapSuffix(f.layoutPath, MapFileSuffix)
}

// BaseFolder anchors relative paths inside the sidecar map.
func (f FileSet) BaseFolder() string {
	return filepath.Dir(f.layoutPath)
}

// Check verifies that the file set qualifies as a hierarchical layout:
// the layout file exists and carries the OASIS envelope and the sidecar
// map file is present next to it.
func (f FileSet) Check() error {
	file, err := os.Open(f.layoutPath)
	if err != nil {
		return fmt.Errorf("layout file not usable: %w", err)
	}
	defer file.Close()

	magic := make([]byte, len(oasisMagic))
	if _, err := file.Read(magic); err != nil || !bytes.Equal(magic, oasisMagic) {
		return fmt.Errorf("%w: %s", ErrLayoutNotOasis, f.layoutPath)
	}

	if _, err := os.Stat(f.MapPath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMapMissing, f.MapPath())
		}
		return fmt.Errorf("cell library map file not usable: %w", err)
	}
	return nil
}

// WritePlaceholder creates a fresh layout file containing only the OASIS
// envelope, to be filled by the layout engine later.
func (f FileSet) WritePlaceholder(overwrite bool) error {
	if !overwrite {
		if _, err := os.Lstat(f.layoutPath); err == nil {
			return fmt.Errorf("layout file exists already (%s)", f.layoutPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.WriteFile(f.layoutPath, oasisMagic, 0666); err != nil {
		return fmt.Errorf("creating layout file failed: %w", err)
	}
	return nil
}

// EnforceLayoutSuffix appends the layout suffix unless the path already
// ends in it, upper/lower case notwithstanding.
func EnforceLayoutSuffix(path string) string {
	if strings.HasSuffix(strings.ToLower(path), LayoutFileSuffix) {
		return path
	}
	return path + LayoutFileSuffix
}

// swapSuffix exchanges the last extension of the path, keeping paths
// without any extension intact apart from the addition.
func swapSuffix(path string, newSuffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + newSuffix
}
