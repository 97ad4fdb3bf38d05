package cellarer

import (
	"os"
	"path/filepath"
	"strings"
)

const dot string = "."
const dirSeparator = string(filepath.Separator)
const dotDirSeparator = dot + dirSeparator
const doubleDotDirSeparator = dot + dot + dirSeparator

// displayablePath turns an absolute path into something easily
// understandable from the current working directory: a "./"-anchored
// relative path for targets at or below it, the absolute path otherwise.
func displayablePath(absolute string) string {
	return pleasantPath(filepath.Clean(absolute), mustGetwd())
}

func pleasantPath(absolute string, wd string) string {
	relative, err := filepath.Rel(wd, absolute)
	if err != nil || strings.HasPrefix(relative, doubleDotDirSeparator) || relative == dot+dot {
		return absolute
	}
	if relative == dot {
		return dotDirSeparator
	}
	return dotDirSeparator + relative
}

// libraryFileSuffixes are the layout container formats a cell library is
// typically stored in, longest match first.
var libraryFileSuffixes = []string{".gds.gz", ".gds", ".oas.gz", ".oas", ".txt"}

// libraryNameForPath derives a default library name from a library file
// path the way the manager dialog fills in blank name cells.
func libraryNameForPath(path string) string {
	name := filepath.Base(path)
	for _, suffix := range libraryFileSuffixes {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}
