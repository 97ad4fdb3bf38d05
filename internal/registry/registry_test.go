package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/n2code/cellarer/internal/libmap"
)

func TestSyncLoadsRefreshesAndDrops(t *testing.T) {
	libDir := t.TempDir()
	cellsPath := filepath.Join(libDir, "cells.oas")
	padsPath := filepath.Join(libDir, "pads.oas")
	os.WriteFile(cellsPath, []byte("CELLS"), 0666)
	os.WriteFile(padsPath, []byte("PADS"), 0666)

	reg := New()

	result, err := reg.Sync([]libmap.Definition{
		{Name: "cells", Path: cellsPath},
		{Name: "pads", Path: padsPath},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes["cells"] != LoadedLibrary || result.Outcomes["pads"] != LoadedLibrary {
		t.Fatalf("first sync must load everything, got %v", result.Outcomes)
	}
	if names := reg.Names(); len(names) != 2 {
		t.Fatalf("expected 2 registered libraries, got %v", names)
	}

	//unchanged pass
	result, err = reg.Sync([]libmap.Definition{
		{Name: "cells", Path: cellsPath},
		{Name: "pads", Path: padsPath},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes["cells"] != UnchangedLibrary {
		t.Errorf("untouched library must report unchanged, got %v", result.Outcomes["cells"])
	}

	//content change must be picked up
	os.WriteFile(cellsPath, []byte("CELLS v2"), 0666)
	backdated := time.Now().Add(2 * time.Second)
	os.Chtimes(cellsPath, backdated, backdated)

	//map drops pads at the same time
	result, err = reg.Sync([]libmap.Definition{
		{Name: "cells", Path: cellsPath},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes["cells"] != RefreshedLibrary {
		t.Errorf("modified library must report refreshed, got %v", result.Outcomes["cells"])
	}
	if result.Outcomes["pads"] != DroppedLibrary {
		t.Errorf("vanished library must report dropped, got %v", result.Outcomes["pads"])
	}
	if _, registered := reg.Lookup("pads"); registered {
		t.Error("dropped library still registered")
	}
	if snapshot, registered := reg.Lookup("cells"); !registered || snapshot.Size != int64(len("CELLS v2")) {
		t.Errorf("refreshed record out of date: %#v", snapshot)
	}
}

func TestSyncReloadsOnPathChange(t *testing.T) {
	libDir := t.TempDir()
	oldPath := filepath.Join(libDir, "v1.oas")
	newPath := filepath.Join(libDir, "v2.oas")
	os.WriteFile(oldPath, []byte("V1"), 0666)
	os.WriteFile(newPath, []byte("V2"), 0666)

	reg := New()
	if _, err := reg.Sync([]libmap.Definition{{Name: "cells", Path: oldPath}}); err != nil {
		t.Fatal(err)
	}

	result, err := reg.Sync([]libmap.Definition{{Name: "cells", Path: newPath}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes["cells"] != RefreshedLibrary {
		t.Errorf("repathed library must be reloaded, got %v", result.Outcomes["cells"])
	}
	if snapshot, _ := reg.Lookup("cells"); snapshot.Path != newPath {
		t.Errorf("record still points to old path: %s", snapshot.Path)
	}
}

func TestSyncAbortsOnMissingLibraryFile(t *testing.T) {
	reg := New()
	_, err := reg.Sync([]libmap.Definition{{Name: "ghost", Path: filepath.Join(t.TempDir(), "ghost.oas")}})
	if err == nil {
		t.Fatal("missing library file must abort the sync")
	}
	if _, registered := reg.Lookup("ghost"); registered {
		t.Error("failed load must not register the library")
	}
}
