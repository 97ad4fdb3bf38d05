package cellarer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/n2code/cellarer/internal/libmap"
)

func TestNewLayoutCreatesFileSet(t *testing.T) {
	workspace := t.TempDir()
	var out bytes.Buffer

	api, err := New(filepath.Join(workspace, "chip"), NewLayoutOptions{Technology: "demotech"}, CreateConfig{Out: &out})
	if err != nil {
		t.Fatal("creation failed:", err)
	}

	if !strings.HasSuffix(api.LayoutPath(), "chip.klay") {
		t.Error("layout suffix not enforced:", api.LayoutPath())
	}
	layoutContent, err := os.ReadFile(api.LayoutPath())
	if err != nil {
		t.Fatal("layout file not written:", err)
	}
	if !bytes.HasPrefix(layoutContent, []byte("%SEMI-OASIS\r\n")) {
		t.Error("layout file lacks OASIS envelope")
	}

	config, err := libmap.ReadFile(api.MapPath())
	if err != nil {
		t.Fatal("map file not readable:", err)
	}
	if config.Technology != "demotech" {
		t.Error("technology not recorded, got:", config.Technology)
	}
	if len(config.Definitions()) != 0 || len(config.Includes()) != 0 {
		t.Error("fresh map expected to be empty")
	}

	if id, stamped := api.LayoutId(); !stamped || id == "" {
		t.Error("fresh layout expected to carry an ID stamp")
	}
}

func TestNewRefusesToOverwrite(t *testing.T) {
	workspace := t.TempDir()
	layoutPath := filepath.Join(workspace, "busy.klay")
	if err := os.WriteFile(layoutPath, []byte("occupied"), 0666); err != nil {
		t.Fatal(err)
	}

	if _, err := New(layoutPath, NewLayoutOptions{}, CreateConfig{Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("creation over existing file expected to fail")
	}
	if _, err := New(layoutPath, NewLayoutOptions{Overwrite: true}, CreateConfig{Out: &bytes.Buffer{}}); err != nil {
		t.Fatal("forced creation failed:", err)
	}
}

func TestNewWithTemplateMap(t *testing.T) {
	workspace := t.TempDir()
	libraryFile := filepath.Join(workspace, "cells.gds")
	if err := os.WriteFile(libraryFile, []byte("GDS"), 0666); err != nil {
		t.Fatal(err)
	}
	templatePath := filepath.Join(workspace, "template.klib")
	template := &libmap.Config{Statements: []libmap.Statement{libmap.Definition{Name: "cells", Path: libraryFile}}}
	if err := template.WriteFile(templatePath); err != nil {
		t.Fatal(err)
	}

	linked, err := New(filepath.Join(workspace, "linked"), NewLayoutOptions{MapCreation: LinkTemplateMap, TemplateMapPath: templatePath}, CreateConfig{Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatal("creation with linked template failed:", err)
	}
	linkedMap, err := libmap.ReadFile(linked.MapPath())
	if err != nil {
		t.Fatal(err)
	}
	if includes := linkedMap.Includes(); len(includes) != 1 || includes[0].Path != templatePath {
		t.Error("linked map expected to include the template, got:", includes)
	}

	copied, err := New(filepath.Join(workspace, "copied"), NewLayoutOptions{MapCreation: CopyTemplateMap, TemplateMapPath: templatePath}, CreateConfig{Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatal("creation with copied template failed:", err)
	}
	copiedMap, err := libmap.ReadFile(copied.MapPath())
	if err != nil {
		t.Fatal(err)
	}
	if definitions := copiedMap.Definitions(); len(definitions) != 1 || definitions[0].Name != "cells" {
		t.Error("copied map expected to carry the template definitions, got:", definitions)
	}
	if _, stamped := copied.LayoutId(); stamped {
		t.Error("verbatim template copy must not carry a fresh ID stamp")
	}

	if _, err := New(filepath.Join(workspace, "bad"), NewLayoutOptions{MapCreation: LinkTemplateMap, TemplateMapPath: filepath.Join(workspace, "void.klib")}, CreateConfig{Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("creation with missing template expected to fail")
	}
	if _, err := os.Lstat(filepath.Join(workspace, "bad.klay")); err == nil {
		t.Error("failed creation must not leave a layout file behind")
	}
}

func TestOpenChecksFileSet(t *testing.T) {
	workspace := t.TempDir()
	layoutPath := filepath.Join(workspace, "broken.klay")

	if _, err := Open(layoutPath, CreateConfig{Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("opening missing layout expected to fail")
	}

	if err := os.WriteFile(layoutPath, []byte("just text"), 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(layoutPath, CreateConfig{Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("opening non-OASIS layout expected to fail")
	}

	api, err := New(filepath.Join(workspace, "sound"), NewLayoutOptions{}, CreateConfig{Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(api.LayoutPath(), CreateConfig{Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatal("reopening created layout failed:", err)
	}
	if reopened.MapPath() != api.MapPath() {
		t.Error("reopened session expected to use the same map file")
	}
}

func TestSaveAsClonesFileSet(t *testing.T) {
	workspace := t.TempDir()
	api, err := New(filepath.Join(workspace, "origin"), NewLayoutOptions{Technology: "demotech"}, CreateConfig{Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}

	targetPath := filepath.Join(workspace, "fork")
	if err := api.SaveAs(targetPath, false); err != nil {
		t.Fatal("save as failed:", err)
	}
	if api.LayoutPath() != targetPath+".klay" {
		t.Error("session expected to switch to the new file set, got:", api.LayoutPath())
	}
	for _, path := range []string{
		filepath.Join(workspace, "origin.klay"), filepath.Join(workspace, "origin.klib"),
		filepath.Join(workspace, "fork.klay"), filepath.Join(workspace, "fork.klib"),
	} {
		if _, err := os.Lstat(path); err != nil {
			t.Error("file missing after save as:", path)
		}
	}

	forkedMap, err := libmap.ReadFile(api.MapPath())
	if err != nil {
		t.Fatal(err)
	}
	if forkedMap.Technology != "demotech" {
		t.Error("map content not carried over, got technology:", forkedMap.Technology)
	}

	if err := api.SaveAs(targetPath, false); err != nil {
		t.Error("save as onto the own file set expected to degrade to plain save, got:", err)
	}
	if err := api.SaveAs(filepath.Join(workspace, "origin"), false); err == nil {
		t.Error("save as onto foreign existing file expected to fail without overwrite")
	}
}

func TestReloadLibrariesAndRecords(t *testing.T) {
	workspace := t.TempDir()
	var out bytes.Buffer
	api, err := New(filepath.Join(workspace, "chip"), NewLayoutOptions{}, CreateConfig{Out: &out})
	if err != nil {
		t.Fatal(err)
	}

	libraryFile := filepath.Join(workspace, "cells.oas")
	if err := os.WriteFile(libraryFile, []byte("cell data"), 0666); err != nil {
		t.Fatal(err)
	}
	mapConfig := &libmap.Config{Statements: []libmap.Statement{libmap.Definition{Name: "cells", Path: libraryFile}}}
	if err := mapConfig.WriteFile(api.MapPath()); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := api.ReloadLibraries(); err != nil {
		t.Fatal("reload failed:", err)
	}
	if !strings.Contains(out.String(), "1 loaded") {
		t.Error("first reload expected to load one library, output:", out.String())
	}

	out.Reset()
	if err := api.ReloadLibraries(); err != nil {
		t.Fatal("second reload failed:", err)
	}
	if !strings.Contains(out.String(), "1 unchanged") {
		t.Error("second reload expected to find library unchanged, output:", out.String())
	}

	out.Reset()
	api.PrintRecords()
	if !strings.Contains(out.String(), "cells") || !strings.Contains(out.String(), "SHA256") {
		t.Error("records output incomplete:", out.String())
	}

	if err := os.Remove(libraryFile); err != nil {
		t.Fatal(err)
	}
	if err := api.ReloadLibraries(); err == nil {
		t.Error("reload with missing library file expected to fail")
	}
}

func TestPrintStatusFindsProblems(t *testing.T) {
	workspace := t.TempDir()
	var out bytes.Buffer
	api, err := New(filepath.Join(workspace, "chip"), NewLayoutOptions{}, CreateConfig{Out: &out})
	if err != nil {
		t.Fatal(err)
	}

	mapConfig := &libmap.Config{Statements: []libmap.Statement{
		libmap.Definition{Name: "ghost", Path: filepath.Join(workspace, "nowhere.gds")},
		libmap.Include{Path: filepath.Join(workspace, "nowhere.klib")},
	}}
	if err := mapConfig.WriteFile(api.MapPath()); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	problems, err := api.PrintStatus()
	if err != nil {
		t.Fatal("status failed:", err)
	}
	if problems != 3 { //definition, include, closing resolution check
		t.Error("expected 3 problems, got:", problems, "output:", out.String())
	}
	if !strings.Contains(out.String(), "[not found!]") {
		t.Error("status output lacks verdicts:", out.String())
	}
}
