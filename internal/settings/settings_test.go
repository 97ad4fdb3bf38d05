//go:build !windows

package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadToleratesMissingFile(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nope", "settings.yaml"))
	if err != nil {
		t.Fatalf("missing settings file must not be an error, got %v", err)
	}
	if loaded != (Settings{}) {
		t.Errorf("expected zero settings, got %#v", loaded)
	}
}

func TestSaveAndReload(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "deep", "settings.yaml")

	var current Settings
	current.DefaultTechnology = "sg13g2"
	current.RememberDirectory(filepath.Join("/designs", "chip.klay"))

	if err := current.Save(settingsPath); err != nil {
		t.Fatal(err)
	}
	reloaded, err := Load(settingsPath)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded != current {
		t.Errorf("settings not reloaded correctly:\nexpected: %#v\ngot: %#v", current, reloaded)
	}
	if reloaded.LastDirectory != "/designs" {
		t.Errorf("last directory must be the containing folder, got %q", reloaded.LastDirectory)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(settingsPath, []byte("{unclosed: ["), 0666); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(settingsPath); err == nil || !strings.Contains(err.Error(), settingsPath) {
		t.Fatalf("garbage settings must fail with file context, got %v", err)
	}
}
