package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const settingsDirName = "cellarer"
const settingsFileName = "settings.yaml"
const workInProgressFileSuffix = ".wip"

// Settings are the persistent user preferences of the tool, e.g. the
// directory file dialogs would start in. All fields are optional.
type Settings struct {
	LastDirectory     string `yaml:"last_directory,omitempty"`
	DefaultTechnology string `yaml:"default_technology,omitempty"`
	TemplateMapPath   string `yaml:"template_map,omitempty"`
}

// DefaultFilePath locates the settings file inside the user config directory.
func DefaultFilePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config directory not determinable: %w", err)
	}
	return filepath.Join(configDir, settingsDirName, settingsFileName), nil
}

// Load reads the settings file at the given path.
// A missing file is not an error and yields the zero value.
func Load(path string) (Settings, error) {
	var loaded Settings
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return loaded, nil
		}
		return loaded, fmt.Errorf("reading settings failed: %w", err)
	}
	if err := yaml.Unmarshal(content, &loaded); err != nil {
		return Settings{}, fmt.Errorf("settings file %s not parsable: %w", path, err)
	}
	return loaded, nil
}

// Save persists the settings atomically, creating parent directories as needed.
func (s Settings) Save(path string) error {
	content, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return fmt.Errorf("creating settings directory failed: %w", err)
	}
	tempPath := path + workInProgressFileSuffix
	if err := os.WriteFile(tempPath, content, 0666); err != nil {
		return fmt.Errorf("saving settings failed: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing settings file (%s) failed: %w", path, err)
	}
	return nil
}

// RememberDirectory records the folder containing the given path as the
// most recently used location.
func (s *Settings) RememberDirectory(path string) {
	s.LastDirectory = filepath.Dir(path)
}
