package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadYAMLFiles reads every *.yaml / *.yml file in dir and hands its bytes to
// parse. A missing directory is not an error; the content set is simply empty.
func loadYAMLFiles(dir string, parse func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		if err := parse(path, data); err != nil {
			return err
		}
	}
	return nil
}

// LoadDefinitions reads all item/skill definition YAML files in dir.
//
// Precondition: dir must be a readable directory (or absent).
// Postcondition: Returns all validated definitions, or the first parse or
// validation error; on error, the partial result is discarded.
func LoadDefinitions(dir string) ([]*Definition, error) {
	var defs []*Definition
	err := loadYAMLFiles(dir, func(path string, data []byte) error {
		var d Definition
		if err := yaml.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
		defs = append(defs, &d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// LoadMonsters reads all monster template YAML files in dir.
//
// Precondition: dir must be a readable directory (or absent).
// Postcondition: Returns all validated templates, or the first parse or
// validation error; on error, the partial result is discarded.
func LoadMonsters(dir string) ([]*MonsterTemplate, error) {
	var tmpls []*MonsterTemplate
	err := loadYAMLFiles(dir, func(path string, data []byte) error {
		var t MonsterTemplate
		if err := yaml.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
		tmpls = append(tmpls, &t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tmpls, nil
}

// Load builds a frozen Registry from the content tree rooted at root,
// expecting the subdirectories items/, skills/, and monsters/.
//
// Precondition: root must be a readable directory.
// Postcondition: Returns a frozen Registry or the first load error.
func Load(root string) (*Registry, error) {
	reg := NewRegistry()

	items, err := LoadDefinitions(filepath.Join(root, "items"))
	if err != nil {
		return nil, err
	}
	for _, d := range items {
		if err := reg.RegisterItem(d); err != nil {
			return nil, err
		}
	}

	skills, err := LoadDefinitions(filepath.Join(root, "skills"))
	if err != nil {
		return nil, err
	}
	for _, d := range skills {
		if err := reg.RegisterSkill(d); err != nil {
			return nil, err
		}
	}

	monsters, err := LoadMonsters(filepath.Join(root, "monsters"))
	if err != nil {
		return nil, err
	}
	for _, t := range monsters {
		if err := reg.RegisterMonster(t); err != nil {
			return nil, err
		}
	}

	reg.Freeze()
	return reg, nil
}
